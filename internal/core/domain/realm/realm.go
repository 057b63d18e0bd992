package realm

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Realm is the multi-tenant organization boundary. Every user, confirmation,
// and email-change request belongs to exactly one realm.
type Realm struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Subdomain string        `json:"subdomain" db:"subdomain"`
	Status    RealmStatus   `json:"status" db:"status"`
	Settings  RealmSettings `json:"settings" db:"settings"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

type RealmStatus string

const (
	RealmStatusActive      RealmStatus = "active"
	RealmStatusDeactivated RealmStatus = "deactivated"
)

// ValidTransitions returns the valid status transitions from current status
func (rs RealmStatus) ValidTransitions() []RealmStatus {
	switch rs {
	case RealmStatusActive:
		return []RealmStatus{RealmStatusDeactivated}
	case RealmStatusDeactivated:
		return []RealmStatus{RealmStatusActive}
	default:
		return []RealmStatus{}
	}
}

// IsValidTransition checks if transition to new status is valid
func (rs RealmStatus) IsValidTransition(newStatus RealmStatus) bool {
	return slices.Contains(rs.ValidTransitions(), newStatus)
}

// CanAccess returns true if the realm can be used
func (r *Realm) CanAccess() bool {
	return r.Status == RealmStatusActive
}

// RealmSettings holds per-realm policy. Email-change policy is evaluated at
// apply time against the current settings, not the settings at issuance time.
type RealmSettings struct {
	EmailChangesDisabled      bool     `json:"email_changes_disabled"`
	DisallowDisposableEmails  bool     `json:"disallow_disposable_emails"`
	EmailsRestrictedToDomains bool     `json:"emails_restricted_to_domains"`
	AllowedEmailDomains       []string `json:"allowed_email_domains"`
	RequestsPerMinute         int      `json:"requests_per_minute"`
}

// DomainAllowed checks an address domain against the realm's allowlist.
// An empty allowlist with restriction enabled rejects everything.
func (s *RealmSettings) DomainAllowed(domain string) bool {
	if !s.EmailsRestrictedToDomains {
		return true
	}
	domain = strings.ToLower(domain)
	for _, allowed := range s.AllowedEmailDomains {
		if strings.EqualFold(allowed, domain) {
			return true
		}
	}
	return false
}

// CreateRealmRequest represents the request to create a new realm
type CreateRealmRequest struct {
	Name      string        `json:"name" validate:"required"`
	Subdomain string        `json:"subdomain" validate:"required,alphanum"`
	Settings  RealmSettings `json:"settings"`
}

// UpdateRealmSettingsRequest represents a partial settings update
type UpdateRealmSettingsRequest struct {
	EmailChangesDisabled      *bool     `json:"email_changes_disabled,omitempty"`
	DisallowDisposableEmails  *bool     `json:"disallow_disposable_emails,omitempty"`
	EmailsRestrictedToDomains *bool     `json:"emails_restricted_to_domains,omitempty"`
	AllowedEmailDomains       *[]string `json:"allowed_email_domains,omitempty"`
	RequestsPerMinute         *int      `json:"requests_per_minute,omitempty"`
}
