package emailchange

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
)

var (
	// ErrInvalidAddress means the new address is not syntactically valid.
	ErrInvalidAddress = errors.New("invalid email address")
	// ErrEmailTaken means an active account in the realm already uses the address.
	ErrEmailTaken = errors.New("email address already has an account")
	// ErrAccountDeactivated means the owning account, or an account holding
	// the target address, has been deactivated.
	ErrAccountDeactivated = errors.New("account has been deactivated")
	// ErrRealmDeactivated means the owning realm has been deactivated.
	ErrRealmDeactivated = errors.New("realm has been deactivated")
	// ErrChangesDisabled means the realm disallows email changes for
	// non-admin users.
	ErrChangesDisabled = errors.New("email address changes are disabled in this realm")
	// ErrDisposableAddress means the realm rejects disposable email providers.
	ErrDisposableAddress = errors.New("disposable email addresses are not allowed, please use your real email address")
	// ErrRestrictedDomain means the address domain is outside the realm's allowlist.
	ErrRestrictedDomain = errors.New("email address domain is not allowed in this realm")
	// ErrInvalidPassword means the requesting user failed the password check.
	ErrInvalidPassword = errors.New("invalid password")
)

// Request is a pending old-to-new email transition bound to one confirmation
// generation. Its status mirrors the status of its confirmation.
type Request struct {
	ID        uuid.UUID           `json:"id" db:"id"`
	UserID    uuid.UUID           `json:"user_id" db:"user_id"`
	RealmID   uuid.UUID           `json:"realm_id" db:"realm_id"`
	OldEmail  string              `json:"old_email" db:"old_email"`
	NewEmail  string              `json:"new_email" db:"new_email"`
	Status    confirmation.Status `json:"status" db:"status"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`
}

// StartRequest is the payload for initiating an email change.
type StartRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ConfirmRequest carries the presented confirmation key.
type ConfirmRequest struct {
	Key string `json:"key" validate:"required"`
}

// disposableDomains lists throwaway-address providers rejected when a realm
// enables disposable-address filtering. Deliberately small; the authoritative
// list lives with the mail gateway.
var disposableDomains = map[string]struct{}{
	"mailinator.com":    {},
	"guerrillamail.com": {},
	"10minutemail.com":  {},
	"sharklasers.com":   {},
	"trashmail.com":     {},
	"yopmail.com":       {},
}

// ParseAddress validates syntax and returns the normalized (lowercased)
// address.
func ParseAddress(email string) (string, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(addr.Address), nil
}

// Domain returns the domain part of an already-validated address.
func Domain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// IsDisposableDomain reports whether the domain belongs to a known
// throwaway-address provider.
func IsDisposableDomain(domain string) bool {
	_, ok := disposableDomains[strings.ToLower(domain)]
	return ok
}
