package confirmation

import (
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Confirmation key grammar: 24 lowercase base36 characters.
const KeyLength = 24

const keyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var keyPattern = regexp.MustCompile(`^[a-z0-9]{24}$`)

var (
	// ErrMalformedKey means the presented key does not match the key grammar.
	ErrMalformedKey = errors.New("confirmation key is malformed")
	// ErrKeyNotFound means no confirmation exists for the presented key.
	ErrKeyNotFound = errors.New("confirmation key not found")
	// ErrExpired means the confirmation's validity window has elapsed.
	ErrExpired = errors.New("confirmation link has expired")
	// ErrAlreadyUsed means the confirmation was consumed or revoked.
	ErrAlreadyUsed = errors.New("confirmation link has already been used or deactivated")
	// ErrInvalidState means a state transition was attempted on a
	// confirmation that is no longer active.
	ErrInvalidState = errors.New("confirmation is not active")
)

// Type tags the kind of object a confirmation is bound to.
type Type string

const (
	TypeEmailChange Type = "email_change"
)

// Status of a confirmation. Expiry is not a status: an expired confirmation
// keeps its stored status and is rejected lazily at verification time.
type Status string

const (
	StatusActive  Status = "active"
	StatusUsed    Status = "used"
	StatusRevoked Status = "revoked"
)

// Confirmation is a single-use link token bound to a typed object.
// A key, once issued, is never reissued for a different object.
type Confirmation struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Key       string     `json:"-" db:"key"`
	Type      Type       `json:"type" db:"type"`
	ObjectID  uuid.UUID  `json:"object_id" db:"object_id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	RealmID   uuid.UUID  `json:"realm_id" db:"realm_id"`
	Status    Status     `json:"status" db:"status"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the confirmation's TTL window has elapsed.
func (c *Confirmation) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsActive reports whether the confirmation can still be consumed
// (status only; expiry is checked separately and takes precedence).
func (c *Confirmation) IsActive() bool {
	return c.Status == StatusActive
}

// GenerateKey returns a cryptographically random confirmation key.
func GenerateKey() (string, error) {
	buf := make([]byte, KeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate confirmation key: %w", err)
	}
	for i, b := range buf {
		buf[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return string(buf), nil
}

// ValidateKeyFormat checks the presented key against the key grammar.
func ValidateKeyFormat(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrMalformedKey
	}
	return nil
}
