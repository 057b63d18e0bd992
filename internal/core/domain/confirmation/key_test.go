package confirmation_test

import (
	"errors"
	"testing"

	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
)

func TestGenerateKey_MatchesGrammar(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key, err := confirmation.GenerateKey()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(key) != confirmation.KeyLength {
			t.Fatalf("key %q has length %d", key, len(key))
		}
		if err := confirmation.ValidateKeyFormat(key); err != nil {
			t.Fatalf("generated key fails its own grammar: %q", key)
		}
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key generated: %q", key)
		}
		seen[key] = struct{}{}
	}
}

func TestValidateKeyFormat(t *testing.T) {
	valid := []string{
		"abcdefghijklmnopqrstuvwx",
		"000000000000000000000000",
		"a1b2c3d4e5f6g7h8i9j0k1l2",
	}
	for _, key := range valid {
		if err := confirmation.ValidateKeyFormat(key); err != nil {
			t.Fatalf("key %q should be valid, got %v", key, err)
		}
	}

	invalid := []string{
		"",
		"abc",
		"abcdefghijklmnopqrstuvw",   // one short
		"abcdefghijklmnopqrstuvwxy", // one long
		"ABCDEFGHIJKLMNOPQRSTUVWX",  // uppercase
		"abcdefghijklmnopqrstuvw-",  // punctuation
		"abcdefghijklmnopqrstuvw ",  // whitespace
	}
	for _, key := range invalid {
		if err := confirmation.ValidateKeyFormat(key); !errors.Is(err, confirmation.ErrMalformedKey) {
			t.Fatalf("key %q should be rejected, got %v", key, err)
		}
	}
}
