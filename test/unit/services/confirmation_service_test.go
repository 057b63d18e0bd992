package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	impl "github.com/threadlinehq/accounts-service/internal/application/services"
	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	tmocks "github.com/threadlinehq/accounts-service/test/mocks"
)

func TestIssue_StoresActiveConfirmation(t *testing.T) {
	var stored *confirmation.Confirmation
	repo := &tmocks.ConfirmationRepositoryMock{
		CreateFn: func(ctx context.Context, c *confirmation.Confirmation) error {
			stored = c
			return nil
		},
	}
	svc := impl.NewConfirmationService(repo, logrus.New())

	userID := uuid.New()
	objectID := uuid.New()
	conf, err := svc.Issue(context.Background(), ports.IssueParams{
		Type:     confirmation.TypeEmailChange,
		ObjectID: objectID,
		UserID:   userID,
		RealmID:  uuid.New(),
		TTL:      24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatalf("confirmation was not persisted")
	}
	if err := confirmation.ValidateKeyFormat(conf.Key); err != nil {
		t.Fatalf("issued key fails format check: %q", conf.Key)
	}
	if conf.Status != confirmation.StatusActive {
		t.Fatalf("expected active status, got %s", conf.Status)
	}
	if conf.ObjectID != objectID {
		t.Fatalf("confirmation bound to wrong object")
	}
	if !conf.ExpiresAt.After(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("expiry not set from TTL: %v", conf.ExpiresAt)
	}
}

func TestIssue_RevokesSupersededKeepingNewest(t *testing.T) {
	var keptID uuid.UUID
	var revokedType confirmation.Type
	repo := &tmocks.ConfirmationRepositoryMock{
		RevokeActiveForUserFn: func(ctx context.Context, userID uuid.UUID, typ confirmation.Type, keepID uuid.UUID) (int, error) {
			keptID = keepID
			revokedType = typ
			return 2, nil
		},
	}
	svc := impl.NewConfirmationService(repo, logrus.New())

	conf, err := svc.Issue(context.Background(), ports.IssueParams{
		Type:     confirmation.TypeEmailChange,
		ObjectID: uuid.New(),
		UserID:   uuid.New(),
		RealmID:  uuid.New(),
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keptID != conf.ID {
		t.Fatalf("revocation must exempt the freshly issued confirmation")
	}
	if revokedType != confirmation.TypeEmailChange {
		t.Fatalf("revocation must be scoped to the issued type, got %s", revokedType)
	}
}

func TestVerify_Roundtrip(t *testing.T) {
	stored := map[string]*confirmation.Confirmation{}
	repo := &tmocks.ConfirmationRepositoryMock{
		CreateFn: func(ctx context.Context, c *confirmation.Confirmation) error {
			stored[c.Key] = c
			return nil
		},
		GetByKeyFn: func(ctx context.Context, key string) (*confirmation.Confirmation, error) {
			if c, ok := stored[key]; ok {
				return c, nil
			}
			return nil, confirmation.ErrKeyNotFound
		},
	}
	svc := impl.NewConfirmationService(repo, logrus.New())

	issued, err := svc.Issue(context.Background(), ports.IssueParams{
		Type:     confirmation.TypeEmailChange,
		ObjectID: uuid.New(),
		UserID:   uuid.New(),
		RealmID:  uuid.New(),
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Verify(context.Background(), issued.Key)
	if err != nil {
		t.Fatalf("verify failed for a fresh key: %v", err)
	}
	if got.ID != issued.ID {
		t.Fatalf("verify returned a different confirmation")
	}
}

func TestVerify_MalformedKey(t *testing.T) {
	lookedUp := false
	repo := &tmocks.ConfirmationRepositoryMock{
		GetByKeyFn: func(ctx context.Context, key string) (*confirmation.Confirmation, error) {
			lookedUp = true
			return nil, confirmation.ErrKeyNotFound
		},
	}
	svc := impl.NewConfirmationService(repo, logrus.New())

	for _, key := range []string{
		"",
		"short",
		"UPPERCASEUPPERCASEUPPERX",
		"abcdefghijklmnopqrstuvw!",
		"abcdefghijklmnopqrstuvwxy",
	} {
		if _, err := svc.Verify(context.Background(), key); !errors.Is(err, confirmation.ErrMalformedKey) {
			t.Fatalf("key %q: expected ErrMalformedKey, got %v", key, err)
		}
	}
	if lookedUp {
		t.Fatalf("malformed keys must be rejected before any lookup")
	}
}

func TestVerify_NotFound(t *testing.T) {
	svc := impl.NewConfirmationService(&tmocks.ConfirmationRepositoryMock{}, logrus.New())

	_, err := svc.Verify(context.Background(), "abcdefghijklmnopqrstuvwx")
	if !errors.Is(err, confirmation.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestVerify_ExpiredBeforeStatus(t *testing.T) {
	// An expired confirmation reports expiry regardless of its stored
	// status, including when it was already consumed.
	for _, status := range []confirmation.Status{
		confirmation.StatusActive,
		confirmation.StatusUsed,
		confirmation.StatusRevoked,
	} {
		repo := &tmocks.ConfirmationRepositoryMock{
			GetByKeyFn: func(ctx context.Context, key string) (*confirmation.Confirmation, error) {
				return &confirmation.Confirmation{
					ID:        uuid.New(),
					Key:       key,
					Status:    status,
					ExpiresAt: time.Now().Add(-time.Minute),
				}, nil
			},
		}
		svc := impl.NewConfirmationService(repo, logrus.New())
		_, err := svc.Verify(context.Background(), "abcdefghijklmnopqrstuvwx")
		if !errors.Is(err, confirmation.ErrExpired) {
			t.Fatalf("status %s: expected ErrExpired, got %v", status, err)
		}
	}
}

func TestVerify_UsedAndRevokedReportReuse(t *testing.T) {
	for _, status := range []confirmation.Status{
		confirmation.StatusUsed,
		confirmation.StatusRevoked,
	} {
		repo := &tmocks.ConfirmationRepositoryMock{
			GetByKeyFn: func(ctx context.Context, key string) (*confirmation.Confirmation, error) {
				return &confirmation.Confirmation{
					ID:        uuid.New(),
					Key:       key,
					Status:    status,
					ExpiresAt: time.Now().Add(time.Hour),
				}, nil
			},
		}
		svc := impl.NewConfirmationService(repo, logrus.New())
		_, err := svc.Verify(context.Background(), "abcdefghijklmnopqrstuvwx")
		if !errors.Is(err, confirmation.ErrAlreadyUsed) {
			t.Fatalf("status %s: expected ErrAlreadyUsed, got %v", status, err)
		}
	}
}
