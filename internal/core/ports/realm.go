package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
)

// RealmRepository defines the interface for realm data operations
type RealmRepository interface {
	Create(ctx context.Context, realm *realm.Realm) error
	GetByID(ctx context.Context, id uuid.UUID) (*realm.Realm, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*realm.Realm, error)
	Update(ctx context.Context, realm *realm.Realm) error
}

// RealmService defines the interface for realm business logic
type RealmService interface {
	CreateRealm(ctx context.Context, req *realm.CreateRealmRequest) (*realm.Realm, error)
	GetRealm(ctx context.Context, id uuid.UUID) (*realm.Realm, error)
	GetRealmBySubdomain(ctx context.Context, subdomain string) (*realm.Realm, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, req *realm.UpdateRealmSettingsRequest) (*realm.Realm, error)
	SetStatus(ctx context.Context, id uuid.UUID, status realm.RealmStatus) (*realm.Realm, error)
}
