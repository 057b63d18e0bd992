package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// loadFullListWithSingleflight coalesces a full-list load using singleflight, caches the
// full list and optional count, and returns the list. The loader should fetch the
// complete list when called.
func loadFullListWithSingleflight[T any](cache ports.Cache, ctx context.Context, sfKey, listKey, countKey string, ttl time.Duration, loader func() ([]T, error)) ([]T, error) {
	if cache != nil {
		if v, ok := cacheGet[[]T](cache, ctx, listKey); ok {
			return *v, nil
		}
	}
	res, err, _ := sf.Do(sfKey, func() (any, error) {
		if cache != nil {
			if v, ok := cacheGet[[]T](cache, ctx, listKey); ok {
				return *v, nil
			}
		}
		all, err := loader()
		if err != nil {
			return nil, err
		}
		if cache != nil {
			cacheSetSilently(cache, ctx, listKey, all, ttl)
			if countKey != "" {
				cacheSetSilently(cache, ctx, countKey, len(all), ttl)
			}
		}
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	all, ok := res.([]T)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return all, nil
}

// CachingRealmRepository decorates a RealmRepository with cache-aside. Realm
// settings are read on every email-change issue and confirm, so they are the
// hottest lookup in the service. Writes overwrite both keys so policy flips
// become visible within a single TTL window at worst.
type CachingRealmRepository struct {
	inner ports.RealmRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingRealmRepository(inner ports.RealmRepository, cache ports.Cache, ttl time.Duration) ports.RealmRepository {
	return &CachingRealmRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingRealmRepository) Create(ctx context.Context, rl *realm.Realm) error {
	if err := c.inner.Create(ctx, rl); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, "realm:id:"+rl.ID.String(), rl, c.ttl)
	cacheSetSilently(c.cache, ctx, "realm:subdomain:"+rl.Subdomain, rl, c.ttl)
	return nil
}

func (c *CachingRealmRepository) GetByID(ctx context.Context, id uuid.UUID) (*realm.Realm, error) {
	if v, ok := cacheGet[realm.Realm](c.cache, ctx, "realm:id:"+id.String()); ok {
		return v, nil
	}
	rl, err := c.inner.GetByID(ctx, id)
	if err == nil {
		cacheSetSilently(c.cache, ctx, "realm:id:"+id.String(), rl, c.ttl)
		cacheSetSilently(c.cache, ctx, "realm:subdomain:"+rl.Subdomain, rl, c.ttl)
	}
	return rl, err
}

func (c *CachingRealmRepository) GetBySubdomain(ctx context.Context, subdomain string) (*realm.Realm, error) {
	if v, ok := cacheGet[realm.Realm](c.cache, ctx, "realm:subdomain:"+subdomain); ok {
		return v, nil
	}
	rl, err := c.inner.GetBySubdomain(ctx, subdomain)
	if err == nil {
		cacheSetSilently(c.cache, ctx, "realm:subdomain:"+subdomain, rl, c.ttl)
		cacheSetSilently(c.cache, ctx, "realm:id:"+rl.ID.String(), rl, c.ttl)
	}
	return rl, err
}

func (c *CachingRealmRepository) Update(ctx context.Context, rl *realm.Realm) error {
	if err := c.inner.Update(ctx, rl); err != nil {
		return err
	}
	// Overwrite cache
	cacheSetSilently(c.cache, ctx, "realm:id:"+rl.ID.String(), rl, c.ttl)
	cacheSetSilently(c.cache, ctx, "realm:subdomain:"+rl.Subdomain, rl, c.ttl)
	return nil
}

// CachingUserRepository: cache GetByID only (short TTL expected). Email
// lookups deliberately bypass the cache: address-availability checks must see
// the committed state, not a stale entry from before a confirm.
type CachingUserRepository struct {
	inner ports.UserRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingUserRepository(inner ports.UserRepository, cache ports.Cache, ttl time.Duration) ports.UserRepository {
	return &CachingUserRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingUserRepository) Create(ctx context.Context, u *user.User) error {
	if err := c.inner.Create(ctx, u); err != nil {
		return err
	}
	// Invalidate per-realm user list/count caches
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "realm:users:"+u.RealmID.String()+":all")
		_ = c.cache.Delete(ctx, "realm:users:"+u.RealmID.String()+":count")
	}
	return nil
}

func (c *CachingUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if v, ok := cacheGet[user.User](c.cache, ctx, "user:id:"+id.String()); ok {
		return v, nil
	}
	u, err := c.inner.GetByID(ctx, id)
	if err == nil {
		cacheSetSilently(c.cache, ctx, "user:id:"+id.String(), u, c.ttl)
	}
	return u, err
}

func (c *CachingUserRepository) GetByEmail(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
	return c.inner.GetByEmail(ctx, realmID, email)
}

func (c *CachingUserRepository) Update(ctx context.Context, u *user.User) error {
	if err := c.inner.Update(ctx, u); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, "user:id:"+u.ID.String(), u, c.ttl)
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "realm:users:"+u.RealmID.String()+":all")
		_ = c.cache.Delete(ctx, "realm:users:"+u.RealmID.String()+":count")
	}
	return nil
}

func (c *CachingUserRepository) List(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, error) {
	listKey := "realm:users:" + realmID.String() + ":all"
	countKey := "realm:users:" + realmID.String() + ":count"
	loader := func() ([]*user.User, error) {
		cnt, err := c.inner.Count(ctx, realmID)
		if err != nil {
			return nil, err
		}
		return c.inner.List(ctx, realmID, cnt, 0)
	}
	all, err := loadFullListWithSingleflight(c.cache, ctx, listKey, listKey, countKey, c.ttl, loader)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return []*user.User{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (c *CachingUserRepository) Count(ctx context.Context, realmID uuid.UUID) (int, error) {
	key := "realm:users:" + realmID.String() + ":count"
	if c.cache != nil {
		if v, ok := cacheGet[int](c.cache, ctx, key); ok {
			return *v, nil
		}
		if v, ok := cacheGet[[]*user.User](c.cache, ctx, "realm:users:"+realmID.String()+":all"); ok {
			return len(*v), nil
		}
	}
	cnt, err := c.inner.Count(ctx, realmID)
	if err == nil && c.cache != nil {
		cacheSetSilently(c.cache, ctx, key, cnt, c.ttl)
	}
	return cnt, err
}

// Simple validation to ensure decorators implement interfaces at compile time
var _ ports.RealmRepository = (*CachingRealmRepository)(nil)
var _ ports.UserRepository = (*CachingUserRepository)(nil)

// singleflight group for coalescing cache-miss loads in-process
var sf singleflight.Group
