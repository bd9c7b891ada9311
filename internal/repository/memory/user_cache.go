package memory

import (
	"time"

	"ai-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// UserCache keeps resolved profiles in memory so the session-read path does
// not hit the database on every authenticated request.
type UserCache struct {
	cache *cache.Cache
}

func NewUserCache() *UserCache {
	// 5 minute default TTL, purge sweep every 10 minutes
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &UserCache{
		cache: c,
	}
}

func (r *UserCache) Save(user *entity.User) {
	r.cache.Set(user.Id.String(), user, cache.DefaultExpiration)
}

func (r *UserCache) Get(id uuid.UUID) (*entity.User, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.User), true
	}
	return nil, false
}

func (r *UserCache) Invalidate(id uuid.UUID) {
	r.cache.Delete(id.String())
}
