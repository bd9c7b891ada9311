package service

import (
	"context"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfileReadThroughCache(t *testing.T) {
	store := testutil.NewStore()
	cache := memory.NewUserCache()
	svc := NewUserService(testutil.NewFactory(store), cache, testutil.NullLogger{})
	ctx := context.Background()

	user := &entity.User{Id: uuid.New(), Email: "alice@example.com", Name: "Alice", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	store.Users[user.Id] = user

	profile, err := svc.GetProfile(ctx, user.Id)
	assert.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)

	// Second read is served by the cache even if the row vanishes.
	delete(store.Users, user.Id)
	profile, err = svc.GetProfile(ctx, user.Id)
	assert.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
}

func TestUpdateProfileInvalidatesCache(t *testing.T) {
	store := testutil.NewStore()
	cache := memory.NewUserCache()
	svc := NewUserService(testutil.NewFactory(store), cache, testutil.NullLogger{})
	ctx := context.Background()

	user := &entity.User{Id: uuid.New(), Email: "alice@example.com", Name: "Alice", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	store.Users[user.Id] = user

	_, err := svc.GetProfile(ctx, user.Id)
	assert.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.Id, &dto.UpdateProfileRequest{
		Name:      "Alice B.",
		AvatarURL: "https://example.com/new.png",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Alice B.", updated.Name)

	// Cache no longer serves the stale name.
	profile, err := svc.GetProfile(ctx, user.Id)
	assert.NoError(t, err)
	assert.Equal(t, "Alice B.", profile.Name)
	assert.NotNil(t, profile.AvatarURL)
	assert.Equal(t, "https://example.com/new.png", *profile.AvatarURL)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	store := testutil.NewStore()
	svc := NewUserService(testutil.NewFactory(store), memory.NewUserCache(), testutil.NullLogger{})

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), &dto.UpdateProfileRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
