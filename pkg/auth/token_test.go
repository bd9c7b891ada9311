package auth

import (
	"testing"
	"time"

	"ai-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	avatar := "https://example.com/a.png"
	user := &entity.User{
		Id:        uuid.New(),
		Email:     "alice@example.com",
		Name:      "Alice",
		AvatarURL: &avatar,
	}

	token, err := codec.Mint(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, user.Id, claims.UserId)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, avatar, claims.Avatar)
}

func TestTokenExpired(t *testing.T) {
	codec := NewTokenCodec("test-secret", -time.Minute)

	token, err := codec.Mint(&entity.User{Id: uuid.New(), Email: "a@b.c", Name: "A"})
	assert.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenCodec("secret-one", time.Hour).Mint(&entity.User{Id: uuid.New(), Email: "a@b.c", Name: "A"})
	assert.NoError(t, err)

	_, err = NewTokenCodec("secret-two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	_, err := codec.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
