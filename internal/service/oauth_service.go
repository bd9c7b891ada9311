package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/auth"
	"ai-chat-be/pkg/auth/stackauth"
	"ai-chat-be/pkg/events"

	"github.com/google/uuid"
)

type IOAuthService interface {
	GetLoginURL() (string, error)
	HandleCallback(ctx context.Context, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	stackAuth  *stackauth.Client
	tokens     *auth.TokenCodec
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	stackAuth *stackauth.Client,
	tokens *auth.TokenCodec,
	publisher IPublisherService,
	logger logger.ILogger,
) IOAuthService {
	return &oauthService{
		uowFactory: uowFactory,
		stackAuth:  stackAuth,
		tokens:     tokens,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *oauthService) GetLoginURL() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)

	return s.stackAuth.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, code string) (*dto.LoginResponse, error) {
	profile, err := s.stackAuth.Authenticate(ctx, code)
	if err != nil {
		s.logger.Error("oauth", "Stack Auth callback failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	if profile.Degraded {
		s.logger.Warn("oauth", "Stack Auth unreachable, proceeding with degraded identity", nil)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: profile.Email})
	if err != nil {
		return nil, err
	}

	if user == nil {
		newUser := &entity.User{
			Id:           uuid.New(),
			Email:        profile.Email,
			Name:         profile.Name,
			PasswordHash: nil,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if profile.Picture != "" {
			newUser.AvatarURL = &profile.Picture
		}

		if err := uow.Begin(ctx); err != nil {
			return nil, err
		}
		if err := uow.UserRepository().Create(ctx, newUser); err != nil {
			uow.Rollback()
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}

		user = newUser
		s.logger.Info("oauth", "Provisioned user from Stack Auth profile", map[string]interface{}{
			"user_id": user.Id.String(),
		})
	} else if profile.Picture != "" && (user.AvatarURL == nil || *user.AvatarURL != profile.Picture) {
		// Keep the avatar in sync with the provider on each login.
		user.AvatarURL = &profile.Picture
		user.UpdatedAt = time.Now()
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, err
		}
	}

	userProvider := &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   "stackauth",
		ProviderUserId: profile.Sub,
		AvatarURL:      profile.Picture,
		CreatedAt:      time.Now(),
	}
	if err := uow.UserRepository().SaveProvider(ctx, userProvider); err != nil {
		return nil, fmt.Errorf("failed to save provider info: %w", err)
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeUserLogin,
		OccurredAt: time.Now(),
		Data: map[string]interface{}{
			"user_id":  user.Id.String(),
			"strategy": "stackauth",
			"degraded": profile.Degraded,
		},
	})

	return &dto.LoginResponse{
		Token: token,
		User:  toUserDTO(user),
	}, nil
}
