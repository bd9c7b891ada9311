package service

import (
	"context"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/auth"
	"ai-chat-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserDTO, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Session(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error)
	ChangePassword(ctx context.Context, userId uuid.UUID, req *dto.ChangePasswordRequest) error
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	demo       *auth.DemoStrategy
	password   *auth.PasswordStrategy
	tokens     *auth.TokenCodec
	userCache  *memory.UserCache
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	demo *auth.DemoStrategy,
	password *auth.PasswordStrategy,
	tokens *auth.TokenCodec,
	userCache *memory.UserCache,
	publisher IPublisherService,
	logger logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		demo:       demo,
		password:   password,
		tokens:     tokens,
		userCache:  userCache,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: &hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeUserRegistered,
		OccurredAt: time.Now(),
		Data: map[string]interface{}{
			"user_id": user.Id.String(),
			"email":   user.Email,
		},
	})

	res := toUserDTO(user)
	return &res, nil
}

// Login routes the submission to a credential strategy by shape: the demo
// username selects the demo strategy, everything else goes through the
// password strategy. Every failure surfaces as auth.ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	creds := auth.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}

	var strategy auth.Strategy = s.password
	if s.demo.Matches(creds) {
		strategy = s.demo
	}

	user, err := strategy.Authorize(ctx, creds)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		return nil, err
	}

	s.userCache.Save(user)
	s.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeUserLogin,
		OccurredAt: time.Now(),
		Data: map[string]interface{}{
			"user_id":  user.Id.String(),
			"strategy": strategy.Name(),
		},
	})

	return &dto.LoginResponse{
		Token: token,
		User:  toUserDTO(user),
	}, nil
}

func (s *authService) Session(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error) {
	user, err := s.resolveUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := toUserDTO(user)
	return &res, nil
}

func (s *authService) ChangePassword(ctx context.Context, userId uuid.UUID, req *dto.ChangePasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.HasPassword() {
		// OAuth-only accounts have nothing to verify the old password against.
		return ErrNoPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := uow.UserRepository().UpdatePassword(ctx, userId, hash); err != nil {
		return err
	}

	s.userCache.Invalidate(userId)
	return nil
}

func (s *authService) resolveUser(ctx context.Context, userId uuid.UUID) (*entity.User, error) {
	if user, ok := s.userCache.Get(userId); ok {
		return user, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	s.userCache.Save(user)
	return user, nil
}

func toUserDTO(u *entity.User) dto.UserDTO {
	return dto.UserDTO{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}
