package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// DemoIdentity is the account the demo strategy resolves to. The values are
// injected from config so deployments can rotate or disable the account.
type DemoIdentity struct {
	Username string
	Password string
	Name     string
	Email    string
}

// DemoStrategy accepts a single fixed credential pair and lazily provisions
// the matching account on first login.
type DemoStrategy struct {
	uowFactory unitofwork.RepositoryFactory
	identity   DemoIdentity
}

func NewDemoStrategy(uowFactory unitofwork.RepositoryFactory, identity DemoIdentity) *DemoStrategy {
	return &DemoStrategy{
		uowFactory: uowFactory,
		identity:   identity,
	}
}

func (s *DemoStrategy) Name() string {
	return "demo"
}

// Matches reports whether the submission targets the demo account at all.
// The broker uses it for strategy selection before authorization runs.
func (s *DemoStrategy) Matches(creds Credentials) bool {
	return creds.Username != "" && creds.Username == s.identity.Username
}

func (s *DemoStrategy) Authorize(ctx context.Context, creds Credentials) (*entity.User, error) {
	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(s.identity.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(s.identity.Password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: s.identity.Email})
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &entity.User{
		Id:        uuid.New(),
		Email:     s.identity.Email,
		Name:      s.identity.Name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// Lost a race with a concurrent demo login; the row exists now.
		if existing, findErr := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: s.identity.Email}); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	return user, nil
}
