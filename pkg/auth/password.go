package auth

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"golang.org/x/crypto/bcrypt"
)

// PasswordStrategy verifies an email/password pair against the stored bcrypt
// hash.
type PasswordStrategy struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPasswordStrategy(uowFactory unitofwork.RepositoryFactory) *PasswordStrategy {
	return &PasswordStrategy{
		uowFactory: uowFactory,
	}
}

func (s *PasswordStrategy) Name() string {
	return "credentials"
}

func (s *PasswordStrategy) Authorize(ctx context.Context, creds Credentials) (*entity.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: creds.Email})
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		// Unknown address and OAuth-only account look identical here.
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// HashPassword produces the stored form of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
