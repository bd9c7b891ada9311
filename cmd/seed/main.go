package main

import (
	"context"
	"log"
	"os"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/auth"
	"ai-chat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Seeds the demo account so it exists before the first demo login. The demo
// strategy also provisions lazily; running this just makes the account
// available to tooling and fixtures up front.
func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	uow := uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: cfg.Auth.DemoEmail})
	if err != nil {
		log.Fatalf("Error: Failed to query demo user: %v", err)
	}
	if existing != nil {
		color.Yellow("Demo user already exists (%s), nothing to do", cfg.Auth.DemoEmail)
		return
	}

	// The demo account carries a hash too, so the password strategy can also
	// verify it when the client submits it as email/password.
	hash, err := auth.HashPassword(cfg.Auth.DemoPassword)
	if err != nil {
		log.Fatalf("Error: Failed to hash demo password: %v", err)
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        cfg.Auth.DemoEmail,
		Name:         cfg.Auth.DemoName,
		PasswordHash: &hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		log.Fatalf("Error: Failed to create demo user: %v", err)
	}

	color.Green("Success: Demo user seeded (%s)", cfg.Auth.DemoEmail)
}
