package bootstrap

import (
	"context"
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/auth"
	"ai-chat-be/pkg/auth/stackauth"
	"ai-chat-be/pkg/llm/factory"

	pktNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	OAuthController controller.IOAuthController
	ChatController  controller.IChatController
	UserController  controller.IUserController
	DemoController  controller.IDemoController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	userCache := memory.NewUserCache()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Optional JetStream mirror. Audit stays local when NATS is absent.
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
	}

	publisherService := service.NewPublisherService(pubSub, cfg.App.AuditTopicName, natsPub, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.App.AuditTopicName, sysLogger)

	// 3. Auth Primitives
	tokens := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	demoStrategy := auth.NewDemoStrategy(uowFactory, auth.DemoIdentity{
		Username: cfg.Auth.DemoUsername,
		Password: cfg.Auth.DemoPassword,
		Name:     cfg.Auth.DemoName,
		Email:    cfg.Auth.DemoEmail,
	})
	passwordStrategy := auth.NewPasswordStrategy(uowFactory)

	stackAuthClient := stackauth.NewClient(stackauth.Config{
		BaseURL:        cfg.StackAuth.BaseURL,
		ClientID:       cfg.StackAuth.ClientID,
		ClientSecret:   cfg.StackAuth.ClientSecret,
		RedirectURL:    cfg.StackAuth.RedirectURL,
		MaxRetries:     cfg.StackAuth.MaxRetries,
		AttemptTimeout: cfg.StackAuth.AttemptTimeout,
		AllowDegraded:  cfg.StackAuth.AllowDegraded,
	})

	// 4. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OpenAIAPIKey,
		llmBaseURL(cfg),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Services
	authService := service.NewAuthService(uowFactory, demoStrategy, passwordStrategy, tokens, userCache, publisherService, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, stackAuthClient, tokens, publisherService, sysLogger)
	chatService := service.NewChatService(uowFactory, llmProvider, publisherService, sysLogger)
	userService := service.NewUserService(uowFactory, userCache, sysLogger)

	// 6. HTTP Plumbing
	jwtGuard := serverutils.NewJwtMiddleware(tokens)
	demoLimiter := serverutils.NewDemoLimiter(newLimiterStorage(cfg))

	// 7. Controllers
	return &Container{
		AuthController:  controller.NewAuthController(authService, jwtGuard),
		OAuthController: controller.NewOAuthController(oauthService, cfg.App.ClientURL),
		ChatController:  controller.NewChatController(chatService, jwtGuard),
		UserController:  controller.NewUserController(userService, jwtGuard),
		DemoController:  controller.NewDemoController(chatService, demoLimiter),
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.OpenAIBaseURL
}

// newLimiterStorage backs the rate limiter with Redis when one is reachable,
// otherwise the limiter keeps counters in process memory.
func newLimiterStorage(cfg *config.Config) fiber.Storage {
	if cfg.App.RedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Invalid REDIS_URL, using in-memory rate limiting: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("[WARN] Redis unreachable, using in-memory rate limiting: %v", err)
		return nil
	}

	return serverutils.NewRedisStorage(client)
}
