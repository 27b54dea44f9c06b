package bootstrap

import (
	"context"
	"fmt"
	"time"

	"virtual-doctor-be/internal/config"
	"virtual-doctor-be/internal/controller"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/internal/repository/contract"
	"virtual-doctor-be/internal/repository/implementation"
	"virtual-doctor-be/internal/repository/memory"
	"virtual-doctor-be/internal/service"
	"virtual-doctor-be/internal/websocket"
	"virtual-doctor-be/pkg/database"
	"virtual-doctor-be/pkg/intake"
	"virtual-doctor-be/pkg/keylock"
	"virtual-doctor-be/pkg/llm/factory"
	"virtual-doctor-be/pkg/retry"
	"virtual-doctor-be/pkg/session"

	pktNats "virtual-doctor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	logModule        = "Container"
	turnEventsTopic  = "consultation.turns"
	lockKeyPrefix    = "vdoc:lock:"
	socketLogPath    = "logs/websocket.log"
	redisPingTimeout = 3 * time.Second
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	MessageController controller.IMessageController
	HealthController  controller.IHealthController
	ChatSocket        *websocket.Handler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Session storage
	repo, err := c.newConversationRepository(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	locker := c.newLocker(ctx, cfg)
	store := session.NewStore(repo, locker)

	// 2. LLM + extraction
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.Model(),
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
		GeminiBaseURL: cfg.Ai.GeminiBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info(logModule, "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.Model(),
	})

	policy := retry.Policy{
		MaxAttempts:    cfg.Ai.MaxAttempts,
		Delay:          cfg.Ai.RetryDelay,
		AttemptTimeout: cfg.Ai.AttemptTimeout,
		Retryable:      intake.IsTransient,
	}
	extractor := intake.NewExtractor(llmProvider, policy, sysLogger)

	// 3. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, pubSub.Close)

	var relay service.EventRelay
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(logModule, "Failed to connect to NATS, turn events stay local", map[string]interface{}{"error": err.Error()})
		} else {
			relay = natsPub
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}

	publisherService := service.NewPublisherService(turnEventsTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, turnEventsTopic, relay, sysLogger)

	// 4. Services and controllers
	messageService := service.NewMessageService(store, extractor, publisherService, sysLogger)

	c.MessageController = controller.NewMessageController(messageService)
	c.HealthController = controller.NewHealthController(store)
	c.ChatSocket = websocket.NewHandler(messageService, logger.NewIsolatedLogger(socketLogPath))

	return c, nil
}

func (c *Container) newConversationRepository(ctx context.Context, cfg *config.Config) (contract.ConversationRepository, error) {
	switch cfg.Session.Backend {
	case "memory":
		c.Logger.Info(logModule, "Using in-memory session backend", nil)
		return memory.NewConversationRepository(cfg.Session.CacheTTL), nil
	case "postgres", "":
		db, err := database.NewGormDBFromDSN(ctx, cfg.Database.Connection, database.ConnectOptions{
			Attempts:   cfg.Database.ConnectAttempts,
			RetryDelay: cfg.Database.RetryDelay,
			Verbose:    !cfg.IsProduction(),
		}, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { return closeDB(db) })
		return implementation.NewConversationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Session.Backend)
	}
}

// newLocker always serializes in process; Redis adds cross-instance exclusion
// when it is configured and reachable.
func (c *Container) newLocker(ctx context.Context, cfg *config.Config) keylock.Locker {
	local := keylock.NewLocal()
	if cfg.App.RedisURL == "" {
		return local
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		c.Logger.Warn(logModule, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		c.Logger.Warn(logModule, "Failed to connect to Redis, session locks are process-local", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return local
	}

	c.closers = append(c.closers, rdb.Close)
	return keylock.Chain(local, keylock.NewRedis(rdb, lockKeyPrefix, cfg.Session.LockTTL, c.Logger))
}

// Close releases infrastructure in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn(logModule, "Failed to close resource", map[string]interface{}{"error": err.Error()})
		}
	}
	c.closers = nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
