package application

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/psds-microservice/support-chat/internal/assignment"
	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/psds-microservice/support-chat/internal/database"
	"github.com/psds-microservice/support-chat/internal/dialogue"
	"github.com/psds-microservice/support-chat/internal/directory"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/handler"
	"github.com/psds-microservice/support-chat/internal/intent"
	"github.com/psds-microservice/support-chat/internal/kafka"
	"github.com/psds-microservice/support-chat/internal/router"
	"github.com/psds-microservice/support-chat/internal/service"
	"github.com/psds-microservice/support-chat/internal/sessionstore"
)

// Core is the dialogue stack shared by the api and chat commands.
type Core struct {
	Service *service.ChatService
	Store   sessionstore.Store
	events  *kafka.Producer
}

// NewCore validates cfg and wires directory, session store, assignment engine,
// state machine and event producer.
func NewCore(cfg *config.Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	dir, err := directory.Load(cfg.DirectoryFile)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	engine := assignment.NewEngine(dir, assignment.NewNumbers(store))
	machine := dialogue.NewMachine(intent.New(dir.Products(), cfg.AssistantName), dir, engine, cfg.AssistantName)
	events := kafka.NewProducer(kafka.ParseBrokers(cfg.Kafka.Brokers), cfg.Kafka.TopicTicket)
	svc := service.NewChatService(machine, dir, store, events, cfg.TypingDelay).WithIdleTimeout(cfg.SessionIdleTimeout)
	return &Core{
		Service: svc,
		Store:   store,
		events:  events,
	}, nil
}

func (c *Core) Close() error {
	if err := c.events.Close(); err != nil {
		slog.Warn("kafka: close producer", "error", err)
	}
	return c.Store.Close()
}

// OpenStore builds the session store named by SESSION_STORE. The postgres
// backend applies migrations first.
func OpenStore(cfg *config.Config) (sessionstore.Store, error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		return sessionstore.NewMemoryStore(cfg.SessionKeyPrefix), nil
	case config.StorePostgres:
		if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		db, err := database.Open(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return sessionstore.NewPostgresStore(db, cfg.SessionKeyPrefix), nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store, err := sessionstore.NewRedisStore(client, cfg.SessionKeyPrefix, cfg.SessionTTL)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: %q", errs.ErrUnknownStore, cfg.SessionStore)
}

// API is the HTTP application (api mode).
type API struct {
	cfg     *config.Config
	core    *Core
	httpSrv *http.Server
}

func NewAPI(cfg *config.Config) (*API, error) {
	core, err := NewCore(cfg)
	if err != nil {
		return nil, err
	}
	chat := handler.NewChatHandler(core.Service, cfg.UploadDir)
	health := handler.NewHealthHandler(map[string]handler.Pinger{"session_store": core.Store})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(chat, health),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Replies wait for the typing delay.
		WriteTimeout: 30*time.Second + cfg.TypingDelay,
		IdleTimeout:  60 * time.Second,
	}
	return &API{cfg: cfg, core: core, httpSrv: httpSrv}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *API) Run(ctx context.Context) error {
	defer func() {
		if err := a.core.Close(); err != nil {
			slog.Warn("sessionstore: close", "error", err)
		}
	}()

	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Swagger spec:  %s/swagger/openapi.json", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  API v1:        %s/api/v1/", base)
	log.Printf("  Session store: %s", a.cfg.SessionStore)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
