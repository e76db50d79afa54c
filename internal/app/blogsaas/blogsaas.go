// Package blogsaas собирает HTTP-приложение биллинга: хранилище, кеш,
// очередь уведомлений, клиент провайдера и маршруты.
package blogsaas

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/ekunemmanuel/blog-saas/internal/cache"
	"github.com/ekunemmanuel/blog-saas/internal/config"
	"github.com/ekunemmanuel/blog-saas/internal/lib/jwt"
	librabbitmq "github.com/ekunemmanuel/blog-saas/internal/lib/rabbitmq"
	"github.com/ekunemmanuel/blog-saas/internal/migrations"
	"github.com/ekunemmanuel/blog-saas/internal/paystack"
	"github.com/ekunemmanuel/blog-saas/internal/rabbitmq"
	authservice "github.com/ekunemmanuel/blog-saas/internal/services/auth"
	billingservice "github.com/ekunemmanuel/blog-saas/internal/services/billing"
	"github.com/ekunemmanuel/blog-saas/internal/storage/repository"

	"github.com/streadway/amqp"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQConnection, 5, 5*time.Second)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, []rabbitmq.QueueConfig{rabbitmq.ReceiptQueue})
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := librabbitmq.NewReceiptPublisher(ch, rabbitmq.Exchange, rabbitmq.ReceiptQueue.RoutingKey)

	providerClient := paystack.NewClient(cfg.Paystack)
	verifier := paystack.NewSignatureVerifier(cfg.Paystack.SecretKey)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.New(db, jwtMaker)
	billingService := billingservice.New(db, providerClient, cacheRedis, publisher, cfg.Plans, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, billingService, authService, verifier)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.ch.Close()
		_ = a.conn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
