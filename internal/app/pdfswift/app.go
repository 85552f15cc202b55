// Package pdfswift собирает основной HTTP-сервис: хранилище, миграции,
// кеш, брокер сообщений, клиент платёжного провайдера, бизнес-сервисы
// и маршруты.
package pdfswift

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/jarrod640-svg/pdfswift/internal/billingprovider"
	"github.com/jarrod640-svg/pdfswift/internal/cache"
	"github.com/jarrod640-svg/pdfswift/internal/config"
	"github.com/jarrod640-svg/pdfswift/internal/entitlement"
	"github.com/jarrod640-svg/pdfswift/internal/lib/jwt"
	"github.com/jarrod640-svg/pdfswift/internal/migrations"
	"github.com/jarrod640-svg/pdfswift/internal/rabbitmq"
	authservice "github.com/jarrod640-svg/pdfswift/internal/services/auth"
	billingservice "github.com/jarrod640-svg/pdfswift/internal/services/billing"
	meteringservice "github.com/jarrod640-svg/pdfswift/internal/services/metering"
	"github.com/jarrod640-svg/pdfswift/internal/storage/repository"
)

// App основной HTTP-сервис.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение из конфигурации.
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

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.ConnectRetries, cfg.RabbitMQ.ConnectDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ReceiptQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	providerClient := billingprovider.NewClient(cfg.Billing.APIKey, cfg.Billing.APIURL)

	limits := entitlement.Limits{
		FreeDailyLimit:    cfg.Limits.FreeDailyLimit,
		FreeMaxFileMB:     cfg.Limits.FreeMaxFileMB,
		ProMaxFileMB:      cfg.Limits.ProMaxFileMB,
		BusinessMaxFileMB: cfg.Limits.BusinessMaxFileMB,
	}

	authService := authservice.NewAuthService(db, jwtMaker)
	meteringService := meteringservice.NewMeteringService(db, cacheRedis, limits, logger)
	billingService := billingservice.NewBillingService(
		db, providerClient, cacheRedis, rabbitmq.NewReceiptPublisher(ch), cfg.Billing, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, authService, meteringService, billingService, cfg.Billing.WebhookSecret)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
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
		if chErr := a.ch.Close(); chErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", chErr))
		}
		if connErr := a.conn.Close(); connErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", connErr))
		}
		a.db.DB.Close()
		return err
	}
}
