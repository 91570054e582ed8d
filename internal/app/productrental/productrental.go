package productrental

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"product-rental/internal/cache"
	"product-rental/internal/config"
	"product-rental/internal/lib/jwt"
	"product-rental/internal/lib/rabbitmq"
	"product-rental/internal/lib/sl"
	"product-rental/internal/migrations"
	authservice "product-rental/internal/services/auth"
	ledgerservice "product-rental/internal/services/ledger"
	tradeservice "product-rental/internal/services/trade"
	"product-rental/internal/storage"
)

// App собирает все зависимости сервиса и владеет HTTP-сервером.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	rabbit *amqp.Connection
}

// New инициализирует хранилище, миграции, кеш, брокер сообщений,
// сервисы и маршруты. Пустой адрес RabbitMQ отключает публикацию событий.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var rabbitConn *amqp.Connection
	var eventsCh *amqp.Channel
	if cfg.AddressRabbit != "" {
		rabbitConn, err = rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		eventsCh, err = rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetTransactionQueues())
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("rabbitmq address is empty, transaction events are disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker)
	ledgerService := ledgerservice.NewLedgerService(db, logger)
	tradeService := tradeservice.NewTradeService(db.DB, db, ledgerService, cacheRedis, eventsCh, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, ledgerService, tradeService)

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
		rabbit: rabbitConn,
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
		if a.rabbit != nil {
			if cerr := a.rabbit.Close(); cerr != nil {
				a.logger.Error("failed to close rabbitmq connection", sl.Err(cerr))
			}
		}
		a.db.DB.Close()
		return err
	}
}
