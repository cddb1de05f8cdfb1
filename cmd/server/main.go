package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/auth"
	"github.com/ignatzorin/freelance-orders/internal/config"
	"github.com/ignatzorin/freelance-orders/internal/db"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/goroutine"
	httpHandlers "github.com/ignatzorin/freelance-orders/internal/http/handlers"
	httpRouter "github.com/ignatzorin/freelance-orders/internal/http/router"
	"github.com/ignatzorin/freelance-orders/internal/infrastructure/notification"
	"github.com/ignatzorin/freelance-orders/internal/infrastructure/persistence"
	"github.com/ignatzorin/freelance-orders/internal/infrastructure/profile"
	"github.com/ignatzorin/freelance-orders/internal/jobs"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/metrics"
	"github.com/ignatzorin/freelance-orders/internal/storage"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
	"github.com/ignatzorin/freelance-orders/internal/usecase/dispute"
	"github.com/ignatzorin/freelance-orders/internal/usecase/order"
	"github.com/ignatzorin/freelance-orders/internal/usecase/proposal"
	"github.com/ignatzorin/freelance-orders/internal/usecase/review"
	"github.com/ignatzorin/freelance-orders/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.IsProduction() {
		logger.Init("info")
	} else {
		logger.Init("debug")
		logger.SetTextFormatter()
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose("postgres", dbConn)

	if err := db.RunMigrations(dbConn); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	appMetrics := metrics.New()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	deliveryStorage, err := storage.NewDeliveryStorage(cfg.DeliveryStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	healthChecks := map[string]httpHandlers.HealthCheck{
		"database": func(ctx context.Context) error { return dbConn.PingContext(ctx) },
	}

	// Справочник пользователей.
	var profiles gateway.ProfileResolver
	if cfg.UserDirectoryURL != "" {
		profiles = profile.NewHTTPResolver(cfg.UserDirectoryURL, cfg.UserDirectoryRPS, cfg.ProfileTimeout)
	} else {
		profiles = profile.NewSQLResolver(dbConn)
	}
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = profile.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к redis: %v", err)
		}
		defer safeClose("redis", redisClient)
		profiles = profile.NewCachedResolver(profiles, redisClient, cfg.ProfileCacheTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, "ws-hub", hub.Run)

	// Уведомления: таблица + пуш в сокет, опционально Kafka.
	sinks := []notification.Named{{Name: "store", Sink: notification.NewStoreSink(dbConn, hub)}}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := notification.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer safeClose("kafka", kafkaSink)
		sinks = append(sinks, notification.Named{Name: "kafka", Sink: kafkaSink})
	}
	notifier := notification.NewAsync(
		notification.NewFanout(appMetrics, sinks...),
		cfg.NotificationTimeout,
		func(n gateway.Notification, err error) {
			logger.Log.WithFields(logrus.Fields{
				"user_id": n.UserID,
				"event":   n.Event,
				"error":   err.Error(),
			}).Warn("уведомление не доставлено")
		},
	)

	deps := common.Deps{
		Store:          persistence.NewStore(dbConn),
		Profiles:       profiles,
		Notifier:       notifier,
		Metrics:        appMetrics,
		ProfileTimeout: cfg.ProfileTimeout,
	}

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Orders: httpHandlers.NewOrderHandler(
			order.NewCreateOrderUseCase(deps),
			order.NewGetOrderUseCase(deps),
			order.NewGetHistoryUseCase(deps),
			order.NewUpdateOrderStatusUseCase(deps),
			order.NewDeliverOrderUseCase(deps),
			order.NewListDeliveriesUseCase(deps),
			order.NewUploadDeliveryFileUseCase(deps, deliveryStorage),
			order.NewCompleteOrderUseCase(deps),
			order.NewCancelOrderUseCase(deps),
			cfg.MaxUploadSizeMB,
		),
		Disputes: httpHandlers.NewDisputeHandler(
			dispute.NewOpenDisputeUseCase(deps),
			dispute.NewGetDisputeUseCase(deps),
			dispute.NewListMessagesUseCase(deps),
			dispute.NewAddMessageUseCase(deps),
			dispute.NewResolveDisputeUseCase(deps),
			dispute.NewCloseDisputeUseCase(deps),
		),
		Reviews: httpHandlers.NewReviewHandler(
			review.NewCreateReviewUseCase(deps),
			review.NewUpdateReviewUseCase(deps),
			review.NewDeleteReviewUseCase(deps),
			review.NewSetVisibilityUseCase(deps),
			review.NewCreateReplyUseCase(deps),
			review.NewUpdateReplyUseCase(deps),
			review.NewDeleteReplyUseCase(deps),
		),
		Proposals: httpHandlers.NewProposalHandler(
			proposal.NewCreateProposalUseCase(deps),
			proposal.NewGetProposalUseCase(deps),
			proposal.NewAcceptProposalUseCase(deps),
			proposal.NewRejectProposalUseCase(deps),
		),
		WS:     httpHandlers.NewWSHandler(hub, tokens, cfg.AllowedOrigins),
		Health: httpHandlers.NewHealthHandler(healthChecks),
	}

	sweep := jobs.NewProposalSweepJob(proposal.NewExpireProposalsUseCase(deps), appMetrics, cfg.ProposalSweepSpec)
	if err := sweep.Start(); err != nil {
		logger.Log.Fatalf("main: не удалось запустить задачу истечения предложений: %v", err)
	}

	engine := httpRouter.SetupRouter(cfg, handlers, httpRouter.Options{
		Tokens:         tokens,
		Observer:       appMetrics,
		MetricsHandler: appMetrics.Handler(),
		DeliveryRoot:   deliveryStorage.Root(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorf("main: сервер завершился с ошибкой: %v", err)
	}

	sweep.Stop()

	// Дожидаемся фоновых отправок уведомлений до закрытия базы и Kafka.
	waitCtx, cancel := context.WithTimeout(context.Background(), cfg.NotificationTimeout+time.Second)
	defer cancel()
	if err := goroutine.Wait(waitCtx); err != nil {
		logger.Log.Warnf("main: не все фоновые задачи завершились: %v", err)
	}
}

// safeClose закрывает ресурс и логирует ошибку.
func safeClose(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Log.WithField("resource", name).Errorf("main: ошибка закрытия: %v", err)
	}
}
