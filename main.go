package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookwell/config"
	"bookwell/cron"
	"bookwell/database"
	"bookwell/database/repository"
	"bookwell/handlers"
	"bookwell/routes"
	"bookwell/services/booking"
	"bookwell/services/events"
	"bookwell/services/notification"
	"bookwell/services/payment"
	"bookwell/services/tasks"
	"bookwell/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// repositories.
	provRepo := repository.NewMongoProviderRepo()
	userRepo := repository.NewMongoUserRepository()
	bookRepo := repository.NewMongoBookingRepo()
	catRepo := repository.NewMongoCatalogRepo()
	recRepo := repository.NewMongoRecordRepo()

	// outbox producer.
	queueClient := asynq.NewClient(utils.QueueRedisOpt())
	defer queueClient.Close()
	dispatcher := tasks.NewAsynqDispatcher(queueClient, logger.Named("outbox"))

	cfg := config.AppConfig
	policy := booking.DefaultPolicy()
	policy.LeadTime = cfg.BookingLeadTime
	policy.SlotStep = cfg.SlotStepMinutes
	policy.AutoAssignAfter = cfg.AutoAssignAfter
	policy.AutoRescheduleAfter = cfg.AutoRescheduleAfter
	policy.RescheduleShift = cfg.RescheduleShift
	policy.BatchSize = cfg.RemediationBatch
	policy.Currency = cfg.Currency

	bookingService := &booking.DefaultBookingService{
		Bookings:   bookRepo,
		Providers:  provRepo,
		Catalog:    catRepo,
		Customers:  userRepo,
		Tx:         database.NewMongoTxRunner(),
		Dispatcher: dispatcher,
		Policy:     policy,
		Location:   cfg.Location(),
		Logger:     logger.Named("booking"),
	}

	// outbox consumer.
	notificationService := &notification.DefaultNotificationService{
		Providers: provRepo,
		Customers: userRepo,
		Records:   recRepo,
		Push:      utils.FCMClient,
		Logger:    logger.Named("notification"),
	}
	publisher, err := events.NewRabbitPublisher(cfg.RabbitURL, cfg.EventsExchange)
	if err != nil {
		logger.Fatal("main: failed to connect to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	worker := cron.InitOutboxWorker(utils.QueueRedisOpt(), &cron.OutboxWorker{
		Notifier: notificationService,
		Payments: payment.NewStripeGateway(cfg.Currency, logger.Named("payment")),
		Events:   publisher,
		Bookings: bookingService,
		Logger:   logger.Named("worker"),
	})

	remediator := &cron.Remediator{
		Service:  bookingService,
		Lease:    &cron.RedisLease{Client: utils.GetCacheClient()},
		Interval: cfg.RemediationInterval,
		Logger:   logger.Named("remediation"),
	}
	if err := remediator.Start(); err != nil {
		logger.Fatal("main: failed to start remediation scheduler", zap.Error(err))
	}

	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	utils.StartHealthMonitor(healthCtx, []*redis.Client{utils.GetCacheClient()}, database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	handlerBundle := handlers.NewHandlerBundle(bookingService, cfg.StripeWebhookSecret)
	routes.RegisterRoutes(router, handlerBundle, cfg.MaxRequestsPerMin)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if err := remediator.Stop(); err != nil {
		logger.Warn("main: remediation scheduler did not stop cleanly", zap.Error(err))
	}
	worker.Shutdown()
	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
