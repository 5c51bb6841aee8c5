package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront-service/internal/handler"
	"storefront-service/internal/invoice"
	mid "storefront-service/internal/middleware"
	"storefront-service/internal/transaction"
	"storefront-service/pkg/cache"
	"storefront-service/pkg/database"
	"storefront-service/pkg/events"
	"storefront-service/pkg/jwtutil"
	"storefront-service/pkg/logger"
	"storefront-service/pkg/tripay"
	"storefront-service/prometheus"
)

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the database on startup")
	return cmd
}

func runServe(skipMigrate bool) error {
	appConfig, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting storefront-service", appConfig.LogFields()...)

	// Gateway credentials are required; fail before accepting traffic
	signer, err := tripay.NewSigner(appConfig.TriPay.MerchantCode, appConfig.TriPay.PrivateKey)
	if err != nil {
		log.Fatal("Invalid TriPay configuration", zap.Error(err))
	}
	gateway, err := tripay.NewClient(tripay.Config{
		BaseURL: appConfig.TriPay.BaseURL,
		APIKey:  appConfig.TriPay.APIKey,
		Timeout: appConfig.TriPay.Timeout,
	}, log.Named("tripay"))
	if err != nil {
		log.Fatal("Invalid TriPay configuration", zap.Error(err))
	}

	jwtutil.Initialize(&appConfig.JWT)

	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	db, err := database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if !skipMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database migrated")
	}

	invoices := invoice.NewWriter(db, log.Named("invoice"))
	opts := []transaction.Option{transaction.WithLogger(log.Named("transaction"))}

	if appConfig.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := cache.ConnectRedis(ctx, appConfig.Redis)
		cancel()
		if err != nil {
			log.Warn("Payment channel cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			opts = append(opts, transaction.WithChannelCache(
				cache.NewChannelCache(redisClient, appConfig.Redis.ChannelCacheTTL, log.Named("cache"))))
			log.Info("Payment channel cache enabled", zap.Duration("ttl", appConfig.Redis.ChannelCacheTTL))
		}
	}

	if len(appConfig.Kafka.Brokers) > 0 {
		producer, err := events.NewProducer(appConfig.Kafka.Brokers, appConfig.Kafka.InvoiceTopic, log.Named("events"))
		if err != nil {
			log.Warn("Invoice events disabled", zap.Error(err))
		} else {
			defer producer.Close()
			opts = append(opts, transaction.WithPublisher(producer))
			log.Info("Invoice events enabled", zap.String("topic", appConfig.Kafka.InvoiceTopic))
		}
	}

	service := transaction.NewService(gateway, signer, invoices, opts...)

	handlers := &handler.Handlers{
		Products:     handler.NewProductHandler(db),
		Categories:   handler.NewCategoryHandler(db),
		Transactions: handler.NewTransactionHandler(service),
		Invoices:     handler.NewInvoiceHandler(invoices),
	}

	var guard echo.MiddlewareFunc
	if appConfig.JWT.Enabled() {
		guard = mid.AuthMiddleware
		log.Info("Catalog write routes require a bearer token")
	} else {
		log.Warn("JWT_SIGNING_KEY not set; catalog write routes are open")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: appConfig.Server.AllowOrigins,
	}))
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(mid.MetricsMiddleware)

	// Routes
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", handler.NewHealthHandler(db).Health)

	handlers.Register(e, guard)
	handlers.Register(e.Group("/api"), guard)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.TriPay.Timeout+5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
