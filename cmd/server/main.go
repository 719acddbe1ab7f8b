package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartify/internal/auth"
	"cartify/internal/cart"
	"cartify/internal/config"
	"cartify/internal/db"
	"cartify/internal/events"
	"cartify/internal/logger"
	"cartify/internal/metrics"
	"cartify/internal/middleware"
	"cartify/internal/order"
	"cartify/internal/payment"
	"cartify/internal/preference"
	"cartify/internal/product"
	"cartify/internal/rest"
	"cartify/internal/user"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
	newProducerFunc = events.NewSyncProducer
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var port, envFile string

	cmd := &cobra.Command{
		Use:          "cartify-server",
		Short:        "Run the Cartify marketplace API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), port, envFile)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port, overrides APP_PORT")
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file to load instead of .env")
	return cmd
}

func run(ctx context.Context, port, envFile string) error {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}

	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.AppPort = port
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	conn, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	limiter := middleware.NewRateLimiter(cfg.InternalServiceKey, reg)
	go limiter.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, conn, publisher, reg, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- startServerFunc(srv) }()
	log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newPublisher connects to Kafka when brokers are configured and falls
// back to dropping events otherwise.
func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.L().Info("no kafka brokers configured, order events disabled")
		return events.NewNoopPublisher(), nil
	}

	producer, err := newProducerFunc(cfg.KafkaBrokers)
	if err != nil {
		return nil, err
	}
	return events.NewKafkaPublisher(producer, cfg.KafkaOrderTopic), nil
}

func newServer(
	cfg *config.Config,
	conn *sql.DB,
	publisher events.Publisher,
	reg *metrics.Registry,
	limiter *middleware.RateLimiter,
) http.Handler {
	tokens := auth.NewManager(cfg.JWTSecret, 0)

	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	paymentRepo := payment.NewRepository(conn)
	prefs := preference.NewTracker(conn, preference.NewRepository(), cfg.PreferenceCapacity)

	userSvc := user.NewService(user.NewRepository(conn), tokens)
	productSvc := product.NewService(productRepo, prefs, cfg.ExploreLimit)
	cartSvc := cart.NewService(cartRepo, productRepo)
	orderSvc := order.NewService(
		conn,
		order.NewRepository(conn),
		productRepo,
		cartRepo,
		paymentRepo,
		prefs,
		order.WithPublisher(publisher),
		order.WithMetrics(reg),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	rest.NewHandler(userSvc, orderSvc, cartSvc, productSvc, reg).Register(e)

	// Outermost first: request id, access log, CORS, token, rate limit.
	var h http.Handler = e
	h = limiter.Middleware(h)
	h = middleware.Authenticate(tokens)(h)
	h = middleware.CORS(cfg.CORSOrigin)(h)
	h = logger.LoggingMiddleware(h)
	h = logger.RequestIDMiddleware(h)
	return h
}
