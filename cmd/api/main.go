package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/tablebook/reservation-service/internal/api/http"
	"github.com/tablebook/reservation-service/internal/api/http/handlers"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/observability"
	"github.com/tablebook/reservation-service/internal/persistence"
	"github.com/tablebook/reservation-service/internal/ratelimit"
	"github.com/tablebook/reservation-service/internal/repository"
	"github.com/tablebook/reservation-service/internal/service"
	"github.com/tablebook/reservation-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool(), os.DirFS(cfg.Postgres.MigrationsDir), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer func() { _ = rdb.Close() }()

	limiter, err := ratelimit.NewRedisLimiter(rdb.Client(), "ratelimit:", time.Now)
	if err != nil {
		logger.Fatal("failed to init login limiter", zap.Error(err))
	}

	policy, err := auth.ParseResolvePolicy(cfg.Auth.PrincipalPolicy)
	if err != nil {
		logger.Fatal("invalid principal policy", zap.Error(err))
	}

	tokens, err := auth.NewTokenCodec(cfg.Auth.SigningSecret, auth.WithLifetime(cfg.Auth.TokenTTL()))
	if err != nil {
		logger.Fatal("failed to init token codec", zap.Error(err))
	}

	pool := pg.Pool()
	memberRepo := repository.NewMemberRepository(pool)
	storeRepo := repository.NewStoreRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	credentials, err := service.NewCredentialStore(memberRepo, hasher)
	if err != nil {
		logger.Fatal("failed to init credential store", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifier := worker.NewNotificationWorker(service.NewNotificationService(logger), logger, 256)
	notifier.Subscribe(dispatcher, service.NotificationTopics...)
	notifier.Start(ctx)

	memberService := service.NewMemberService(cfg.Auth, service.MemberDependencies{
		Members:     memberRepo,
		Credentials: credentials,
		Hasher:      hasher,
		Tokens:      tokens,
		Limiter:     limiter,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	storeService := service.NewStoreService(storeRepo)
	reservationService := service.NewReservationService(service.ReservationDependencies{
		Reservations: reservationRepo,
		Members:      memberRepo,
		Stores:       storeRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	reviewService := service.NewReviewService(service.ReviewDependencies{
		Reviews:    reviewRepo,
		Members:    memberRepo,
		Stores:     storeRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	publicThrottle := ratelimit.NewClientThrottle(ratelimit.ClientThrottleConfig{
		RequestsPerSecond: cfg.Auth.PublicRPS,
		Burst:             cfg.Auth.PublicBurst,
	})
	go publicThrottle.Run(ctx, time.Minute)

	authenticator := auth.NewAuthenticator(tokens, auth.NewResolver(credentials, policy), logger)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Members:        handlers.NewMembersHandler(memberService),
		Stores:         handlers.NewStoresHandler(storeService),
		Reservations:   handlers.NewReservationsHandler(reservationService),
		Reviews:        handlers.NewReviewsHandler(reviewService),
		Authenticator:  authenticator,
		PublicThrottle: publicThrottle,
	})

	admin := fiber.New(fiber.Config{AppName: cfg.App.Name + "-admin", DisableStartupMessage: true})
	httptransport.RegisterAdminRoutes(admin, handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		map[string]handlers.Pinger{"postgres": pg, "redis": rdb}, metrics))

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	go func() {
		if err := admin.Listen(cfg.App.AdminAddr()); err != nil {
			logger.Fatal("admin listen", zap.Error(err))
		}
	}()
	logger.Info("listening",
		zap.String("addr", cfg.App.Addr()),
		zap.String("admin_addr", cfg.App.AdminAddr()),
		zap.String("principal_policy", cfg.Auth.PrincipalPolicy))

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("api shutdown", zap.Error(err))
	}
	_ = admin.Shutdown()
	cancel()
	<-notifier.Done()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
