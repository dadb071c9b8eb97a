package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mavon-shop/internal/config"
	"mavon-shop/internal/database"
	"mavon-shop/internal/event"
	"mavon-shop/internal/handler"
	"mavon-shop/internal/metrics"
	"mavon-shop/internal/middleware"
	"mavon-shop/internal/repository"
	"mavon-shop/internal/router"
	"mavon-shop/internal/service"
	"mavon-shop/internal/websocket"
)

const tokenSweepInterval = time.Hour

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	mongoDB, err := database.NewMongo(context.Background(), cfg.MongoURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	redisClient, err := database.NewRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		db.Close()
		_ = mongoDB.Close(context.Background())
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	cartRepo := repository.NewCartRepository(redisClient)
	oauthRepo := repository.NewOAuthRepository(redisClient)
	commentRepo := repository.NewCommentRepository(mongoDB.DB)

	if err := commentRepo.EnsureIndexes(context.Background()); err != nil {
		db.Close()
		_ = mongoDB.Close(context.Background())
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
	}
	slog.Info("stores ready")

	authService, err := service.NewAuthService(userRepo, tokenRepo, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		db.Close()
		_ = mongoDB.Close(context.Background())
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	oauthService := service.NewOAuthService(authService, userRepo, oauthRepo,
		cfg.GithubClientID, cfg.GithubClientSecret, cfg.GithubCallbackURL,
		cfg.FrontendURL, cfg.OAuthStateTTL, cfg.ExchangeCodeTTL)

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	catalogService := service.NewCatalogService(catalogRepo)
	productService := service.NewProductService(productRepo, catalogRepo, cfg.PageLimitDefault, cfg.PageLimitMax)
	cartService := service.NewCartService(cartRepo, productRepo, bus)
	orderService := service.NewOrderService(orderRepo, cartService, bus)
	commentService := service.NewCommentService(commentRepo, productRepo, cfg.PageLimitDefault, cfg.PageLimitMax)
	userService := service.NewUserService(userRepo, tokenRepo)
	reportService := service.NewReportService(orderRepo)

	m := metrics.New()

	appRouter := router.New(cfg, authMiddleware, m, hub, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		OAuth:   handler.NewOAuthHandler(oauthService),
		Product: handler.NewProductHandler(productService),
		Catalog: handler.NewCatalogHandler(catalogService),
		Cart:    handler.NewCartHandler(cartService),
		Order:   handler.NewOrderHandler(orderService),
		Comment: handler.NewCommentHandler(commentService, authService),
		User:    handler.NewUserHandler(userService),
		Report:  handler.NewReportHandler(reportService),
	})

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go sweepExpiredTokens(sweepCtx, tokenRepo)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				sweepCancel()
			},
			func() {
				db.Close()
			},
			func() {
				_ = mongoDB.Close(context.Background())
			},
			func() {
				_ = redisClient.Close()
			},
		},
	}, nil
}

// sweepExpiredTokens prunes refresh tokens past their expiry so rows for
// inactive users do not pile up.
func sweepExpiredTokens(ctx context.Context, tokens *repository.TokenRepository) {
	ticker := time.NewTicker(tokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.CleanExpired(ctx)
			if err != nil {
				slog.Warn("token sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh tokens removed", "count", removed)
			}
		}
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
