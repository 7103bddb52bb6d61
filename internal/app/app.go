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

	"github.com/char-projects/PokeAPI/internal/config"
	"github.com/char-projects/PokeAPI/internal/database"
	"github.com/char-projects/PokeAPI/internal/handler"
	"github.com/char-projects/PokeAPI/internal/middleware"
	"github.com/char-projects/PokeAPI/internal/oauth"
	"github.com/char-projects/PokeAPI/internal/repository"
	"github.com/char-projects/PokeAPI/internal/router"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/internal/storage"
	"github.com/char-projects/PokeAPI/internal/token"
)

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

	if cfg.OAuthClientID != "" && cfg.OAuthClientSecret == "" {
		slog.Warn("OAUTH_CLIENT_ID is set but OAUTH_CLIENT_SECRET is missing; token exchange may fail for providers that require a client secret")
	}

	images, err := storage.New(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
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

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	creatureRepo := repository.NewCreatureRepository(pool)
	slog.Info("database ready")

	codec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	authService := service.NewAuthService(userRepo, codec, cfg.DemoPassword)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService, cfg.JWTTTL, cfg.FrontendOrigin)

	oauthClient := oauth.NewClient(cfg.OAuthClientID, cfg.OAuthClientSecret,
		cfg.OAuthTokenURL, cfg.OAuthUserinfoURL, cfg.ProviderTimeout)
	oauthService := service.NewOAuthService(oauthClient, authService,
		cfg.OAuthAuthorizeURL, cfg.OAuthClientID, cfg.OAuthScope,
		cfg.OAuthCallbackURL, cfg.FrontendOrigin)
	oauthHandler := handler.NewOAuthHandler(oauthService, cfg.JWTTTL)

	creatureService := service.NewCreatureService(creatureRepo, images)
	creatureHandler := handler.NewCreatureHandler(creatureService)

	generateService := service.NewGenerateService(cfg.SDAPIURL, cfg.SDAPIKey, cfg.GenerateTimeout)
	generateHandler := handler.NewGenerateHandler(generateService)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:        authHandler,
		OAuth:       oauthHandler,
		Creature:    creatureHandler,
		Generate:    generateHandler,
		HealthCheck: db.Health,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				db.Close()
			},
		},
	}, nil
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

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
