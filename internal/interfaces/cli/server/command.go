package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	appaccess "github.com/lattice-saas/lattice/internal/application/access"
	"github.com/lattice-saas/lattice/internal/application/tenant"
	"github.com/lattice-saas/lattice/internal/domain/access"
	"github.com/lattice-saas/lattice/internal/infrastructure/audit"
	"github.com/lattice-saas/lattice/internal/infrastructure/auth"
	"github.com/lattice-saas/lattice/internal/infrastructure/authz"
	"github.com/lattice-saas/lattice/internal/infrastructure/cache"
	"github.com/lattice-saas/lattice/internal/infrastructure/config"
	"github.com/lattice-saas/lattice/internal/infrastructure/database"
	"github.com/lattice-saas/lattice/internal/infrastructure/redisclient"
	httpRouter "github.com/lattice-saas/lattice/internal/interfaces/http"
	accesshandler "github.com/lattice-saas/lattice/internal/interfaces/http/handlers/access"
	"github.com/lattice-saas/lattice/internal/interfaces/http/handlers/tenantctx"
	"github.com/lattice-saas/lattice/internal/interfaces/http/middleware"
	"github.com/lattice-saas/lattice/internal/shared/logger"
	"github.com/lattice-saas/lattice/internal/shared/version"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env, "version", version.Version)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	oracle, err := buildOracle(cfg, log)
	if err != nil {
		return err
	}

	decisionCache, err := buildCache(cfg, log)
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(database.Get(), &cfg.Audit, log)
	recorder.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.Stop(stopCtx); err != nil {
			log.Errorw("failed to stop audit recorder", "error", err)
		}
	}()

	resolver := appaccess.NewService(decisionCache, oracle, recorder, log, appaccess.Options{
		TTL:           time.Duration(cfg.Access.CacheTTLSeconds) * time.Second,
		SuperAdminTTL: time.Duration(cfg.Access.SuperAdminTTLSeconds) * time.Second,
		CheckTimeout:  time.Duration(cfg.Access.CheckTimeoutMS) * time.Millisecond,
	})

	registry := tenant.NewRegistry(oracle, log)

	jwtService := auth.NewJWTService(&cfg.Auth)
	authMW := middleware.NewAuthMiddleware(jwtService, log)
	permMW := middleware.NewPermissionMiddleware(resolver, registry, log)

	router := httpRouter.NewRouter(
		accesshandler.NewHandler(resolver, registry, log),
		tenantctx.NewHandler(registry, log),
		authMW,
		permMW,
		log,
	)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Info("server exited gracefully")
	return nil
}

func buildOracle(cfg *config.Config, log logger.Interface) (access.Authorizer, error) {
	switch cfg.Access.Oracle {
	case "casbin":
		oracle, err := authz.NewCasbinAuthorizer(database.Get(), cfg.Access.CasbinModelPath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin oracle: %w", err)
		}
		return oracle, nil
	case "rpc", "":
		return authz.NewRPCAuthorizer(database.Get(), log), nil
	default:
		return nil, fmt.Errorf("unknown access oracle %q", cfg.Access.Oracle)
	}
}

func buildCache(cfg *config.Config, log logger.Interface) (access.DecisionCache, error) {
	ttl := time.Duration(cfg.Access.CacheTTLSeconds) * time.Second
	switch cfg.Access.CacheDriver {
	case "redis":
		client, err := redisclient.New(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(client, log), nil
	case "bitset":
		return cache.NewBitsetStore(cfg.Access.CacheSize), nil
	case "memory", "":
		return cache.NewMemoryStore(cfg.Access.CacheSize, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Access.CacheDriver)
	}
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
