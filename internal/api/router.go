package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stockroom/inventory-api/internal/api/handler"
	"github.com/stockroom/inventory-api/internal/api/middleware"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/service"
	mongoinfra "github.com/stockroom/inventory-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/stockroom/inventory-api/internal/infrastructure/db/redis"
	"github.com/stockroom/inventory-api/internal/infrastructure/http/handlers"
	"github.com/stockroom/inventory-api/internal/pkg/config"
	"github.com/stockroom/inventory-api/internal/pkg/hasher"
	"github.com/stockroom/inventory-api/internal/token"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("inventory"))

	// --- Dependencies ---
	codec, err := token.NewCodec(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret)
	if err != nil {
		return nil, err
	}
	userRepo := mongoinfra.NewUserRepository(db)
	grantRepo := mongoinfra.NewPermissionRepository(db)
	ledger := mongoinfra.NewRefreshTokenRepository(db)
	throttle := redisinfra.NewLoginThrottle(rdb)
	bcryptHasher := hasher.NewBcrypt(cfg.Auth.BcryptCost)

	authService := service.NewAuthService(
		userRepo, grantRepo, ledger, throttle,
		codec, bcryptHasher,
		cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL,
		log,
	)
	authHandler := handler.NewAuthHandler(authService, cfg.Auth.RefreshTTL, cfg.Production())
	authMiddleware := middleware.Auth(codec)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.GET("/auth/me", authHandler.Me, authMiddleware)

	// --- Admin routes (grant management) ---
	grantHandler := handler.NewGrantHandler(userRepo, grantRepo)
	admin := e.Group("/admin", authMiddleware, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users/:id/permissions", grantHandler.List)
	admin.PUT("/users/:id/permissions", grantHandler.Replace)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e, nil
}
