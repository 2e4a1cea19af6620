package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/launchbase/accounts-api/internal/api/handler"
	"github.com/launchbase/accounts-api/internal/api/middleware"
	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/service"
	"github.com/launchbase/accounts-api/internal/core/token"
	"github.com/launchbase/accounts-api/internal/infrastructure/config"
	mongostore "github.com/launchbase/accounts-api/internal/infrastructure/db/mongo"
	redisstore "github.com/launchbase/accounts-api/internal/infrastructure/db/redis"
	"github.com/launchbase/accounts-api/internal/infrastructure/oauth"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// Every dependency is constructed here once and passed down; nothing reads
// ambient global state.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	tokens := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(userRepo, tokens)
	federation := service.NewFederationService(userRepo)
	states := redisstore.NewStateStore(rdb)
	registry := oauth.NewRegistry(oauth.Config{
		BaseURL:            cfg.BaseURL,
		GoogleClientID:     cfg.OAuth.GoogleClientID,
		GoogleClientSecret: cfg.OAuth.GoogleClientSecret,
		GitHubClientID:     cfg.OAuth.GitHubClientID,
		GitHubClientSecret: cfg.OAuth.GitHubClientSecret,
	})

	authHandler := handler.NewAuthHandler(authService, tokens.TTL(), cfg.IsProduction())
	oauthHandler := handler.NewOAuthHandler(registry, federation, tokens, states, cfg.IsProduction(), log)
	userHandler := handler.NewUserHandler(authService)
	gate := middleware.Auth(tokens, userRepo)

	// --- Auth routes ---
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)
	e.GET("/logout", authHandler.LogoutRedirect)

	// --- OAuth routes ---
	e.GET("/oauth/:provider", oauthHandler.Begin)
	e.GET("/oauth/:provider/callback", oauthHandler.Callback)

	// --- Session-gated routes ---
	e.GET("/me", userHandler.Me, gate)
	e.PUT("/update", userHandler.Update, gate)
	e.GET("/admin/users", userHandler.ListUsers, gate, middleware.RequireRole(domain.RoleAdmin))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
