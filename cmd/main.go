package main

import (
	"fmt"
	"log"

	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/labstack/echo/v4"

	"authcore/internal/caching"
	"authcore/internal/config"
	"authcore/internal/handlers"
	"authcore/internal/jobs/background"
	"authcore/internal/middleware"
	"authcore/internal/repositories"
	"authcore/internal/services"
	"authcore/internal/web"
	"authcore/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)
	codeRepo := repositories.NewAuthorizationCodeRepo(pool)
	tokenRepo := repositories.NewTokenRepo(pool)

	// Create services
	verifier := services.NewCredentialVerifier(userRepo)
	sessions := services.NewSessionGateway(cacheSvc, userRepo, cfg.SessionTTL)
	issuer := services.NewTokenIssuer(codeRepo, tokenRepo, cfg.AuthCodeTTL, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	oauthSvc := services.NewOAuthService(clientRepo, issuer, sessions)
	directory := services.NewDirectoryService(cfg.DirectorySize)

	rateCfg := handlers.RateLimitConfig{Limit: cfg.LoginRateLimit, Window: cfg.LoginRateWindow}

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(verifier, oauthSvc, userRepo, cacheSvc, rateCfg)
	oauthHandlers := handlers.NewOAuthHandlers(oauthSvc, sessions)
	webHandlers := handlers.NewWebHandlers(verifier, sessions, cacheSvc, rateCfg)
	paginationHandlers := handlers.NewPaginationHandlers(directory)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background cleanup of expired codes and tokens
	scheduler, err := background.NewJobScheduler(codeRepo, tokenRepo)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("WARN: failed to stop job scheduler: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	e.Renderer = renderer

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Session-backed pages
	e.GET("/login", webHandlers.ShowLogin)
	e.POST("/login", webHandlers.Login)
	e.POST("/logout", webHandlers.Logout)
	e.GET("/callback", webHandlers.Callback)

	// OAuth authorization-code flow
	e.GET("/oauth/authorize", oauthHandlers.Authorize)
	e.POST("/oauth/authorize", oauthHandlers.Consent)
	e.POST("/oauth/token", oauthHandlers.Token)

	// JSON API
	api := e.Group("/api")
	api.POST("/login", authHandlers.Login)

	protected := api.Group("")
	protected.Use(middleware.TokenAuth(oauthSvc))
	protected.GET("/user", authHandlers.User)
	protected.POST("/logout", authHandlers.Logout)

	// Pagination demo endpoints
	e.GET("/users/offset", paginationHandlers.OffsetUsers)
	e.GET("/users/cursor", paginationHandlers.CursorUsers)

	log.Printf("Authcore server v%s starting on port %d", version, cfg.Port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}
