package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/etherbrian/etherbrian.github.io/internal/config"
	"github.com/etherbrian/etherbrian.github.io/internal/database"
	"github.com/etherbrian/etherbrian.github.io/internal/middleware"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/content/item"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/logs"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/spamguard"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/jwt"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/nativelog"
	pkgredis "github.com/etherbrian/etherbrian.github.io/internal/pkg/redis"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	logger *zap.Logger
}

// New initializes the application: config → DB → Redis → content → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	jwt.SetSecret(cfg.JWTSecret)

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.RedisURL != "" {
		rc, err = pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("redis_url not configured, form rate limiting disabled")
	}

	registry, err := spamguard.LoadRegistry(cfg.FormsPath)
	if err != nil {
		return nil, fmt.Errorf("forms registry: %w", err)
	}

	repo, err := item.NewRepository(cfg.ContentDir, logger)
	if err != nil {
		return nil, fmt.Errorf("content repository: %w", err)
	}

	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = nativelog.ResolveDir()
	}
	archiver, err := logs.NewS3Archiver(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("log archive: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	app := &App{cfg: cfg, router: router, db: db, logger: logger}
	app.registerRoutes(rc, registry, repo, logsDir, archiver)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }
