package app

import (
	"time"

	"github.com/etherbrian/etherbrian.github.io/internal/middleware"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/content"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/content/item"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/logs"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/spamguard"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/submission"
	pkgredis "github.com/etherbrian/etherbrian.github.io/internal/pkg/redis"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client, registry *spamguard.Registry, repo *item.Repository, logsDir string, archiver *logs.S3Archiver) {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	api := r.Group("/api/v1")

	api.GET("/ping", func(c *gin.Context) {
		response.OK(c, gin.H{
			"pong":      true,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Public form surface: rate limit, then spam screening, then the
	// submission handler.
	public := api.Group("")
	public.Use(middleware.RateLimit(rc))
	public.Use(spamguard.Middleware(registry, defaultProviders(), a.cfg.IsDev(), a.logger))

	admin := api.Group("/admin", authMW)

	submission.NewHandler(a.db, a.logger).RegisterRoutes(public, admin)

	content.NewHandler(repo).RegisterRoutes(api)

	var logArchiver logs.Archiver
	if archiver != nil {
		logArchiver = archiver
	}
	logsSvc := logs.NewService(logsDir, a.logger, logArchiver)
	logs.NewHandler(logsSvc, a.cfg.LogMaxAgeDays).RegisterRoutes(api, authMW)
}

// defaultProviders wires the external verification services a form config
// may name. Unknown provider names fail resolution at request time.
func defaultProviders() map[string]spamguard.Provider {
	return map[string]spamguard.Provider{
		"recaptcha": spamguard.NewHTTPProvider("recaptcha", "https://www.google.com/recaptcha/api/siteverify"),
		"hcaptcha":  spamguard.NewHTTPProvider("hcaptcha", "https://api.hcaptcha.com/siteverify"),
		"turnstile": spamguard.NewHTTPProvider("turnstile", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
	}
}
