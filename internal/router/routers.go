package router

import (
	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/internal/handler"
	"github.com/contactdesk/backend/internal/middleware"
	"github.com/contactdesk/backend/pkg/redis"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authHandler    *handler.AuthHandler
	contactHandler *handler.ContactHandler
	healthHandler  *handler.HealthHandler

	jwtMw       *middleware.JWTMiddleware
	redisClient redis.Client
	cfg         *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	contact *handler.ContactHandler,
	health *handler.HealthHandler,
	jwtMw *middleware.JWTMiddleware,
	redisClient redis.Client,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:    auth,
		contactHandler: contact,
		healthHandler:  health,
		jwtMw:          jwtMw,
		redisClient:    redisClient,
		cfg:            cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORS())

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)

		v1 := api.Group("/v1")
		{
			v1.Use(middleware.RateLimit(r.redisClient, r.cfg.RateLimit.Request, r.cfg.RateLimit.Duration))

			r.authRoutes(v1)
			r.contactRoutes(v1)
		}
	}

	return router
}
