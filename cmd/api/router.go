package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feature-voting-backend/internal/shared/middleware"
	"feature-voting-backend/internal/shared/response"
	"feature-voting-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.CORSOrigins),
		middleware.Metrics(c.Metrics),
		middleware.Errors(),
	)

	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Route not found")
	})

	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	requireIdentity := middleware.RequireIdentity(c.Identity, c.UserChecker())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupUserRoutes(v1, c, requireIdentity)
		setupFeatureRoutes(v1, c, requireIdentity)
		setupVoteRoutes(v1, c, requireIdentity)
	}

	return router
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container, requireIdentity gin.HandlerFunc) {
	users := v1.Group("/users")
	{
		users.POST("", c.UserHandler.CreateUser)
		users.GET("", c.UserHandler.ListUsers)
		users.GET("/:id", c.UserHandler.GetUser)
		users.DELETE("/:id", requireIdentity, c.UserHandler.DeleteUser)
	}
}

// ========================================
// FEATURE ROUTES
// ========================================
func setupFeatureRoutes(v1 *gin.RouterGroup, c *container.Container, requireIdentity gin.HandlerFunc) {
	features := v1.Group("/features")
	{
		features.POST("", requireIdentity, c.FeatureHandler.CreateFeature)
		features.GET("", c.FeatureHandler.ListFeatures)
		features.GET("/:id", c.FeatureHandler.GetFeature)
		features.PUT("/:id", c.FeatureHandler.UpdateFeature)
		features.DELETE("/:id", requireIdentity, c.FeatureHandler.DeleteFeature)

		// Votes on a feature
		features.POST("/:id/vote", requireIdentity, c.VoteHandler.CastVote)
		features.DELETE("/:id/vote", requireIdentity, c.VoteHandler.RetractVote)
		features.GET("/:id/votes", c.VoteHandler.ListFeatureVotes)
		features.POST("/:id/recount", requireIdentity, c.VoteHandler.RecountVotes)
	}
}

// ========================================
// VOTE ROUTES
// ========================================
func setupVoteRoutes(v1 *gin.RouterGroup, c *container.Container, requireIdentity gin.HandlerFunc) {
	votes := v1.Group("/votes")
	{
		votes.GET("", c.VoteHandler.ListVotes)
		votes.DELETE("/:id", requireIdentity, c.VoteHandler.RetractVoteByID)
	}
}

// ========================================
// HEALTH CHECK
// ========================================

// healthCheckHandler reports 503 when the database is unreachable.
// Redis is optional, a failed ping only marks the service degraded.
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		httpStatus := http.StatusOK

		dbStatus := "ok"
		if appCtx.Health == nil {
			dbStatus = "disconnected"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else if err := appCtx.Health.HealthCheck(ctx); err != nil {
			dbStatus = "error: " + err.Error()
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}

		redisStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			redisStatus = "error: " + err.Error()
			if httpStatus == http.StatusOK {
				status = "degraded"
			}
		} else if appCtx.Redis == nil {
			redisStatus = "disabled"
		}

		response.Success(c, httpStatus, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	}
}
