package api

import (
	"alcyxob/runcoach-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	sessions *service.SessionManager,
	archiveService service.ArchiveService,
) {

	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService, sessions, archiveService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.Use(RequestIDMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		// --- Weekly schedule ---
		weekGroup := protected.Group("/weeks")
		{
			// GET /api/v1/weeks/current
			weekGroup.GET("/current", planHandler.GetCurrentWeek)
			// GET /api/v1/weeks/{weekKey}
			weekGroup.GET("/:weekKey", planHandler.GetWeek)
			// POST/DELETE /api/v1/weeks/{weekKey}/watch - week view attach/detach
			weekGroup.POST("/:weekKey/watch", planHandler.WatchWeek)
			weekGroup.DELETE("/:weekKey/watch", planHandler.UnwatchWeek)
			// POST /api/v1/weeks/{weekKey}/postpone
			weekGroup.POST("/:weekKey/postpone", planHandler.PostponeDay)
			// POST /api/v1/weeks/{weekKey}/sync
			weekGroup.POST("/:weekKey/sync", planHandler.SyncActivities)
		}

		// --- Activity ratings ---
		// POST /api/v1/activities/{activityId}/rating
		protected.POST("/activities/:activityId/rating", planHandler.RateActivity)

		// --- Archived weeks ---
		// GET /api/v1/archive/{weekKey}/url
		protected.GET("/archive/:weekKey/url", planHandler.ArchiveDownloadURL)
	}
}
