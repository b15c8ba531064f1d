package transport

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahul3002/Time-Travel-Booking/internal/transport/middleware"
)

func InitRoutes(capsuleHandler *CapsuleHandler) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30 * time.Second))

	// API routes
	api := router.Group("/api/v1")
	{
		// Capsule routes
		capsules := api.Group("/capsules")
		{
			capsules.POST("", capsuleHandler.CreateCapsule)
			capsules.GET("/users/:user_id", capsuleHandler.GetUserCapsules)
			capsules.GET("/:id", capsuleHandler.GetCapsule)
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.POST("/batch/run", capsuleHandler.RunDailyBatch)
			admin.GET("/capsules", capsuleHandler.GetAllCapsules)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return router
}
