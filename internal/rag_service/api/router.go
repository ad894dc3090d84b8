package api

import (
	"net/http"

	"palm-rag/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "code": "not_found"})
	})

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/ingest", h.Ingest)

		chat := api.Group("/chat")
		{
			chat.POST("", h.Chat)
			chat.GET("/:session_id/history", h.History)
			chat.DELETE("/:session_id", h.ClearSession)
		}

		documents := api.Group("/documents")
		{
			documents.GET("", h.ListDocuments)
			documents.GET("/:id", h.GetDocument)
			documents.DELETE("/:id", h.DeleteDocument)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.DELETE("/:id", h.DeleteBooking)
		}
	}

	return r
}
