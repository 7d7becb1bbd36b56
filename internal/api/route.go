package api

import (
	"Marketplace/internal/api/config"
	"Marketplace/internal/api/middleware"
	"Marketplace/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, serverCfg config.ServerConfig, logCfg config.LogstashConfig) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware(serverCfg.AllowOrigins))
	logger.SetupGin(r, logCfg)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		userGroup.Use(middleware.AuthMiddleware())
		{
			userGroup.POST("/logout", group.UserHandler.Logout)
		}

		imGroup := apiGroup.Group("/im")
		imGroup.Use(middleware.AuthMiddleware())
		{
			imGroup.GET("/ws", group.WsHandler.Connect)
			imGroup.GET("/unread", group.UnreadHandler.GetUnread)
			imGroup.POST("/read", group.UnreadHandler.MarkAsRead)
			imGroup.POST("/unread/refetch", group.UnreadHandler.Refetch)
			imGroup.GET("/notifications", group.UnreadHandler.ListNotifications)
		}
	}

	return r
}
