package router

import (
	"time"

	"ridelink/internal/chat"
	"ridelink/internal/erasure"
	"ridelink/internal/middleware"
	"ridelink/internal/notification"
	"ridelink/internal/relationship"
	"ridelink/internal/report"
	"ridelink/internal/ride"
	"ridelink/internal/unread"
	"ridelink/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置所有路由
func SetupRouter() *gin.Engine {
	r := gin.Default()

	// CORS 配置
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// API 路由
	api := r.Group("/api")
	{
		// ----- 无需认证的路由 -----
		api.POST("/register", user.Register)
		api.POST("/login", user.Login)

		// WebSocket路由 - token 通过查询参数传递，不经过JWT中间件
		api.GET("/ws/unread", unread.StreamUnreadCount)

		// ----- 需要认证的路由 -----
		auth := api.Group("/")
		auth.Use(middleware.JWT())
		{
			// ----- 用户相关 -----
			auth.GET("/user/info", user.GetUserInfo)
			auth.GET("/users/search", user.SearchUsers)
			auth.DELETE("/account", erasure.EraseAccount)

			// ----- 联系关系 -----
			auth.GET("/connections/check", relationship.CheckStatus)
			auth.POST("/connections", relationship.CreateRequest)
			auth.PUT("/connections/:id", relationship.RespondRequest)
			auth.GET("/connections", relationship.ListConnections)

			// ----- 会话相关 -----
			auth.GET("/conversations", chat.GetConversations)
			auth.POST("/conversations", chat.CreateConversation)

			// ----- 消息相关 -----
			auth.GET("/messages/:conversationId", chat.GetMessages)
			auth.POST("/messages", chat.SendMessage)
			auth.PUT("/messages/read", chat.MarkRead)

			// ----- 通知相关 -----
			auth.GET("/notifications", notification.GetNotifications)
			auth.PUT("/notifications/:id/read", notification.MarkNotificationRead)

			// ----- 行程相关 -----
			auth.POST("/rides", ride.CreateRide)
			auth.GET("/rides", ride.ListRides)
			auth.DELETE("/rides/:id", ride.DeleteRide)

			// ----- 路线订阅 -----
			auth.POST("/route-watches", ride.CreateRouteWatch)
			auth.GET("/route-watches", ride.ListRouteWatches)
			auth.DELETE("/route-watches/:id", ride.DeleteRouteWatch)

			// ----- 举报与反馈 -----
			auth.POST("/reports", report.CreateReport)
			auth.POST("/bug-reports", report.CreateBugReport)
			auth.POST("/legal-acceptances", report.CreateLegalAcceptance)
		}
	}

	return r
}
