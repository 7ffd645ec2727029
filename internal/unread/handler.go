package unread

import (
	"context"
	"log"
	"net/http"

	"ridelink/internal/feed"
	"ridelink/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Global WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins, should be stricter in production
	},
}

// StreamUnreadCount 通过 WebSocket 推送实时未读数
// 每个连接一个对账器；连接关闭时取消上下文，
// 订阅和定时器随之确定性释放
func StreamUnreadCount(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	userID, err := middleware.ValidateToken(token)
	if err != nil {
		log.Printf("未读数订阅失败 - token无效: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("升级WebSocket连接失败: %v", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 订阅该用户的变更频道，驱动对账器
	events, unsubscribe := feed.SubscribeMessages(ctx, userID)
	defer unsubscribe()

	reconciler := NewReconciler(userID)
	go reconciler.Run(ctx, events)

	// 读循环只为感知客户端断开
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("用户 %s 的未读数订阅已建立", userID)

	for {
		select {
		case <-ctx.Done():
			return
		case count, ok := <-reconciler.Updates():
			if !ok {
				return
			}
			if err := ws.WriteJSON(gin.H{"unread": count}); err != nil {
				log.Printf("推送未读数给用户 %s 失败: %v", userID, err)
				return
			}
		}
	}
}
