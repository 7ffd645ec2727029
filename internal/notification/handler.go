package notification

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNotifications 获取通知列表
func GetNotifications(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	service := NewNotificationService()
	notifications, err := service.ListNotifications(c.Request.Context(), userID.(string))
	if err != nil {
		log.Printf("获取通知列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取通知列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

// MarkNotificationRead 标记通知已读
func MarkNotificationRead(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	notificationID := c.Param("id")
	if notificationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "通知ID不能为空"})
		return
	}

	service := NewNotificationService()
	if err := service.MarkRead(c.Request.Context(), userID.(string), notificationID); err != nil {
		log.Printf("标记通知已读失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "标记通知已读失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
