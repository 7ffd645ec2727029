package chat

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"ridelink/internal/apperr"

	"github.com/gin-gonic/gin"
)

// CreateConversation 创建或返回与某个用户的会话
func CreateConversation(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		OtherUserID string `json:"otherUserId" binding:"required"`
		RideID      string `json:"rideId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := NewConversationService()
	result, err := service.GetOrCreate(c.Request.Context(), userID.(string), req.OtherUserID, req.RideID)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("创建会话失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建会话失败"})
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// GetConversations 获取用户的所有会话
func GetConversations(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	service := NewConversationService()
	conversations, err := service.ListConversations(c.Request.Context(), userID.(string))
	if err != nil {
		log.Printf("获取会话列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取会话列表失败"})
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// GetMessages 获取会话的消息历史
func GetMessages(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	conversationID := c.Param("conversationId")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "会话ID不能为空"})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 50
	}

	service := NewMessageService()
	messages, err := service.GetMessages(c.Request.Context(), userID.(string), conversationID, limit)
	if err != nil {
		respondChatError(c, err, "获取消息失败")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage 发送消息
func SendMessage(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		ConversationID string `json:"conversation_id" binding:"required"`
		Content        string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := NewMessageService()
	message, err := service.SendMessage(c.Request.Context(), userID.(string), req.ConversationID, req.Content)
	if err != nil {
		respondChatError(c, err, "发送消息失败")
		return
	}

	c.JSON(http.StatusCreated, message)
}

// MarkRead 批量标记已读：按会话或按消息ID列表，两者必须恰好给一个
func MarkRead(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		ConversationID string   `json:"conversation_id"`
		MessageIDs     []string `json:"message_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if (req.ConversationID == "") == (len(req.MessageIDs) == 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id 和 message_ids 必须二选一"})
		return
	}

	service := NewReadService()

	var marked int64
	var err error
	if req.ConversationID != "" {
		marked, err = service.MarkConversationRead(c.Request.Context(), userID.(string), req.ConversationID)
	} else {
		marked, err = service.MarkMessagesRead(c.Request.Context(), userID.(string), req.MessageIDs)
	}
	if err != nil {
		respondChatError(c, err, "标记已读失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"markedAsRead": marked})
}

// respondChatError 把服务层错误映射为HTTP状态码
func respondChatError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
