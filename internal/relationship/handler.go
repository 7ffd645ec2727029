package relationship

import (
	"errors"
	"log"
	"net/http"

	"ridelink/internal/apperr"

	"github.com/gin-gonic/gin"
)

// CheckStatus 查询与某个用户的关系状态
func CheckStatus(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	otherID := c.Query("userId")
	if otherID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 userId 参数"})
		return
	}

	service := NewConnectionService()
	result, err := service.CheckStatus(c.Request.Context(), userID.(string), otherID)
	if err != nil {
		log.Printf("查询关系状态失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询关系状态失败"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateRequest 发起联系请求
func CreateRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		AddresseeID string `json:"addressee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := NewConnectionService()
	conn, err := service.CreateRequest(c.Request.Context(), userID.(string), req.AddresseeID)
	if err != nil {
		if ce, ok := apperr.AsConflict(err); ok {
			// 已有记录：返回现有记录，调用方按状态分支
			c.JSON(http.StatusConflict, gin.H{"error": "联系记录已存在", "connection": ce.Existing})
			return
		}
		if errors.Is(err, apperr.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperr.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		log.Printf("创建联系请求失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建联系请求失败"})
		return
	}

	c.JSON(http.StatusCreated, conn)
}

// RespondRequest 回应联系请求（接受）或拉黑对方
func RespondRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	connectionID := c.Param("id")
	var req struct {
		Action string `json:"action" binding:"required"` // accept / block
		UserID string `json:"user_id"`                   // block 时的对方用户
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := NewConnectionService()

	switch req.Action {
	case "accept":
		conn, err := service.Accept(c.Request.Context(), userID.(string), connectionID)
		if err != nil {
			respondServiceError(c, err, "接受请求失败")
			return
		}
		c.JSON(http.StatusOK, conn)

	case "block":
		if req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 user_id 字段"})
			return
		}
		conn, err := service.Block(c.Request.Context(), userID.(string), req.UserID)
		if err != nil {
			respondServiceError(c, err, "拉黑失败")
			return
		}
		c.JSON(http.StatusOK, conn)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的操作"})
	}
}

// ListConnections 列出关系记录
func ListConnections(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	service := NewConnectionService()
	connections, err := service.ListConnections(
		c.Request.Context(), userID.(string), c.Query("status"), c.Query("type"))
	if err != nil {
		log.Printf("获取关系列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取关系列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": connections})
}

// respondServiceError 把服务层错误映射为HTTP状态码
func respondServiceError(c *gin.Context, err error, fallback string) {
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
