package erasure

import (
	"errors"
	"log"
	"net/http"

	"ridelink/internal/database"
	"ridelink/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EraseAccount 注销账户并抹除全部数据
// 需要重新输入用户名确认，防止误触
func EraseAccount(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		ConfirmUsername string `json:"confirmUsername" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 校验确认用户名
	var user model.User
	if err := database.GetDB().Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		log.Printf("查询用户失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户失败"})
		return
	}
	if user.Username != req.ConfirmUsername {
		c.JSON(http.StatusBadRequest, gin.H{"error": "确认用户名不匹配"})
		return
	}

	coordinator := NewCoordinator()
	if err := coordinator.Erase(c.Request.Context(), userID.(string)); err != nil {
		log.Printf("抹除用户 %s 失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "账户注销失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
