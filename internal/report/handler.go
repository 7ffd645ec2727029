package report

import (
	"log"
	"net/http"
	"time"

	"ridelink/internal/database"
	"ridelink/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 举报、问题反馈和法律条款记录都是单次写入，
// 不需要服务层，handler 直接落库

// CreateReport 举报用户
func CreateReport(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		ReportedID string `json:"reported_id" binding:"required"`
		Reason     string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ReportedID == userID.(string) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不能举报自己"})
		return
	}

	report := model.Report{
		ID:         uuid.New().String(),
		ReporterID: userID.(string),
		ReportedID: req.ReportedID,
		Reason:     req.Reason,
		CreatedAt:  time.Now(),
	}
	if err := database.GetDB().Create(&report).Error; err != nil {
		log.Printf("创建举报失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建举报失败"})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// CreateBugReport 提交问题反馈
func CreateBugReport(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bugReport := model.BugReport{
		ID:          uuid.New().String(),
		UserID:      userID.(string),
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := database.GetDB().Create(&bugReport).Error; err != nil {
		log.Printf("创建问题反馈失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建问题反馈失败"})
		return
	}

	c.JSON(http.StatusCreated, bugReport)
}

// CreateLegalAcceptance 记录法律条款同意
func CreateLegalAcceptance(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		Document string `json:"document" binding:"required"` // terms / privacy
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acceptance := model.LegalAcceptance{
		ID:         uuid.New().String(),
		UserID:     userID.(string),
		Document:   req.Document,
		AcceptedAt: time.Now(),
	}
	if err := database.GetDB().Create(&acceptance).Error; err != nil {
		log.Printf("记录条款同意失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "记录条款同意失败"})
		return
	}

	c.JSON(http.StatusCreated, acceptance)
}
