package ride

import (
	"errors"
	"log"
	"net/http"
	"time"

	"ridelink/internal/apperr"

	"github.com/gin-gonic/gin"
)

// CreateRide 发布行程
func CreateRide(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		Origin        string    `json:"origin" binding:"required"`
		Destination   string    `json:"destination" binding:"required"`
		DepartureTime time.Time `json:"departure_time" binding:"required"`
		Seats         int       `json:"seats"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := NewRideService()
	ride, err := service.CreateRide(c.Request.Context(), userID.(string),
		req.Origin, req.Destination, req.DepartureTime, req.Seats)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("发布行程失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "发布行程失败"})
		return
	}

	c.JSON(http.StatusCreated, ride)
}

// ListRides 查询行程
func ListRides(c *gin.Context) {
	service := NewRideService()
	rides, err := service.ListRides(c.Request.Context(), c.Query("origin"), c.Query("destination"))
	if err != nil {
		log.Printf("查询行程失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询行程失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rides})
}

// DeleteRide 删除行程
func DeleteRide(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	service := NewRideService()
	err := service.DeleteRide(c.Request.Context(), userID.(string), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "行程不存在"})
		case errors.Is(err, apperr.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			log.Printf("删除行程失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "删除行程失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateRouteWatch 订阅路线
func CreateRouteWatch(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	var req struct {
		Origin      string `json:"origin" binding:"required"`
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := NewRideService()
	watch, err := service.CreateRouteWatch(c.Request.Context(), userID.(string), req.Origin, req.Destination)
	if err != nil {
		log.Printf("订阅路线失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "订阅路线失败"})
		return
	}

	c.JSON(http.StatusCreated, watch)
}

// ListRouteWatches 获取路线订阅列表
func ListRouteWatches(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	service := NewRideService()
	watches, err := service.ListRouteWatches(c.Request.Context(), userID.(string))
	if err != nil {
		log.Printf("获取路线订阅失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取路线订阅失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": watches})
}

// DeleteRouteWatch 取消路线订阅
func DeleteRouteWatch(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	service := NewRideService()
	if err := service.DeleteRouteWatch(c.Request.Context(), userID.(string), c.Param("id")); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "订阅不存在"})
			return
		}
		log.Printf("取消路线订阅失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "取消路线订阅失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
