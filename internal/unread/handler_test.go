package unread

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newStreamRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/ws/unread", StreamUnreadCount)
	return r
}

// 缺少 token 和 token 无效同属认证失败，都返回 401
func TestStreamUnreadCountMissingToken(t *testing.T) {
	router := newStreamRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ws/unread", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStreamUnreadCountInvalidToken(t *testing.T) {
	router := newStreamRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ws/unread?token=不是一个有效的token", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
