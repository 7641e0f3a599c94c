package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/service"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// Health 健康检查
// GET /health
// 有数据库句柄时做一次探活，不可用返回 503；测试环境无句柄直接回 ok
func (h *SystemHandler) Health(c *gin.Context) {
	if h.svc.DB != nil {
		if err := h.svc.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.svc.Config.App.Name,
	})
}
