package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/model"
	"github.com/nkatta/compta-ai/internal/service"
)

// KnowledgeHandler 知识库条目处理器
type KnowledgeHandler struct {
	svc *service.Services
}

// NewKnowledgeHandler 创建知识库处理器
func NewKnowledgeHandler(svc *service.Services) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

// CreateEntryRequest 创建知识条目请求
type CreateEntryRequest struct {
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	Subdomain   string `json:"subdomain"`
	CountryCode string `json:"country_code"`
}

// Create 创建知识条目
// 条目先落库，向量索引由后续 index 操作补齐
func (h *KnowledgeHandler) Create(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry := &model.KnowledgeEntry{
		Title:       req.Title,
		Content:     req.Content,
		Subdomain:   req.Subdomain,
		CountryCode: req.CountryCode,
	}
	if err := h.svc.Embedding.CreateEntry(c.Request.Context(), entry); err != nil {
		errorResponse(c, err)
		return
	}

	created(c, entry)
}

// Get 按 ID 获取知识条目
func (h *KnowledgeHandler) Get(c *gin.Context) {
	entry, err := h.svc.Embedding.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, entry)
}
