package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/service"
	"github.com/nkatta/compta-ai/internal/service/retrieval"
)

// EmbeddingHandler 嵌入网关处理器
type EmbeddingHandler struct {
	svc *service.Services
}

// NewEmbeddingHandler 创建嵌入网关处理器
func NewEmbeddingHandler(svc *service.Services) *EmbeddingHandler {
	return &EmbeddingHandler{svc: svc}
}

// EmbeddingRequest 嵌入网关请求
// action 仅在传输边界分发，内部是四个独立的类型化操作
type EmbeddingRequest struct {
	Action       string   `json:"action" binding:"required"`
	Texts        []string `json:"texts"`
	Query        string   `json:"query"`
	KnowledgeIDs []string `json:"knowledge_ids"`
	Limit        int      `json:"limit"`
	MatchCount   int      `json:"match_count"`
	Domain       string   `json:"domain"`
	CountryCode  string   `json:"country_code"`
	Threshold    *float64 `json:"threshold"` // 指针区分缺省与显式 0
}

// Dispatch 按 action 分发到类型化操作
func (h *EmbeddingHandler) Dispatch(c *gin.Context) {
	var req EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	switch req.Action {
	case "embed":
		h.embed(c, &req)
	case "index":
		h.index(c, &req)
	case "reindex":
		h.reindex(c)
	case "search":
		h.search(c, &req)
	default:
		badRequest(c, "unknown action: "+req.Action)
	}
}

// embed 批量向量化
func (h *EmbeddingHandler) embed(c *gin.Context, req *EmbeddingRequest) {
	if len(req.Texts) == 0 {
		badRequest(c, "texts must not be empty")
		return
	}

	vectors, err := h.svc.Embedding.Embed(c.Request.Context(), req.Texts)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"embeddings": vectors})
}

// index 为未索引条目生成向量
func (h *EmbeddingHandler) index(c *gin.Context, req *EmbeddingRequest) {
	result, err := h.svc.Embedding.IndexPending(c.Request.Context(), req.Limit, req.KnowledgeIDs)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, result)
}

// reindex 清空全部向量
func (h *EmbeddingHandler) reindex(c *gin.Context) {
	cleared, err := h.svc.Embedding.ReindexAll(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"cleared": cleared})
}

// search 相似度检索
func (h *EmbeddingHandler) search(c *gin.Context, req *EmbeddingRequest) {
	if req.Query == "" {
		badRequest(c, "query must not be empty")
		return
	}

	threshold := retrieval.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	snippets, err := h.svc.Retrieval.Retrieve(c.Request.Context(), req.Query, retrieval.Filters{
		CountryCode: req.CountryCode,
		Domain:      req.Domain,
	}, req.MatchCount, threshold)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"results": snippets})
}
