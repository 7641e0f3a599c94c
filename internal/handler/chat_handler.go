package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/middleware"
	"github.com/nkatta/compta-ai/internal/model"
	"github.com/nkatta/compta-ai/internal/service"
	"github.com/nkatta/compta-ai/internal/service/orchestrator"
)

// ChatHandler 对话网关处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建对话网关处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Converse 处理对话请求
// stream=true 时以 SSE 逐块转发模型输出，否则阻塞等待完整回复
func (h *ChatHandler) Converse(c *gin.Context) {
	var req orchestrator.ConverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Code: -1, Message: "caller not resolved"})
		return
	}

	if req.Stream {
		h.converseStream(c, caller, &req)
		return
	}

	turn, err := h.svc.Orchestrator.Converse(c.Request.Context(), caller, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, turn)
}

// History 返回调用者的对话日志
// 支持 session_id 过滤与 offset/limit 分页
func (h *ChatHandler) History(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Code: -1, Message: "caller not resolved"})
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.svc.Orchestrator.History(c.Request.Context(), caller, c.Query("session_id"), offset, limit)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"logs": entries})
}

// streamEvent SSE 事件体
type streamEvent struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
	Toolset   string `json:"toolset_version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// converseStream 流式转发模型输出
// 不缓冲整个响应，首块随上游到达即转发；客户端断开时请求上下文取消，
// 上游模型调用随之中止。流式路径不落对话日志
func (h *ChatHandler) converseStream(c *gin.Context, caller *model.CallerInfo, req *orchestrator.ConverseRequest) {
	stream, sessionID, err := h.svc.Orchestrator.ConverseStream(c.Request.Context(), caller, req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	defer stream.Close()

	// 设置 SSE 响应头
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")

	c.SSEvent("", streamEvent{
		Type:      "start",
		SessionID: sessionID,
		Model:     h.svc.Config.AI.ChatModel,
		Toolset:   orchestrator.ToolsetVersion,
	})
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		default:
		}

		chunk, err := stream.Recv()
		if err == io.EOF {
			c.SSEvent("", streamEvent{Type: "end", SessionID: sessionID})
			c.Writer.Flush()
			return
		}
		if err != nil {
			c.SSEvent("", streamEvent{Type: "error", Error: err.Error()})
			c.Writer.Flush()
			return
		}

		if chunk.Content != "" {
			c.SSEvent("", streamEvent{Type: "message", Content: chunk.Content})
			c.Writer.Flush()
		}
	}
}
