// Package orchestrator 组装提示词、挂载工具结构并调用语言模型
package orchestrator

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/nkatta/compta-ai/internal/apperr"
	"github.com/nkatta/compta-ai/internal/model"
	"github.com/nkatta/compta-ai/internal/repository"
	"github.com/nkatta/compta-ai/internal/service/retrieval"
)

// Retriever 检索依赖
// 接口定义使 Service 层可以轻松 mock 进行单元测试
type Retriever interface {
	Retrieve(ctx context.Context, query string, f retrieval.Filters, matchCount int, threshold float64) ([]*model.KnowledgeSnippet, error)
}

// Service 对话编排服务
type Service struct {
	chatLogs  repository.ChatLogRepository
	retriever Retriever
	chatModel einomodel.ToolCallingChatModel
	modelName string
}

// NewService 创建编排服务
func NewService(chatLogs repository.ChatLogRepository, retriever Retriever, chatModel einomodel.ToolCallingChatModel, modelName string) *Service {
	return &Service{
		chatLogs:  chatLogs,
		retriever: retriever,
		chatModel: chatModel,
		modelName: modelName,
	}
}

// Message 调用方传入的对话消息
type Message struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ConverseRequest 对话请求
type ConverseRequest struct {
	Messages    []Message `json:"messages" binding:"required"`
	CountryCode string    `json:"country_code"`
	SessionID   string    `json:"session_id"`
	Stream      bool      `json:"stream"`
}

// AssistantTurn 单轮助手回复
// ToolCalls 非空表示模型请求调用工具而非（或伴随）文本回答，
// 由调用方执行并在后续轮次回传结果
type AssistantTurn struct {
	Message        string             `json:"message"`
	ToolCalls      model.ToolCallList `json:"tool_calls,omitempty"`
	SessionID      string             `json:"session_id"`
	Model          string             `json:"model"`
	ToolsetVersion string             `json:"toolset_version"`
	RAGChunksUsed  int                `json:"rag_chunks_used"`
}

// Converse 执行非流式对话
// 成功时恰好追加两条日志（用户轮 + 助手轮），同一 session_id
func (s *Service) Converse(ctx context.Context, caller *model.CallerInfo, req *ConverseRequest) (*AssistantTurn, error) {
	messages, snippets, userContent, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.generate(ctx, messages)
	if err != nil {
		// 模型失败对本次请求是致命的，不落任何日志
		return nil, apperr.Upstream("model call failed", err)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	toolCalls := extractToolCalls(resp)

	if err := s.chatLogs.Create(&model.ChatLogEntry{
		ID:        uuid.New().String(),
		UserID:    caller.ID,
		SessionID: sessionID,
		Role:      "user",
		Content:   userContent,
		Model:     s.modelName,
	}); err != nil {
		return nil, apperr.Persistence("failed to log user turn", err)
	}

	if err := s.chatLogs.Create(&model.ChatLogEntry{
		ID:        uuid.New().String(),
		UserID:    caller.ID,
		SessionID: sessionID,
		Role:      "assistant",
		Content:   resp.Content,
		ToolCalls: toolCalls,
		Model:     s.modelName,
	}); err != nil {
		return nil, apperr.Persistence("failed to log assistant turn", err)
	}

	return &AssistantTurn{
		Message:        resp.Content,
		ToolCalls:      toolCalls,
		SessionID:      sessionID,
		Model:          s.modelName,
		ToolsetVersion: ToolsetVersion,
		RAGChunksUsed:  len(snippets),
	}, nil
}

// ConverseStream 执行流式对话
// 字节流原样转发给调用方，不落日志（与非流式路径的已知不对称，保持现状）
func (s *Service) ConverseStream(ctx context.Context, caller *model.CallerInfo, req *ConverseRequest) (*schema.StreamReader[*schema.Message], string, error) {
	messages, _, _, err := s.prepare(ctx, req)
	if err != nil {
		return nil, "", err
	}

	if s.chatModel == nil {
		return nil, "", apperr.Upstream("chat model not configured", nil)
	}

	withTools, err := s.chatModel.WithTools(ToolInfos())
	if err != nil {
		return nil, "", apperr.Upstream("failed to bind tools", err)
	}

	stream, err := withTools.Stream(ctx, messages)
	if err != nil {
		return nil, "", apperr.Upstream("model call failed", err)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return stream, sessionID, nil
}

// History 返回调用者的对话日志
// sessionID 非空时限定单个会话，否则按时间倒序分页
func (s *Service) History(ctx context.Context, caller *model.CallerInfo, sessionID string, offset, limit int) ([]*model.ChatLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	var entries []*model.ChatLogEntry
	var err error
	if sessionID != "" {
		entries, err = s.chatLogs.ListBySessionID(caller.ID, sessionID)
	} else {
		entries, err = s.chatLogs.ListByUserID(caller.ID, offset, limit)
	}
	if err != nil {
		return nil, apperr.Persistence("failed to list chat logs", err)
	}
	return entries, nil
}

// prepare 做两条路径共用的前置工作：
// 定位最近一条用户消息作为检索查询，检索知识片段，组装完整消息列表
func (s *Service) prepare(ctx context.Context, req *ConverseRequest) ([]*schema.Message, []*model.KnowledgeSnippet, string, error) {
	if len(req.Messages) == 0 {
		return nil, nil, "", apperr.Invalid("messages must not be empty")
	}

	userContent := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			userContent = req.Messages[i].Content
			break
		}
	}
	if userContent == "" {
		return nil, nil, "", apperr.Invalid("at least one user message is required")
	}

	// 检索失败降级为空上下文：缺少佐证好过整次请求失败
	var snippets []*model.KnowledgeSnippet
	if s.retriever != nil {
		result, err := s.retriever.Retrieve(ctx, userContent, retrieval.Filters{CountryCode: req.CountryCode}, retrieval.DefaultMatchCount, retrieval.DefaultThreshold)
		if err != nil {
			log.Printf("Warning: retrieval failed, continuing without context: %v", err)
		} else {
			snippets = result
		}
	}

	systemPrompt := BuildSystemPrompt(snippets, req.CountryCode)

	messages := make([]*schema.Message, 0, len(req.Messages)+1)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	for _, m := range req.Messages {
		messages = append(messages, &schema.Message{
			Role:    roleToSchema(m.Role),
			Content: m.Content,
		})
	}

	return messages, snippets, userContent, nil
}

// generate 绑定工具并发起单次模型调用
func (s *Service) generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	if s.chatModel == nil {
		return nil, apperr.Upstream("chat model not configured", nil)
	}

	withTools, err := s.chatModel.WithTools(ToolInfos())
	if err != nil {
		return nil, err
	}

	return withTools.Generate(ctx, messages)
}

// extractToolCalls 提取模型的工具调用请求
// 参数 JSON 先经修复再回传，模型偶发产生残缺 JSON
func extractToolCalls(msg *schema.Message) model.ToolCallList {
	if len(msg.ToolCalls) == 0 {
		return nil
	}
	calls := make(model.ToolCallList, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		calls[i] = model.ToolCallRecord{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: repairArguments(tc.Function.Arguments),
		}
	}
	return calls
}

// repairArguments 修复工具调用参数 JSON
// 快速路径：已是有效 JSON 直接返回
func repairArguments(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return "{}"
	}
	if json.Valid([]byte(s)) {
		return s
	}

	out, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return s // 修复失败，返回原值
	}
	return out
}

// roleToSchema 将字符串角色转换为 schema.RoleType
func roleToSchema(role string) schema.RoleType {
	switch role {
	case "system":
		return schema.System
	case "assistant":
		return schema.Assistant
	case "user":
		return schema.User
	default:
		return schema.User
	}
}
