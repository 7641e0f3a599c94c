package handler

import (
	"github.com/nkatta/compta-ai/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth      *AuthHandler
	Embedding *EmbeddingHandler
	Chat      *ChatHandler
	Knowledge *KnowledgeHandler
	System    *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(svc),
		Embedding: NewEmbeddingHandler(svc),
		Chat:      NewChatHandler(svc),
		Knowledge: NewKnowledgeHandler(svc),
		System:    NewSystemHandler(svc),
	}
}
