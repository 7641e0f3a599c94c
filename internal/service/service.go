// Package service 组装业务服务与 eino 组件
package service

import (
	"context"
	"log"
	"time"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	einoembedding "github.com/cloudwego/eino/components/embedding"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"

	"github.com/nkatta/compta-ai/internal/config"
	"github.com/nkatta/compta-ai/internal/database"
	"github.com/nkatta/compta-ai/internal/repository"
	"github.com/nkatta/compta-ai/internal/service/auth"
	"github.com/nkatta/compta-ai/internal/service/embedding"
	"github.com/nkatta/compta-ai/internal/service/orchestrator"
	"github.com/nkatta/compta-ai/internal/service/retrieval"
	"github.com/nkatta/compta-ai/internal/service/throttle"
)

// Services 服务集合
type Services struct {
	Auth         *auth.Service
	Throttle     *throttle.Limiter
	Embedding    *embedding.Service
	Retrieval    *retrieval.Service
	Orchestrator *orchestrator.Service

	// 数据库句柄，健康检查探活用；测试环境可为 nil
	DB *database.DB

	// 配置
	Config *config.Config
}

// NewServices 创建所有服务
// eino 组件用简单的 newXxx() 函数直接初始化，不做额外封装
func NewServices(repos *repository.Repositories, db *database.DB, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	chatModel := newChatModel(ctx, cfg)
	embedder := newEmbedder(ctx, cfg)

	embeddingSvc := embedding.NewService(repos.Knowledge, embedder)
	retrievalSvc := retrieval.NewService(repos.Knowledge, embeddingSvc)

	// 限流存储：单实例用进程内存储，多实例部署切换 Redis
	var store throttle.Store = throttle.NewMemoryStore()
	if redisClient != nil {
		store = throttle.NewRedisStore(redisClient)
	}
	limiter := throttle.NewLimiter(store, cfg.Throttle.MaxRequests, cfg.Throttle.Window())

	return &Services{
		Auth:         auth.NewService(repos.Profile, cfg),
		Throttle:     limiter,
		Embedding:    embeddingSvc,
		Retrieval:    retrievalSvc,
		Orchestrator: orchestrator.NewService(repos.ChatLog, retrievalSvc, chatModel, cfg.AI.ChatModel),
		DB:           db,
		Config:       cfg,
	}, nil
}

// newChatModel 创建 ChatModel
// 指向 OpenAI 兼容端点，初始化失败仅告警，对话请求将返回上游错误
func newChatModel(ctx context.Context, cfg *config.Config) einomodel.ToolCallingChatModel {
	modelName := cfg.AI.ChatModel
	if modelName == "" {
		modelName = "llama3.1"
	}

	chatModel, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   modelName,
		Timeout: time.Duration(cfg.AI.Timeout) * time.Second,
	})
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
		return nil
	}
	return chatModel
}

// newEmbedder 创建 Embedding 器
func newEmbedder(ctx context.Context, cfg *config.Config) einoembedding.Embedder {
	modelName := cfg.AI.EmbedModel
	if modelName == "" {
		modelName = "nomic-embed-text"
	}

	embConfig := &openaiembed.EmbeddingConfig{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   modelName,
		Timeout: time.Duration(cfg.AI.Timeout) * time.Second,
	}
	if cfg.AI.Dimensions > 0 {
		embConfig.Dimensions = &cfg.AI.Dimensions
	}

	embedder, err := openaiembed.NewEmbedder(ctx, embConfig)
	if err != nil {
		log.Printf("Warning: failed to create embedder: %v", err)
		return nil
	}
	return embedder
}
