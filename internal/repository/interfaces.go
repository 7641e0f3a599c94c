// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"github.com/pgvector/pgvector-go"

	"github.com/nkatta/compta-ai/internal/model"
)

// KnowledgeRepository 知识库数据访问接口
// 接口定义使 Service 层可以轻松 mock 进行单元测试
type KnowledgeRepository interface {
	Create(entry *model.KnowledgeEntry) error
	GetByID(id string) (*model.KnowledgeEntry, error)

	// 索引操作
	ListPending(limit int, ids []string) ([]*model.KnowledgeEntry, error)
	UpdateEmbedding(id string, vec pgvector.Vector) error
	ClearEmbeddings() (int64, error)

	// 检索操作
	SearchByVector(vec pgvector.Vector, countryCode, subdomain string, threshold float64, limit int) ([]*model.KnowledgeSnippet, error)
	SearchLexical(query, countryCode, subdomain string, limit int) ([]*model.KnowledgeSnippet, error)
}

// ChatLogRepository 对话日志数据访问接口
// 列表查询均以 userID 限定范围，调用者只能看到自己的日志
type ChatLogRepository interface {
	Create(entry *model.ChatLogEntry) error
	ListBySessionID(userID, sessionID string) ([]*model.ChatLogEntry, error)
	ListByUserID(userID string, offset, limit int) ([]*model.ChatLogEntry, error)
}

// ProfileRepository 用户档案数据访问接口
type ProfileRepository interface {
	Create(profile *model.Profile) error
	GetByID(id string) (*model.Profile, error)
	GetByEmail(email string) (*model.Profile, error)
	Update(profile *model.Profile) error
}

// 确保实现满足接口
var (
	_ KnowledgeRepository = (*knowledgeRepositoryImpl)(nil)
	_ ChatLogRepository   = (*chatLogRepositoryImpl)(nil)
	_ ProfileRepository   = (*profileRepositoryImpl)(nil)
)
