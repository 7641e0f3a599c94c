// Package retrieval 提供知识库相似度检索
package retrieval

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/nkatta/compta-ai/internal/apperr"
	"github.com/nkatta/compta-ai/internal/model"
	"github.com/nkatta/compta-ai/internal/repository"
	"github.com/nkatta/compta-ai/internal/service/embedding"
)

// 默认返回条数与相似度阈值
const (
	DefaultMatchCount = 5
	DefaultThreshold  = 0.5
)

// Filters 检索范围过滤
// 知识库跨工作区共享，过滤仅按国别与子领域
type Filters struct {
	CountryCode string
	Domain      string
}

// Service 知识检索服务
type Service struct {
	repo      repository.KnowledgeRepository // 使用接口便于测试
	embedding *embedding.Service
}

// NewService 创建检索服务
func NewService(repo repository.KnowledgeRepository, embeddingSvc *embedding.Service) *Service {
	return &Service{repo: repo, embedding: embeddingSvc}
}

// Retrieve 按查询返回最相关的知识片段
// 向量检索零命中时（向量未填充或语义确实无匹配）退化为全文检索，
// 宁可返回词法命中也不静默省略上下文
func (s *Service) Retrieve(ctx context.Context, query string, f Filters, matchCount int, threshold float64) ([]*model.KnowledgeSnippet, error) {
	if query == "" {
		return []*model.KnowledgeSnippet{}, nil
	}
	if matchCount <= 0 {
		matchCount = DefaultMatchCount
	}
	// 阈值 0 是合法取值（不做相似度过滤），只有负值才回落默认
	if threshold < 0 {
		threshold = DefaultThreshold
	}

	vecs, err := s.embedding.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	queryVec := pgvector.NewVector(vecs[0])

	snippets, err := s.repo.SearchByVector(queryVec, f.CountryCode, f.Domain, threshold, matchCount)
	if err != nil {
		return nil, apperr.Persistence("vector search failed", err)
	}
	if len(snippets) > 0 {
		return snippets, nil
	}

	snippets, err = s.repo.SearchLexical(query, f.CountryCode, f.Domain, matchCount)
	if err != nil {
		return nil, apperr.Persistence("lexical search failed", err)
	}
	return snippets, nil
}
