// Package embedding 提供文本向量化与知识库索引服务
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/nkatta/compta-ai/internal/apperr"
	"github.com/nkatta/compta-ai/internal/model"
	"github.com/nkatta/compta-ai/internal/repository"
)

// 单批并发上限，避免压垮嵌入模型
const defaultConcurrency = 8

// 单次索引批量默认上限
const defaultIndexLimit = 50

// Service 嵌入服务
type Service struct {
	repo        repository.KnowledgeRepository // 使用接口便于测试
	embedder    einoembedding.Embedder
	concurrency int
}

// NewService 创建嵌入服务
func NewService(repo repository.KnowledgeRepository, embedder einoembedding.Embedder) *Service {
	return &Service{
		repo:        repo,
		embedder:    embedder,
		concurrency: defaultConcurrency,
	}
}

// CreateEntry 写入一条知识条目
// 向量索引异步补齐：新条目以 Embedding 为 nil 落库，等待下一次索引批次
func (s *Service) CreateEntry(ctx context.Context, entry *model.KnowledgeEntry) error {
	if entry.Title == "" || entry.Content == "" {
		return apperr.Invalid("title and content are required")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := s.repo.Create(entry); err != nil {
		return apperr.Persistence("failed to create knowledge entry", err)
	}
	return nil
}

// GetEntry 按 ID 读取知识条目
func (s *Service) GetEntry(ctx context.Context, id string) (*model.KnowledgeEntry, error) {
	entry, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("knowledge entry not found")
		}
		return nil, apperr.Persistence("failed to load knowledge entry", err)
	}
	return entry, nil
}

// Embed 将文本批量转换为向量
// 每条文本单独调用一次嵌入模型，受并发上限约束；返回顺序与输入一致，
// 调用方按位置将向量拼回源记录，顺序是正确性要求
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedder == nil {
		return nil, apperr.Upstream("embedder not configured", nil)
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			vecs, err := s.embedder.EmbedStrings(gctx, []string{text})
			if err != nil {
				return apperr.Upstream(fmt.Sprintf("failed to embed text at index %d", i), err)
			}
			if len(vecs) == 0 {
				return apperr.Upstream(fmt.Sprintf("embedder returned no vector for index %d", i), nil)
			}
			out[i] = toFloat32(vecs[0])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// IndexResult 索引结果
// Indexed < Total 表示部分条目写回失败，调用方据此发现不完整
type IndexResult struct {
	Indexed int `json:"indexed"`
	Total   int `json:"total"`
}

// IndexPending 为尚未索引的条目生成并写回向量
// 单条写回失败不终止批次，只计成功数
func (s *Service) IndexPending(ctx context.Context, limit int, ids []string) (*IndexResult, error) {
	if limit <= 0 {
		limit = defaultIndexLimit
	}

	entries, err := s.repo.ListPending(limit, ids)
	if err != nil {
		return nil, apperr.Persistence("failed to list pending entries", err)
	}
	if len(entries) == 0 {
		return &IndexResult{Indexed: 0, Total: 0}, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = CompositeText(entry)
	}

	vecs, err := s.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	indexed := 0
	for i, entry := range entries {
		vec := pgvector.NewVector(vecs[i])
		if err := s.repo.UpdateEmbedding(entry.ID, vec); err != nil {
			log.Printf("Warning: failed to store embedding for entry %s: %v", entry.ID, err)
			continue
		}
		indexed++
	}

	return &IndexResult{Indexed: indexed, Total: len(entries)}, nil
}

// ReindexAll 清空所有向量，返回受影响行数
// 不做重嵌入：清空与重新填充分两阶段，避免在慢速嵌入批次上持有长事务
func (s *Service) ReindexAll(ctx context.Context) (int64, error) {
	cleared, err := s.repo.ClearEmbeddings()
	if err != nil {
		return 0, apperr.Persistence("failed to clear embeddings", err)
	}
	return cleared, nil
}

// CompositeText 构建条目的嵌入文本
// 子领域前缀显著影响检索质量，必须保留
func CompositeText(entry *model.KnowledgeEntry) string {
	return fmt.Sprintf("%s: %s\n%s", entry.Subdomain, entry.Title, entry.Content)
}

// toFloat32 转换向量精度，pgvector 存储使用 float32
func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
