package repository

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/nkatta/compta-ai/internal/model"
)

// knowledgeRepositoryImpl 知识库数据访问
type knowledgeRepositoryImpl struct {
	db *gorm.DB
}

// NewKnowledgeRepository 创建知识库仓库
func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepositoryImpl{db: db}
}

// Create 创建知识条目
func (r *knowledgeRepositoryImpl) Create(entry *model.KnowledgeEntry) error {
	return r.db.Create(entry).Error
}

// GetByID 获取知识条目
func (r *knowledgeRepositoryImpl) GetByID(id string) (*model.KnowledgeEntry, error) {
	var entry model.KnowledgeEntry
	err := r.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListPending 列出尚未建立向量索引的条目
// ids 非空时仅限于指定条目集合
func (r *knowledgeRepositoryImpl) ListPending(limit int, ids []string) ([]*model.KnowledgeEntry, error) {
	var entries []*model.KnowledgeEntry
	query := r.db.Where("embedding IS NULL").Order("created_at ASC").Limit(limit)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	err := query.Find(&entries).Error
	return entries, err
}

// UpdateEmbedding 写回单个条目的向量
func (r *knowledgeRepositoryImpl) UpdateEmbedding(id string, vec pgvector.Vector) error {
	return r.db.Model(&model.KnowledgeEntry{}).Where("id = ?", id).Update("embedding", vec).Error
}

// ClearEmbeddings 清空所有向量，返回受影响行数
// 不做重嵌入，重新填充由 ListPending + UpdateEmbedding 分阶段完成
func (r *knowledgeRepositoryImpl) ClearEmbeddings() (int64, error) {
	result := r.db.Model(&model.KnowledgeEntry{}).Where("embedding IS NOT NULL").Update("embedding", nil)
	return result.RowsAffected, result.Error
}

// SearchByVector 余弦相似度检索
// 相似度 = 1 - 余弦距离，低于阈值的行被过滤
func (r *knowledgeRepositoryImpl) SearchByVector(vec pgvector.Vector, countryCode, subdomain string, threshold float64, limit int) ([]*model.KnowledgeSnippet, error) {
	var snippets []*model.KnowledgeSnippet
	err := r.db.Raw(`
		SELECT id, title, content, subdomain, country_code,
		       1 - (embedding <=> ?) AS similarity
		FROM knowledge_entries
		WHERE embedding IS NOT NULL
		  AND (? = '' OR country_code = ?)
		  AND (? = '' OR subdomain = ?)
		  AND 1 - (embedding <=> ?) >= ?
		ORDER BY embedding <=> ?
		LIMIT ?`,
		vec, countryCode, countryCode, subdomain, subdomain, vec, threshold, vec, limit,
	).Scan(&snippets).Error
	if err != nil {
		return nil, err
	}
	for _, s := range snippets {
		s.Source = "vector"
	}
	return snippets, nil
}

// SearchLexical 全文检索兜底
// 向量未填充或无语义命中时仍返回可用的上下文
func (r *knowledgeRepositoryImpl) SearchLexical(query, countryCode, subdomain string, limit int) ([]*model.KnowledgeSnippet, error) {
	var snippets []*model.KnowledgeSnippet
	err := r.db.Raw(`
		SELECT id, title, content, subdomain, country_code,
		       ts_rank(to_tsvector('french', title || ' ' || content),
		               plainto_tsquery('french', ?)) AS similarity
		FROM knowledge_entries
		WHERE to_tsvector('french', title || ' ' || content) @@ plainto_tsquery('french', ?)
		  AND (? = '' OR country_code = ?)
		  AND (? = '' OR subdomain = ?)
		ORDER BY similarity DESC
		LIMIT ?`,
		query, query, countryCode, countryCode, subdomain, subdomain, limit,
	).Scan(&snippets).Error
	if err != nil {
		return nil, err
	}
	for _, s := range snippets {
		s.Source = "lexical"
	}
	return snippets, nil
}
