package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// KnowledgeEntry 知识库条目
// Embedding 为 nil 表示尚未建立索引；知识库跨工作区共享，不做租户隔离
type KnowledgeEntry struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	Title       string           `gorm:"size:255" json:"title"`
	Content     string           `gorm:"type:text" json:"content"`
	Subdomain   string           `gorm:"size:100;index" json:"subdomain"`
	CountryCode string           `gorm:"size:2;index" json:"country_code"`
	Embedding   *pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}

// KnowledgeSnippet 检索结果片段
// Source 标识命中路径：vector（向量检索）或 lexical（全文检索兜底）
type KnowledgeSnippet struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Subdomain   string  `json:"subdomain"`
	CountryCode string  `json:"country_code"`
	Similarity  float64 `json:"similarity"`
	Source      string  `json:"source"`
}
