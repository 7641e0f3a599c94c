package repository

import (
	"gorm.io/gorm"

	"github.com/nkatta/compta-ai/internal/model"
)

// chatLogRepositoryImpl 对话日志数据访问
type chatLogRepositoryImpl struct {
	db *gorm.DB
}

// NewChatLogRepository 创建对话日志仓库
func NewChatLogRepository(db *gorm.DB) ChatLogRepository {
	return &chatLogRepositoryImpl{db: db}
}

// Create 追加一条日志
func (r *chatLogRepositoryImpl) Create(entry *model.ChatLogEntry) error {
	return r.db.Create(entry).Error
}

// ListBySessionID 获取会话日志
func (r *chatLogRepositoryImpl) ListBySessionID(userID, sessionID string) ([]*model.ChatLogEntry, error) {
	var entries []*model.ChatLogEntry
	err := r.db.Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// ListByUserID 获取用户日志
func (r *chatLogRepositoryImpl) ListByUserID(userID string, offset, limit int) ([]*model.ChatLogEntry, error) {
	var entries []*model.ChatLogEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
