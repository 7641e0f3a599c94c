package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ToolCallRecord 模型请求的单次工具调用
// 网关不执行，原样回传给调用方
type ToolCallRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCallList 工具调用集合
// 空集合落库为 NULL：jsonb 列不接受空字符串
type ToolCallList []ToolCallRecord

// Value 实现 driver.Valuer 接口
func (l ToolCallList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *ToolCallList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// GormDataType 指定列类型
func (ToolCallList) GormDataType() string {
	return "jsonb"
}

// ChatLogEntry 对话日志
// 仅追加，按 session_id 归组；流式响应不落日志
type ChatLogEntry struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	UserID    string       `gorm:"index;size:36;not null" json:"user_id"`
	SessionID string       `gorm:"index;size:36;not null" json:"session_id"`
	Role      string       `gorm:"size:20" json:"role"` // user, assistant
	Content   string       `gorm:"type:text" json:"content"`
	ToolCalls ToolCallList `gorm:"type:jsonb" json:"tool_calls,omitempty"`
	Model     string       `gorm:"size:100" json:"model"`
	CreatedAt time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (ChatLogEntry) TableName() string {
	return "chat_logs"
}
