package model

import "time"

// Profile 用户档案
// WorkspaceID 为空表示令牌有效但未绑定工作区，业务上视为无权限
type Profile struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	WorkspaceID  *string   `gorm:"index;size:36" json:"workspace_id"`
	RoleCode     string    `gorm:"size:50;default:member" json:"role_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// CallerInfo 请求级调用者信息（不落库）
type CallerInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	WorkspaceID string `json:"workspace_id"`
	RoleCode    string `json:"role_code"`
}

// ToCallerInfo 转换为 CallerInfo
func (p *Profile) ToCallerInfo() *CallerInfo {
	info := &CallerInfo{
		ID:       p.ID,
		Email:    p.Email,
		RoleCode: p.RoleCode,
	}
	if p.WorkspaceID != nil {
		info.WorkspaceID = *p.WorkspaceID
	}
	return info
}
