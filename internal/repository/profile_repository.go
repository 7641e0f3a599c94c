package repository

import (
	"gorm.io/gorm"

	"github.com/nkatta/compta-ai/internal/model"
)

// profileRepositoryImpl 用户档案数据访问
type profileRepositoryImpl struct {
	db *gorm.DB
}

// NewProfileRepository 创建用户档案仓库
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepositoryImpl{db: db}
}

// Create 创建档案
func (r *profileRepositoryImpl) Create(profile *model.Profile) error {
	return r.db.Create(profile).Error
}

// GetByID 按主体 ID 获取档案
func (r *profileRepositoryImpl) GetByID(id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByEmail 按邮箱获取档案
func (r *profileRepositoryImpl) GetByEmail(email string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where("email = ?", email).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update 更新档案
func (r *profileRepositoryImpl) Update(profile *model.Profile) error {
	return r.db.Save(profile).Error
}
