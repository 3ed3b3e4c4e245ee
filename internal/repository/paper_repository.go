package repository

import (
	"context"

	"gorm.io/gorm"

	"shitu-go/internal/model"
)

// PaperRepository 接口定义了试卷记录的持久化操作。
type PaperRepository interface {
	Create(ctx context.Context, paper *model.Paper) error
	FindByID(ctx context.Context, paperID string) (*model.Paper, error)
	UpdateFileID(ctx context.Context, paperID, fileID string) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, paperID, status, errMsg string) error
}

type paperRepository struct {
	db *gorm.DB
}

// NewPaperRepository 创建一个新的 PaperRepository 实例。
func NewPaperRepository(db *gorm.DB) PaperRepository {
	return &paperRepository{db: db}
}

func (r *paperRepository) Create(ctx context.Context, paper *model.Paper) error {
	return r.db.WithContext(ctx).Create(paper).Error
}

// FindByID 根据 ID 查找试卷，找不到时返回 gorm.ErrRecordNotFound。
func (r *paperRepository) FindByID(ctx context.Context, paperID string) (*model.Paper, error) {
	var paper model.Paper
	if err := r.db.WithContext(ctx).Where("id = ?", paperID).First(&paper).Error; err != nil {
		return nil, err
	}
	return &paper, nil
}

func (r *paperRepository) UpdateFileID(ctx context.Context, paperID, fileID string) error {
	return r.db.WithContext(ctx).Model(&model.Paper{}).Where("id = ?", paperID).Update("file_id", fileID).Error
}

func (r *paperRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, paperID, status, errMsg string) error {
	return pick(r.db, tx).WithContext(ctx).Model(&model.Paper{}).Where("id = ?", paperID).
		Updates(map[string]interface{}{"status": status, "error": errMsg}).Error
}
