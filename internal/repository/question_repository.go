package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shitu-go/internal/model"
)

// QuestionFilter 是题目列表查询条件，空值字段不参与过滤。
type QuestionFilter struct {
	UserID         string
	Grade          int
	Subject        string
	KnowledgePoint string
	OnlyWrong      bool
}

// QuestionRepository 接口定义了题目记录的持久化操作。
type QuestionRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []model.Question) error
	// Upsert 按题目 ID 更新作答信息；题目不存在或属于其他年级/学科时插入新记录。返回最终写入的记录。
	Upsert(ctx context.Context, tx *gorm.DB, q model.Question) (*model.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]model.Question, error)
	ListByPaper(ctx context.Context, userID, paperID string) ([]model.Question, error)
	// RecentErrorAnalyses 返回某知识点最近答错题目的错因分析，最多 limit 条。
	RecentErrorAnalyses(ctx context.Context, userID string, grade int, subject, knowledgePoint string, limit int) ([]string, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository 创建一个新的 QuestionRepository 实例。
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) CreateBatch(ctx context.Context, tx *gorm.DB, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
	}
	return pick(r.db, tx).WithContext(ctx).Create(&questions).Error
}

func (r *questionRepository) Upsert(ctx context.Context, tx *gorm.DB, q model.Question) (*model.Question, error) {
	db := pick(r.db, tx).WithContext(ctx)

	if q.ID != "" {
		var existing model.Question
		err := db.Where("id = ?", q.ID).First(&existing).Error
		switch {
		case err == nil && existing.UserID == q.UserID && existing.Grade == q.Grade && existing.Subject == q.Subject:
			existing.UserAnswer = q.UserAnswer
			existing.IsCorrect = q.IsCorrect
			existing.ErrorAnalysis = q.ErrorAnalysis
			if err := db.Model(&model.Question{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
				"user_answer":    existing.UserAnswer,
				"is_correct":     existing.IsCorrect,
				"error_analysis": existing.ErrorAnalysis,
			}).Error; err != nil {
				return nil, fmt.Errorf("更新题目作答失败: %w", err)
			}
			return &existing, nil
		case err == nil:
			// ID 已被其他年级/学科的题目占用
			q.ID = ""
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("查询题目失败: %w", err)
		}
	}

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if err := db.Create(&q).Error; err != nil {
		return nil, fmt.Errorf("插入题目失败: %w", err)
	}
	return &q, nil
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]model.Question, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", filter.UserID)
	if filter.Grade > 0 {
		q = q.Where("grade = ?", filter.Grade)
	}
	if filter.Subject != "" {
		q = q.Where("subject = ?", filter.Subject)
	}
	if filter.KnowledgePoint != "" {
		q = q.Where("knowledge_point = ?", filter.KnowledgePoint)
	}
	if filter.OnlyWrong {
		q = q.Where("is_correct = ?", false)
	}
	var list []model.Question
	if err := q.Order("paper_id ASC").Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *questionRepository) ListByPaper(ctx context.Context, userID, paperID string) ([]model.Question, error) {
	var list []model.Question
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND paper_id = ?", userID, paperID).
		Order("created_at ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *questionRepository) RecentErrorAnalyses(ctx context.Context, userID string, grade int, subject, knowledgePoint string, limit int) ([]string, error) {
	analyses := make([]string, 0, limit)
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Where("user_id = ? AND grade = ? AND subject = ? AND knowledge_point = ?", userID, grade, subject, knowledgePoint).
		Where("is_correct = ? AND error_analysis <> ''", false).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Pluck("error_analysis", &analyses).Error
	if err != nil {
		return nil, err
	}
	return analyses, nil
}
