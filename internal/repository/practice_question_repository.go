package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"shitu-go/internal/model"
)

// PracticeQuestionRepository 接口定义了练习题的持久化操作。
type PracticeQuestionRepository interface {
	CreateBatch(ctx context.Context, questions []model.PracticeQuestion) error
	ListByPaper(ctx context.Context, paperID string) ([]model.PracticeQuestion, error)
	History(ctx context.Context, userID string) ([]model.PracticeHistoryItem, error)
}

type practiceQuestionRepository struct {
	db *gorm.DB
}

// NewPracticeQuestionRepository 创建一个新的 PracticeQuestionRepository 实例。
func NewPracticeQuestionRepository(db *gorm.DB) PracticeQuestionRepository {
	return &practiceQuestionRepository{db: db}
}

func (r *practiceQuestionRepository) CreateBatch(ctx context.Context, questions []model.PracticeQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

// ListByPaper 返回一次练习的全部题目，按题型分组排列。
func (r *practiceQuestionRepository) ListByPaper(ctx context.Context, paperID string) ([]model.PracticeQuestion, error) {
	var list []model.PracticeQuestion
	err := r.db.WithContext(ctx).Where("paper_id = ?", paperID).
		Order("question_type ASC").Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// History 按 (paper_id, subject, grade) 分组统计练习，最近生成的排在前面。
// 分组在内存中完成，避免不同驱动对 MAX(datetime) 返回类型不一致。
func (r *practiceQuestionRepository) History(ctx context.Context, userID string) ([]model.PracticeHistoryItem, error) {
	var rows []model.PracticeQuestion
	err := r.db.WithContext(ctx).
		Select("paper_id", "subject", "grade", "created_at").
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		paperID string
		subject string
		grade   int
	}
	index := make(map[groupKey]int)
	latest := make([]time.Time, 0)
	items := make([]model.PracticeHistoryItem, 0)
	for _, row := range rows {
		key := groupKey{row.PaperID, row.Subject, row.Grade}
		i, ok := index[key]
		if !ok {
			i = len(items)
			index[key] = i
			items = append(items, model.PracticeHistoryItem{PaperID: row.PaperID, Subject: row.Subject, Grade: row.Grade})
			latest = append(latest, row.CreatedAt)
		}
		items[i].QuestionCount++
		if row.CreatedAt.After(latest[i]) {
			latest[i] = row.CreatedAt
		}
	}
	for i := range items {
		items[i].CreateTime = model.LocalTime(latest[i])
	}
	sort.SliceStable(items, func(a, b int) bool {
		return time.Time(items[a].CreateTime).After(time.Time(items[b].CreateTime))
	})
	return items, nil
}
