package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shitu-go/internal/model"
	"shitu-go/internal/stats"
)

// KnowledgeStatRepository 接口定义了知识点统计的持久化操作。
type KnowledgeStatRepository interface {
	// ApplyBatch 将一批已批改结果折叠进统计表。tx 为 nil 时自行开启事务，
	// 保证同一批次涉及的所有知识点要么全部更新要么全部不更新。
	ApplyBatch(ctx context.Context, tx *gorm.DB, userID string, grade int, subject string, results []stats.GradedResult) error
	// ListByAccuracy 按正确率升序返回统计，limit <= 0 表示不限制。
	ListByAccuracy(ctx context.Context, userID string, grade int, subject string, limit int) ([]model.KnowledgeStat, error)
	// Get 返回单个知识点的统计，不存在时返回 nil。
	Get(ctx context.Context, userID string, grade int, subject, knowledgePoint string) (*model.KnowledgeStat, error)
}

type knowledgeStatRepository struct {
	db *gorm.DB
}

// NewKnowledgeStatRepository 创建一个新的 KnowledgeStatRepository 实例。
func NewKnowledgeStatRepository(db *gorm.DB) KnowledgeStatRepository {
	return &knowledgeStatRepository{db: db}
}

func (r *knowledgeStatRepository) ApplyBatch(ctx context.Context, tx *gorm.DB, userID string, grade int, subject string, results []stats.GradedResult) error {
	deltas := stats.Group(results)
	if len(deltas) == 0 {
		return nil
	}
	if tx != nil {
		return r.applyDeltas(tx.WithContext(ctx), userID, grade, subject, deltas)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.applyDeltas(tx, userID, grade, subject, deltas)
	})
}

// applyDeltas 对每个知识点执行一次原子累加，再依据最新计数回写正确率与掌握程度。
// 计数在存储层以 total = total + ? 的形式累加，并发批次不会丢失更新。
func (r *knowledgeStatRepository) applyDeltas(tx *gorm.DB, userID string, grade int, subject string, deltas []stats.Delta) error {
	now := time.Now()
	for _, d := range deltas {
		row := stats.Fold(nil, userID, grade, subject, d)
		row.CreatedAt = now
		row.UpdatedAt = now
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "grade"}, {Name: "subject"}, {Name: "knowledge_point"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total":      gorm.Expr("total + ?", d.Total),
				"correct":    gorm.Expr("correct + ?", d.Correct),
				"updated_at": now,
			}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("累加知识点统计失败 (kp=%s): %w", d.KnowledgePoint, err)
		}

		var current model.KnowledgeStat
		if err := tx.Where("user_id = ? AND grade = ? AND subject = ? AND knowledge_point = ?", userID, grade, subject, d.KnowledgePoint).
			First(&current).Error; err != nil {
			return fmt.Errorf("读取知识点统计失败 (kp=%s): %w", d.KnowledgePoint, err)
		}
		stats.Derive(&current)
		if err := tx.Model(&model.KnowledgeStat{}).Where("id = ?", current.ID).
			Updates(map[string]interface{}{
				"accuracy":      current.Accuracy,
				"mastery_level": current.MasteryLevel,
			}).Error; err != nil {
			return fmt.Errorf("更新知识点掌握程度失败 (kp=%s): %w", d.KnowledgePoint, err)
		}
	}
	return nil
}

func (r *knowledgeStatRepository) ListByAccuracy(ctx context.Context, userID string, grade int, subject string, limit int) ([]model.KnowledgeStat, error) {
	var list []model.KnowledgeStat
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND grade = ? AND subject = ?", userID, grade, subject).
		Order("accuracy ASC").Order("knowledge_point ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *knowledgeStatRepository) Get(ctx context.Context, userID string, grade int, subject, knowledgePoint string) (*model.KnowledgeStat, error) {
	var stat model.KnowledgeStat
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND grade = ? AND subject = ? AND knowledge_point = ?", userID, grade, subject, knowledgePoint).
		Limit(1).Find(&stat).Error
	if err != nil {
		return nil, err
	}
	if stat.ID == 0 {
		return nil, nil
	}
	return &stat, nil
}
