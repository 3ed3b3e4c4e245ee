package service

import (
	"context"
	"fmt"

	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/internal/stats"
	"shitu-go/pkg/log"
)

// KnowledgeService 接口定义了知识点统计相关的业务操作。
type KnowledgeService interface {
	// SubmitGradedBatch 将一批已批改结果累加进知识点统计。空白知识点被忽略，空批次不做任何事。
	SubmitGradedBatch(ctx context.Context, userID string, grade int, subject string, results []stats.GradedResult) error
	// GetKnowledgeReport 返回按正确率升序排列的知识点掌握报告。
	GetKnowledgeReport(ctx context.Context, userID string, grade int, subject string) ([]model.KnowledgeReportItem, error)
}

type knowledgeService struct {
	statRepo repository.KnowledgeStatRepository
}

// NewKnowledgeService 创建一个新的 KnowledgeService 实例。
func NewKnowledgeService(statRepo repository.KnowledgeStatRepository) KnowledgeService {
	return &knowledgeService{statRepo: statRepo}
}

func (s *knowledgeService) SubmitGradedBatch(ctx context.Context, userID string, grade int, subject string, results []stats.GradedResult) error {
	if len(results) == 0 {
		return nil
	}
	if err := s.statRepo.ApplyBatch(ctx, nil, userID, grade, subject, results); err != nil {
		log.Errorf("[KnowledgeService] 累加知识点统计失败, user: %s, grade: %d, subject: %s, err: %v", userID, grade, subject, err)
		return fmt.Errorf("累加知识点统计失败: %w", err)
	}
	return nil
}

func (s *knowledgeService) GetKnowledgeReport(ctx context.Context, userID string, grade int, subject string) ([]model.KnowledgeReportItem, error) {
	rows, err := s.statRepo.ListByAccuracy(ctx, userID, grade, subject, 0)
	if err != nil {
		return nil, fmt.Errorf("查询知识点统计失败: %w", err)
	}
	report := make([]model.KnowledgeReportItem, 0, len(rows))
	for _, r := range rows {
		report = append(report, model.KnowledgeReportItem{
			KnowledgePoint: r.KnowledgePoint,
			Accuracy:       r.Accuracy,
			MasteryLevel:   r.MasteryLevel,
			Correct:        r.Correct,
			Total:          r.Total,
		})
	}
	return report, nil
}
