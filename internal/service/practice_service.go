package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shitu-go/internal/advice"
	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/internal/stats"
	"shitu-go/pkg/coze"
	"shitu-go/pkg/log"
)

// defaultPracticeType 是工作流未给出题型时使用的题型。
const defaultPracticeType = "练习题"

// PracticeGenerator 是出题工作流的调用方。
type PracticeGenerator interface {
	GeneratePractice(ctx context.Context, req coze.GeneratePracticeRequest) ([]coze.QuestionItem, error)
}

// GeneratePracticeRequest 是生成练习的参数。
type GeneratePracticeRequest struct {
	UserID            string
	Grade             int
	Subject           string
	Publisher         string
	KnowledgePoints   []string
	QuestionTypeSpecs []string
}

// PracticePaper 是一次生成的练习。
type PracticePaper struct {
	PaperID   string                   `json:"paperId"`
	Questions []model.PracticeQuestion `json:"questions"`
}

// PracticeAnswer 是一道练习题的作答结果。
type PracticeAnswer struct {
	QuestionID     string `json:"questionId"`
	Content        string `json:"content"`
	UserAnswer     string `json:"userAnswer"`
	IsCorrect      *bool  `json:"isCorrect"`
	CorrectAnswer  string `json:"correctAnswer"`
	KnowledgePoint string `json:"knowledgePoint"`
	QuestionType   string `json:"questionType"`
	ErrorAnalysis  string `json:"errorAnalysis"`
}

// SubmitPracticeRequest 是提交练习作答的参数。
type SubmitPracticeRequest struct {
	UserID  string
	PaperID string
	Grade   int
	Subject string
	Answers []PracticeAnswer
}

// PracticeService 接口定义了练习的生成、提交与查询。
type PracticeService interface {
	GeneratePractice(ctx context.Context, req GeneratePracticeRequest) (*PracticePaper, error)
	// SubmitPractice 在同一事务中写入作答记录并累加知识点统计，返回写入后的题目。
	SubmitPractice(ctx context.Context, req SubmitPracticeRequest) ([]model.Question, error)
	PracticeHistory(ctx context.Context, userID string) ([]model.PracticeHistoryItem, error)
	PracticePaper(ctx context.Context, userID, paperID string) ([]model.PracticeQuestion, error)
}

type practiceService struct {
	generator    PracticeGenerator
	practiceRepo repository.PracticeQuestionRepository
	questionRepo repository.QuestionRepository
	statRepo     repository.KnowledgeStatRepository
	transactor   repository.Transactor
}

// NewPracticeService 创建一个新的 PracticeService 实例。
func NewPracticeService(
	generator PracticeGenerator,
	practiceRepo repository.PracticeQuestionRepository,
	questionRepo repository.QuestionRepository,
	statRepo repository.KnowledgeStatRepository,
	transactor repository.Transactor,
) PracticeService {
	return &practiceService{
		generator:    generator,
		practiceRepo: practiceRepo,
		questionRepo: questionRepo,
		statRepo:     statRepo,
		transactor:   transactor,
	}
}

func (s *practiceService) GeneratePractice(ctx context.Context, req GeneratePracticeRequest) (*PracticePaper, error) {
	if req.Grade <= 0 || strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: 年级与学科不能为空", ErrInvalidInput)
	}

	items, err := s.generator.GeneratePractice(ctx, coze.GeneratePracticeRequest{
		Grade:             advice.GradeLabel(req.Grade),
		KnowledgePoints:   req.KnowledgePoints,
		QuestionTypeSpecs: req.QuestionTypeSpecs,
		Subject:           req.Subject,
		Publisher:         req.Publisher,
	})
	if err != nil {
		log.Errorf("[PracticeService] 出题工作流调用失败, user: %s, err: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	paperID := uuid.NewString()
	questions := make([]model.PracticeQuestion, 0, len(items))
	for _, item := range items {
		questions = append(questions, toPracticeQuestion(item, paperID, req))
	}
	if err := s.practiceRepo.CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("保存练习题失败: %w", err)
	}

	log.Infof("[PracticeService] 生成练习 %s，共 %d 道题, user: %s", paperID, len(questions), req.UserID)
	return &PracticePaper{PaperID: paperID, Questions: questions}, nil
}

func toPracticeQuestion(item coze.QuestionItem, paperID string, req GeneratePracticeRequest) model.PracticeQuestion {
	subject := item.Subject
	if strings.TrimSpace(subject) == "" {
		subject = req.Subject
	}
	questionType := item.QuestionType
	if strings.TrimSpace(questionType) == "" {
		questionType = defaultPracticeType
	}
	options := item.Options
	if options == nil {
		options = []string{}
	}
	optionsJSON, _ := json.Marshal(options)

	return model.PracticeQuestion{
		ID:             uuid.NewString(),
		SourceID:       strings.TrimSpace(item.QuestionID),
		PaperID:        paperID,
		UserID:         req.UserID,
		Content:        item.Content,
		CorrectAnswer:  item.CorrectAnswer,
		KnowledgePoint: item.KnowledgePoint,
		QuestionType:   questionType,
		Options:        string(optionsJSON),
		Subject:        subject,
		Grade:          req.Grade,
	}
}

func (s *practiceService) SubmitPractice(ctx context.Context, req SubmitPracticeRequest) ([]model.Question, error) {
	if req.Grade <= 0 || strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: 年级与学科不能为空", ErrInvalidInput)
	}
	if len(req.Answers) == 0 {
		return []model.Question{}, nil
	}
	paperID := req.PaperID
	if paperID == "" {
		paperID = uuid.NewString()
	}

	saved := make([]model.Question, 0, len(req.Answers))
	err := s.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		results := make([]stats.GradedResult, 0, len(req.Answers))
		for _, a := range req.Answers {
			q, err := s.questionRepo.Upsert(ctx, tx, model.Question{
				ID:             a.QuestionID,
				UserID:         req.UserID,
				PaperID:        paperID,
				Content:        a.Content,
				UserAnswer:     a.UserAnswer,
				IsCorrect:      a.IsCorrect,
				CorrectAnswer:  a.CorrectAnswer,
				KnowledgePoint: strings.TrimSpace(a.KnowledgePoint),
				Subject:        req.Subject,
				Grade:          req.Grade,
				QuestionType:   a.QuestionType,
				ErrorAnalysis:  a.ErrorAnalysis,
			})
			if err != nil {
				return err
			}
			saved = append(saved, *q)
			results = append(results, stats.GradedResult{KnowledgePoint: q.KnowledgePoint, IsCorrect: q.IsCorrect})
		}
		return s.statRepo.ApplyBatch(ctx, tx, req.UserID, req.Grade, req.Subject, results)
	})
	if err != nil {
		log.Errorf("[PracticeService] 提交练习失败, user: %s, paper: %s, err: %v", req.UserID, paperID, err)
		return nil, fmt.Errorf("提交练习失败: %w", err)
	}

	log.Infof("[PracticeService] 练习提交完成, user: %s, paper: %s, 题数: %d", req.UserID, paperID, len(saved))
	return saved, nil
}

func (s *practiceService) PracticeHistory(ctx context.Context, userID string) ([]model.PracticeHistoryItem, error) {
	items, err := s.practiceRepo.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询练习记录失败: %w", err)
	}
	if items == nil {
		items = []model.PracticeHistoryItem{}
	}
	return items, nil
}

func (s *practiceService) PracticePaper(ctx context.Context, userID, paperID string) ([]model.PracticeQuestion, error) {
	questions, err := s.practiceRepo.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("查询练习题失败: %w", err)
	}
	owned := make([]model.PracticeQuestion, 0, len(questions))
	for _, q := range questions {
		if q.UserID == userID {
			owned = append(owned, q)
		}
	}
	return owned, nil
}
