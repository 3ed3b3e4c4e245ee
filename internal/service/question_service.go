package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/pkg/es"
	"shitu-go/pkg/log"
)

// QuestionSearcher 是错题本全文检索。
type QuestionSearcher interface {
	Search(ctx context.Context, query es.QuestionSearchQuery) ([]model.QuestionSearchResult, error)
}

// QuestionService 接口定义了题目查询操作。
type QuestionService interface {
	ListQuestions(ctx context.Context, filter repository.QuestionFilter) ([]model.Question, error)
	SearchQuestions(ctx context.Context, query es.QuestionSearchQuery) ([]model.QuestionSearchResult, error)
}

type questionService struct {
	questionRepo repository.QuestionRepository
	searcher     QuestionSearcher
}

// NewQuestionService 创建一个新的 QuestionService 实例。searcher 为 nil 时检索不可用。
func NewQuestionService(questionRepo repository.QuestionRepository, searcher QuestionSearcher) QuestionService {
	return &questionService{questionRepo: questionRepo, searcher: searcher}
}

func (s *questionService) ListQuestions(ctx context.Context, filter repository.QuestionFilter) ([]model.Question, error) {
	questions, err := s.questionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("查询题目失败: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

func (s *questionService) SearchQuestions(ctx context.Context, query es.QuestionSearchQuery) ([]model.QuestionSearchResult, error) {
	query.Text = strings.TrimSpace(query.Text)
	if query.Text == "" {
		return nil, fmt.Errorf("%w: 检索词不能为空", ErrInvalidInput)
	}
	if s.searcher == nil {
		return nil, errors.New("错题本检索未启用")
	}
	log.Infof("[QuestionService] 错题本检索, user: %s, query: '%s', topK: %d", query.UserID, query.Text, query.TopK)
	return s.searcher.Search(ctx, query)
}
