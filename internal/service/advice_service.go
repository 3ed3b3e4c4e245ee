package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"shitu-go/internal/advice"
	"shitu-go/internal/config"
	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/pkg/coze"
	"shitu-go/pkg/log"
)

// 调用学习建议工作流失败时返回给用户的摘要
const (
	summaryFetchFailed  = "获取建议失败"
	summaryDecodeFailed = "解析建议失败"
	summarySystemError  = "系统错误"
)

// Advisor 是学习建议工作流的调用方。
type Advisor interface {
	GetLearningAdvice(ctx context.Context, input model.AdviceInput) (*model.AdviceResult, error)
}

// AdviceService 接口定义了学习建议的获取。
type AdviceService interface {
	// GetAdvice 总是返回一个建议结果。外部工作流的失败会被转换为带错误描述的结果，
	// 只有读取统计数据失败时才返回 error。
	GetAdvice(ctx context.Context, userID string, grade int, subject, textbook string) (*model.AdviceResult, error)
}

type adviceService struct {
	statRepo     repository.KnowledgeStatRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.AdviceCacheRepository
	advisor      Advisor
	cfg          config.AdviceConfig
}

// NewAdviceService 创建一个新的 AdviceService 实例。
func NewAdviceService(
	statRepo repository.KnowledgeStatRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.AdviceCacheRepository,
	advisor Advisor,
	cfg config.AdviceConfig,
) AdviceService {
	return &adviceService{
		statRepo:     statRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		advisor:      advisor,
		cfg:          cfg.WithDefaults(),
	}
}

func (s *adviceService) GetAdvice(ctx context.Context, userID string, grade int, subject, textbook string) (*model.AdviceResult, error) {
	input, err := s.buildInput(ctx, userID, grade, subject, textbook)
	if err != nil {
		return nil, err
	}

	hash, err := advice.Fingerprint(input)
	if err != nil {
		return nil, err
	}
	key := repository.AdviceCacheKey{
		UserID:      userID,
		Grade:       strconv.Itoa(grade),
		Subject:     subject,
		Textbook:    textbook,
		RequestHash: hash,
	}
	log.Infof("[AdviceService] 请求指纹: %s, user: %s, grade: %d, subject: %s", hash, userID, grade, subject)

	if cached := s.lookup(ctx, key); cached != nil {
		log.Infof("[AdviceService] 命中建议缓存, user: %s", userID)
		return cached, nil
	}

	log.Infof("[AdviceService] 未命中缓存，调用学习建议工作流, user: %s", userID)
	result, err := s.advisor.GetLearningAdvice(ctx, input)
	if err == nil && result == nil {
		err = coze.ErrEmptyPayload
	}
	if err != nil {
		log.Errorf("[AdviceService] 学习建议工作流调用失败, user: %s, err: %v", userID, err)
		fallback := adviceFallback(err)
		fallback.DebugInput = advice.DebugInput(input)
		return fallback, nil
	}

	if result.Summary != "" {
		result.Summary = advice.CleanMarkdown(result.Summary)
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	result.DebugInput = advice.DebugInput(input)

	s.store(ctx, key, result)
	return result, nil
}

// buildInput 取正确率最低的若干知识点，并为每个知识点附上最近的错因分析。
func (s *adviceService) buildInput(ctx context.Context, userID string, grade int, subject, textbook string) (model.AdviceInput, error) {
	rows, err := s.statRepo.ListByAccuracy(ctx, userID, grade, subject, s.cfg.StatLimit)
	if err != nil {
		return model.AdviceInput{}, fmt.Errorf("查询知识点统计失败: %w", err)
	}

	statsForAdvice := make([]model.AdviceStat, 0, len(rows))
	for _, r := range rows {
		analyses, err := s.questionRepo.RecentErrorAnalyses(ctx, userID, grade, subject, r.KnowledgePoint, s.cfg.ErrorAnalysisLimit)
		if err != nil {
			return model.AdviceInput{}, fmt.Errorf("查询错因分析失败: %w", err)
		}
		statsForAdvice = append(statsForAdvice, model.AdviceStat{
			KnowledgePoint: r.KnowledgePoint,
			Accuracy:       r.Accuracy,
			Proficiency:    r.MasteryLevel,
			ErrorAnalyses:  analyses,
		})
	}

	return advice.Normalize(model.AdviceInput{
		UserID:         userID,
		Grade:          advice.GradeLabel(grade),
		Subject:        subject,
		Textbook:       textbook,
		KnowledgeStats: statsForAdvice,
	}), nil
}

// lookup 读取缓存。读取失败与无法反序列化的记录都按未命中处理。
func (s *adviceService) lookup(ctx context.Context, key repository.AdviceCacheKey) *model.AdviceResult {
	entry, err := s.cacheRepo.Lookup(ctx, key)
	if err != nil {
		log.Warnf("[AdviceService] 读取建议缓存失败，按未命中处理: %v", err)
		return nil
	}
	if entry == nil {
		return nil
	}
	var cached model.AdviceResult
	if err := json.Unmarshal([]byte(entry.ResponseContent), &cached); err != nil {
		log.Warnf("[AdviceService] 缓存记录 %d 无法解析，按未命中处理: %v", entry.ID, err)
		return nil
	}
	return &cached
}

// store 写入缓存。写入失败只记录日志，建议照常返回。
func (s *adviceService) store(ctx context.Context, key repository.AdviceCacheKey, result *model.AdviceResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warnf("[AdviceService] 序列化建议失败，跳过缓存: %v", err)
		return
	}
	if err := s.cacheRepo.Insert(ctx, key, string(payload)); err != nil {
		log.Warnf("[AdviceService] 写入建议缓存失败: %v", err)
		return
	}
	log.Infof("[AdviceService] 建议已写入缓存, user: %s", key.UserID)
}

// adviceFallback 将工作流调用的各类失败转换为可直接返回给用户的建议结果。
func adviceFallback(err error) *model.AdviceResult {
	var (
		statusErr *coze.StatusError
		streamErr *coze.StreamError
		decodeErr *coze.DecodeError
	)
	switch {
	case errors.As(err, &statusErr):
		return &model.AdviceResult{Summary: summaryFetchFailed, Suggestions: []string{statusErr.Body}}
	case errors.As(err, &streamErr):
		return &model.AdviceResult{Summary: summaryFetchFailed, Suggestions: []string{streamErr.Message}}
	case errors.Is(err, coze.ErrEmptyPayload):
		return &model.AdviceResult{Summary: summaryFetchFailed, Suggestions: []string{err.Error()}}
	case errors.As(err, &decodeErr):
		detail := err.Error()
		if decodeErr.Err != nil {
			detail = decodeErr.Err.Error()
		}
		return &model.AdviceResult{Summary: summaryDecodeFailed, Suggestions: []string{detail, "Raw JSON:", decodeErr.Raw}}
	default:
		return &model.AdviceResult{Summary: summarySystemError, Suggestions: []string{err.Error()}}
	}
}
