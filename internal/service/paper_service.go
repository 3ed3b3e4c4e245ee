package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/pkg/log"
	"shitu-go/pkg/storage"
	"shitu-go/pkg/tasks"
)

// ObjectStore 是试卷图片的对象存储。
type ObjectStore interface {
	PutObject(ctx context.Context, objectName string, data []byte, contentType string) error
	GetObject(ctx context.Context, objectName string) ([]byte, error)
}

// TaskProducer 负责投递异步批改任务。
type TaskProducer interface {
	ProduceGradingTask(ctx context.Context, task tasks.PaperGradingTask) error
}

// UploadPaperRequest 是上传试卷的参数，Image 为 base64 编码的图片，可以带 data URL 前缀。
type UploadPaperRequest struct {
	UserID    string
	Grade     int
	Subject   string
	Publisher string
	Image     string
}

// PaperService 接口定义了试卷上传与查询。
type PaperService interface {
	// UploadPaper 保存试卷图片并投递批改任务，返回处于 pending 状态的试卷。
	UploadPaper(ctx context.Context, req UploadPaperRequest) (*model.Paper, error)
	// GetPaper 返回试卷及其题目。试卷不存在或不属于该用户时返回 ErrNotFound。
	GetPaper(ctx context.Context, userID, paperID string) (*model.PaperDetail, error)
}

type paperService struct {
	paperRepo    repository.PaperRepository
	questionRepo repository.QuestionRepository
	store        ObjectStore
	producer     TaskProducer
}

// NewPaperService 创建一个新的 PaperService 实例。
func NewPaperService(paperRepo repository.PaperRepository, questionRepo repository.QuestionRepository, store ObjectStore, producer TaskProducer) PaperService {
	return &paperService{
		paperRepo:    paperRepo,
		questionRepo: questionRepo,
		store:        store,
		producer:     producer,
	}
}

// decodeImage 解码 base64 图片，兼容 "data:image/png;base64," 形式的前缀。
func decodeImage(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:]
		}
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: 图片为空", ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: 图片不是合法的 base64: %v", ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: 图片为空", ErrInvalidInput)
	}
	return data, nil
}

func (s *paperService) UploadPaper(ctx context.Context, req UploadPaperRequest) (*model.Paper, error) {
	if req.Grade <= 0 || strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: 年级与学科不能为空", ErrInvalidInput)
	}
	data, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	paperID := uuid.NewString()
	objectName := storage.PaperObjectName(paperID)
	if err := s.store.PutObject(ctx, objectName, data, http.DetectContentType(data)); err != nil {
		log.Errorf("[PaperService] 保存试卷图片失败, paper: %s, err: %v", paperID, err)
		return nil, fmt.Errorf("保存试卷图片失败: %w", err)
	}

	paper := &model.Paper{
		ID:         paperID,
		UserID:     req.UserID,
		Grade:      req.Grade,
		Subject:    req.Subject,
		Publisher:  req.Publisher,
		ObjectName: objectName,
		Status:     model.PaperStatusPending,
	}
	if err := s.paperRepo.Create(ctx, paper); err != nil {
		return nil, fmt.Errorf("创建试卷记录失败: %w", err)
	}

	task := tasks.PaperGradingTask{
		PaperID:    paperID,
		UserID:     req.UserID,
		Grade:      req.Grade,
		Subject:    req.Subject,
		Publisher:  req.Publisher,
		ObjectName: objectName,
	}
	if err := s.producer.ProduceGradingTask(ctx, task); err != nil {
		log.Errorf("[PaperService] 投递批改任务失败, paper: %s, err: %v", paperID, err)
		if uerr := s.paperRepo.UpdateStatus(ctx, nil, paperID, model.PaperStatusFailed, err.Error()); uerr != nil {
			log.Errorf("[PaperService] 标记试卷失败状态出错, paper: %s, err: %v", paperID, uerr)
		}
		return nil, fmt.Errorf("投递批改任务失败: %w", err)
	}

	log.Infof("[PaperService] 试卷已上传并进入批改队列, paper: %s, user: %s", paperID, req.UserID)
	return paper, nil
}

func (s *paperService) GetPaper(ctx context.Context, userID, paperID string) (*model.PaperDetail, error) {
	paper, err := s.paperRepo.FindByID(ctx, paperID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询试卷失败: %w", err)
	}
	if paper.UserID != userID {
		return nil, ErrNotFound
	}

	questions, err := s.questionRepo.ListByPaper(ctx, userID, paperID)
	if err != nil {
		return nil, fmt.Errorf("查询试卷题目失败: %w", err)
	}
	return &model.PaperDetail{Paper: *paper, Questions: questions}, nil
}
