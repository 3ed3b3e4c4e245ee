// Package pipeline 定义了试卷批改的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"shitu-go/internal/advice"
	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/internal/stats"
	"shitu-go/pkg/coze"
	"shitu-go/pkg/log"
	"shitu-go/pkg/tasks"
)

// PaperParser 是试卷识别与批改工作流。
type PaperParser interface {
	UploadFile(ctx context.Context, data []byte, fileName string) (string, error)
	ParsePaper(ctx context.Context, req coze.ParsePaperRequest) ([]coze.QuestionItem, error)
}

// ObjectReader 读取对象存储中的试卷图片。
type ObjectReader interface {
	GetObject(ctx context.Context, objectName string) ([]byte, error)
}

// QuestionIndexer 将题目写入错题本检索索引。
type QuestionIndexer interface {
	Index(ctx context.Context, docs []model.QuestionDocument) error
}

// Processor 封装了试卷批改的所有依赖和逻辑。
type Processor struct {
	parser       PaperParser
	objects      ObjectReader
	indexer      QuestionIndexer
	paperRepo    repository.PaperRepository
	questionRepo repository.QuestionRepository
	statRepo     repository.KnowledgeStatRepository
	transactor   repository.Transactor
}

// NewProcessor 创建一个新的 Processor 实例。indexer 可以为 nil，此时跳过索引。
func NewProcessor(
	parser PaperParser,
	objects ObjectReader,
	indexer QuestionIndexer,
	paperRepo repository.PaperRepository,
	questionRepo repository.QuestionRepository,
	statRepo repository.KnowledgeStatRepository,
	transactor repository.Transactor,
) *Processor {
	return &Processor{
		parser:       parser,
		objects:      objects,
		indexer:      indexer,
		paperRepo:    paperRepo,
		questionRepo: questionRepo,
		statRepo:     statRepo,
		transactor:   transactor,
	}
}

// Process 是试卷批改的主函数。题目入库、知识点统计与状态更新在同一事务中完成，
// 已批改的试卷直接跳过，因此重复投递的任务不会重复计数。
func (p *Processor) Process(ctx context.Context, task tasks.PaperGradingTask) error {
	log.Infof("[Processor] 开始批改试卷, PaperID: %s, UserID: %s", task.PaperID, task.UserID)

	paper, err := p.paperRepo.FindByID(ctx, task.PaperID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warnf("[Processor] 试卷 %s 不存在, 丢弃任务", task.PaperID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询试卷失败: %w", err)
	}
	if paper.Status == model.PaperStatusGraded {
		log.Infof("[Processor] 试卷 %s 已批改, 跳过重复任务", paper.ID)
		return nil
	}

	// 1. 上传图片到工作流平台，file_id 记录在试卷上以便重试时复用
	fileID, err := p.ensureFileID(ctx, paper, task)
	if err != nil {
		return err
	}

	// 2. 调用解析工作流
	log.Infof("[Processor] 步骤2: 调用试卷解析工作流, PaperID: %s, FileID: %s", paper.ID, fileID)
	items, err := p.parser.ParsePaper(ctx, coze.ParsePaperRequest{
		FileID:    fileID,
		Grade:     advice.GradeLabel(paper.Grade),
		Subject:   paper.Subject,
		Publisher: paper.Publisher,
	})
	if err != nil {
		log.Errorf("[Processor] 试卷解析失败, PaperID: %s, Error: %v", paper.ID, err)
		return fmt.Errorf("试卷解析失败: %w", err)
	}
	log.Infof("[Processor] 步骤2: 解析得到 %d 道题目", len(items))

	questions := toQuestions(paper, items)
	results := make([]stats.GradedResult, 0, len(questions))
	for _, q := range questions {
		results = append(results, stats.GradedResult{KnowledgePoint: q.KnowledgePoint, IsCorrect: q.IsCorrect})
	}

	// 3. 入库、累加统计、标记已批改
	err = p.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := p.questionRepo.CreateBatch(ctx, tx, questions); err != nil {
			return fmt.Errorf("保存题目失败: %w", err)
		}
		if err := p.statRepo.ApplyBatch(ctx, tx, paper.UserID, paper.Grade, paper.Subject, results); err != nil {
			return fmt.Errorf("累加知识点统计失败: %w", err)
		}
		return p.paperRepo.UpdateStatus(ctx, tx, paper.ID, model.PaperStatusGraded, "")
	})
	if err != nil {
		log.Errorf("[Processor] 保存批改结果失败, PaperID: %s, Error: %v", paper.ID, err)
		return err
	}
	log.Infof("[Processor] 步骤3: 批改结果已保存, PaperID: %s", paper.ID)

	// 4. 写入错题本索引，失败不影响批改结果
	p.index(ctx, questions)

	log.Infof("[Processor] 试卷批改完成, PaperID: %s", paper.ID)
	return nil
}

// Fail 在任务放弃重试后把试卷标记为失败。
func (p *Processor) Fail(ctx context.Context, task tasks.PaperGradingTask, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := p.paperRepo.UpdateStatus(ctx, nil, task.PaperID, model.PaperStatusFailed, msg); err != nil {
		log.Errorf("[Processor] 标记试卷失败状态出错, PaperID: %s, Error: %v", task.PaperID, err)
		return
	}
	log.Warnf("[Processor] 试卷 %s 批改失败: %s", task.PaperID, msg)
}

func (p *Processor) ensureFileID(ctx context.Context, paper *model.Paper, task tasks.PaperGradingTask) (string, error) {
	if paper.FileID != "" {
		return paper.FileID, nil
	}

	objectName := paper.ObjectName
	if objectName == "" {
		objectName = task.ObjectName
	}
	log.Infof("[Processor] 步骤1: 从对象存储读取试卷图片, Object: %s", objectName)
	data, err := p.objects.GetObject(ctx, objectName)
	if err != nil {
		return "", fmt.Errorf("读取试卷图片失败: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("试卷图片内容为空")
	}

	fileID, err := p.parser.UploadFile(ctx, data, paper.ID+".png")
	if err != nil {
		return "", fmt.Errorf("上传试卷图片失败: %w", err)
	}
	if err := p.paperRepo.UpdateFileID(ctx, paper.ID, fileID); err != nil {
		log.Warnf("[Processor] 保存 file_id 失败, PaperID: %s, Error: %v", paper.ID, err)
	}
	return fileID, nil
}

// toQuestions 把工作流结果转换为题目记录。题目 ID 总是重新生成，避免与历史试卷冲突。
func toQuestions(paper *model.Paper, items []coze.QuestionItem) []model.Question {
	questions := make([]model.Question, 0, len(items))
	for _, item := range items {
		subject := strings.TrimSpace(item.Subject)
		if subject == "" {
			subject = paper.Subject
		}
		questions = append(questions, model.Question{
			UserID:         paper.UserID,
			PaperID:        paper.ID,
			Content:        item.Content,
			UserAnswer:     item.UserAnswer,
			IsCorrect:      item.IsCorrect,
			CorrectAnswer:  item.CorrectAnswer,
			KnowledgePoint: strings.TrimSpace(item.KnowledgePoint),
			Subject:        subject,
			Grade:          paper.Grade,
			QuestionType:   item.QuestionType,
			ErrorAnalysis:  item.ErrorAnalysis,
		})
	}
	return questions
}

func (p *Processor) index(ctx context.Context, questions []model.Question) {
	if p.indexer == nil || len(questions) == 0 {
		return
	}
	docs := make([]model.QuestionDocument, 0, len(questions))
	for _, q := range questions {
		docs = append(docs, model.QuestionDocument{
			QuestionID:     q.ID,
			UserID:         q.UserID,
			PaperID:        q.PaperID,
			Grade:          q.Grade,
			Subject:        q.Subject,
			KnowledgePoint: q.KnowledgePoint,
			QuestionType:   q.QuestionType,
			Content:        q.Content,
			ErrorAnalysis:  q.ErrorAnalysis,
			IsCorrect:      q.IsCorrect,
		})
	}
	if err := p.indexer.Index(ctx, docs); err != nil {
		log.Warnf("[Processor] 写入错题本索引失败: %v", err)
		return
	}
	log.Infof("[Processor] 步骤4: %d 道题目已写入错题本索引", len(docs))
}
