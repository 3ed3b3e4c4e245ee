package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shitu-go/internal/middleware"
	"shitu-go/internal/repository"
	"shitu-go/internal/service"
	"shitu-go/pkg/es"
)

// QuestionHandler 负责题目查询与错题本检索。
type QuestionHandler struct {
	questionService service.QuestionService
}

// NewQuestionHandler 创建一个新的 QuestionHandler 实例。
func NewQuestionHandler(questionService service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

type listQuestionsQuery struct {
	Grade          int    `form:"grade"`
	Subject        string `form:"subject"`
	KnowledgePoint string `form:"kp"`
	OnlyWrong      bool   `form:"onlyWrong"`
}

type searchQuestionsQuery struct {
	Query     string `form:"query" binding:"required"`
	Grade     int    `form:"grade"`
	Subject   string `form:"subject"`
	OnlyWrong bool   `form:"onlyWrong"`
	TopK      int    `form:"topK"`
}

// List 按年级、学科与知识点列出题目。
func (h *QuestionHandler) List(c *gin.Context) {
	var q listQuestionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "无效的查询参数")
		return
	}
	questions, err := h.questionService.ListQuestions(c.Request.Context(), repository.QuestionFilter{
		UserID:         middleware.UserID(c),
		Grade:          q.Grade,
		Subject:        q.Subject,
		KnowledgePoint: q.KnowledgePoint,
		OnlyWrong:      q.OnlyWrong,
	})
	if err != nil {
		respondServiceError(c, err, "获取题目失败")
		return
	}
	respondOK(c, "获取题目成功", questions)
}

// Search 在错题本中做全文检索。
func (h *QuestionHandler) Search(c *gin.Context) {
	var q searchQuestionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "缺少检索词")
		return
	}
	results, err := h.questionService.SearchQuestions(c.Request.Context(), es.QuestionSearchQuery{
		UserID:    middleware.UserID(c),
		Text:      q.Query,
		Grade:     q.Grade,
		Subject:   q.Subject,
		OnlyWrong: q.OnlyWrong,
		TopK:      q.TopK,
	})
	if err != nil {
		respondServiceError(c, err, "检索失败")
		return
	}
	respondOK(c, "检索成功", results)
}
