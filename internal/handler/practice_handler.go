package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shitu-go/internal/middleware"
	"shitu-go/internal/service"
	"shitu-go/pkg/log"
)

// PracticeHandler 负责练习的生成、提交与查询。
type PracticeHandler struct {
	practiceService service.PracticeService
}

// NewPracticeHandler 创建一个新的 PracticeHandler 实例。
func NewPracticeHandler(practiceService service.PracticeService) *PracticeHandler {
	return &PracticeHandler{practiceService: practiceService}
}

type generatePracticeRequest struct {
	Grade             int      `json:"grade" binding:"required"`
	Subject           string   `json:"subject" binding:"required"`
	Publisher         string   `json:"publisher"`
	KnowledgePoints   []string `json:"knowledgePoints"`
	QuestionTypeSpecs []string `json:"questionTypeSpecs"`
}

type submitPracticeRequest struct {
	PaperID string                   `json:"paperId"`
	Grade   int                      `json:"grade" binding:"required"`
	Subject string                   `json:"subject" binding:"required"`
	Answers []service.PracticeAnswer `json:"answers"`
}

// Generate 调用出题工作流生成一套练习。
func (h *PracticeHandler) Generate(c *gin.Context) {
	var req generatePracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求参数")
		return
	}
	paper, err := h.practiceService.GeneratePractice(c.Request.Context(), service.GeneratePracticeRequest{
		UserID:            middleware.UserID(c),
		Grade:             req.Grade,
		Subject:           req.Subject,
		Publisher:         req.Publisher,
		KnowledgePoints:   req.KnowledgePoints,
		QuestionTypeSpecs: req.QuestionTypeSpecs,
	})
	if err != nil {
		log.Error("Generate practice failed", err)
		respondServiceError(c, err, "生成练习失败")
		return
	}
	respondOK(c, "生成练习成功", paper)
}

// Submit 提交练习作答并更新知识点统计。
func (h *PracticeHandler) Submit(c *gin.Context) {
	var req submitPracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求参数")
		return
	}
	saved, err := h.practiceService.SubmitPractice(c.Request.Context(), service.SubmitPracticeRequest{
		UserID:  middleware.UserID(c),
		PaperID: req.PaperID,
		Grade:   req.Grade,
		Subject: req.Subject,
		Answers: req.Answers,
	})
	if err != nil {
		respondServiceError(c, err, "提交练习失败")
		return
	}
	respondOK(c, "提交练习成功", saved)
}

// History 返回用户的练习记录。
func (h *PracticeHandler) History(c *gin.Context) {
	items, err := h.practiceService.PracticeHistory(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err, "获取练习记录失败")
		return
	}
	respondOK(c, "获取练习记录成功", items)
}

// Paper 返回一次练习的全部题目。
func (h *PracticeHandler) Paper(c *gin.Context) {
	questions, err := h.practiceService.PracticePaper(c.Request.Context(), middleware.UserID(c), c.Param("paperId"))
	if err != nil {
		respondServiceError(c, err, "获取练习题失败")
		return
	}
	respondOK(c, "获取练习题成功", questions)
}
