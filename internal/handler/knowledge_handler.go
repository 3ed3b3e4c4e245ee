package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shitu-go/internal/middleware"
	"shitu-go/internal/service"
	"shitu-go/internal/stats"
	"shitu-go/pkg/log"
)

// KnowledgeHandler 负责知识点统计相关的 API 请求。
type KnowledgeHandler struct {
	knowledgeService service.KnowledgeService
}

// NewKnowledgeHandler 创建一个新的 KnowledgeHandler 实例。
func NewKnowledgeHandler(knowledgeService service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

type submitBatchRequest struct {
	Grade   int                  `json:"grade" binding:"required"`
	Subject string               `json:"subject" binding:"required"`
	Results []stats.GradedResult `json:"results"`
}

// gradeSubjectQuery 是按年级、学科查询的通用参数。
type gradeSubjectQuery struct {
	Grade   int    `form:"grade" binding:"required"`
	Subject string `form:"subject" binding:"required"`
}

// SubmitBatch 将一批已批改结果累加进统计。
func (h *KnowledgeHandler) SubmitBatch(c *gin.Context) {
	var req submitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求参数")
		return
	}
	userID := middleware.UserID(c)
	if err := h.knowledgeService.SubmitGradedBatch(c.Request.Context(), userID, req.Grade, req.Subject, req.Results); err != nil {
		log.Errorf("SubmitBatch: failed for user %s, err: %v", userID, err)
		respondServiceError(c, err, "更新知识点统计失败")
		return
	}
	respondOK(c, "知识点统计已更新", nil)
}

// Report 返回按正确率升序排列的掌握报告。
func (h *KnowledgeHandler) Report(c *gin.Context) {
	var q gradeSubjectQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "缺少年级或学科参数")
		return
	}
	report, err := h.knowledgeService.GetKnowledgeReport(c.Request.Context(), middleware.UserID(c), q.Grade, q.Subject)
	if err != nil {
		log.Error("Report: failed", err)
		respondServiceError(c, err, "获取知识点报告失败")
		return
	}
	respondOK(c, "获取知识点报告成功", report)
}
