package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shitu-go/internal/middleware"
	"shitu-go/internal/service"
	"shitu-go/pkg/log"
)

// AdviceHandler 负责学习建议请求。
type AdviceHandler struct {
	adviceService service.AdviceService
}

// NewAdviceHandler 创建一个新的 AdviceHandler 实例。
func NewAdviceHandler(adviceService service.AdviceService) *AdviceHandler {
	return &AdviceHandler{adviceService: adviceService}
}

type adviceRequest struct {
	Grade     int    `json:"grade" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	Publisher string `json:"publisher"`
}

// GetAdvice 返回学习建议。工作流失败也以 200 返回，失败原因写在建议内容中。
func (h *AdviceHandler) GetAdvice(c *gin.Context) {
	var req adviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求参数")
		return
	}
	userID := middleware.UserID(c)
	log.Infof("[AdviceHandler] 收到建议请求, user: %s, grade: %d, subject: %s, publisher: %s", userID, req.Grade, req.Subject, req.Publisher)

	result, err := h.adviceService.GetAdvice(c.Request.Context(), userID, req.Grade, req.Subject, req.Publisher)
	if err != nil {
		log.Error("GetAdvice failed", err)
		respondServiceError(c, err, "获取学习建议失败")
		return
	}
	respondOK(c, "获取学习建议成功", result)
}
