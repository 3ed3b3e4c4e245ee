package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shitu-go/internal/middleware"
	"shitu-go/internal/service"
	"shitu-go/pkg/log"
)

// PaperHandler 负责试卷上传与查询相关的 API 请求。
type PaperHandler struct {
	paperService service.PaperService
}

// NewPaperHandler 创建一个新的 PaperHandler 实例。
func NewPaperHandler(paperService service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

type uploadPaperRequest struct {
	Grade     int    `json:"grade" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	Publisher string `json:"publisher"`
	Image     string `json:"image" binding:"required"`
}

// Upload 处理试卷上传，批改在后台异步完成。
func (h *PaperHandler) Upload(c *gin.Context) {
	var req uploadPaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	paper, err := h.paperService.UploadPaper(c.Request.Context(), service.UploadPaperRequest{
		UserID:    middleware.UserID(c),
		Grade:     req.Grade,
		Subject:   req.Subject,
		Publisher: req.Publisher,
		Image:     req.Image,
	})
	if err != nil {
		log.Error("Upload paper failed", err)
		respondServiceError(c, err, "试卷上传失败")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"code":    http.StatusAccepted,
		"message": "试卷已上传，正在批改",
		"data":    paper,
	})
}

// Get 返回试卷批改状态及题目。
func (h *PaperHandler) Get(c *gin.Context) {
	detail, err := h.paperService.GetPaper(c.Request.Context(), middleware.UserID(c), c.Param("paperId"))
	if err != nil {
		respondServiceError(c, err, "获取试卷失败")
		return
	}
	respondOK(c, "获取试卷成功", detail)
}
