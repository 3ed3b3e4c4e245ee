// Package coze 封装了对外部 AI 工作流平台的调用：文件上传、试卷解析、练习生成与学习建议。
package coze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"shitu-go/internal/config"
	"shitu-go/internal/model"
	"shitu-go/pkg/log"
)

// Client 定义了工作流平台客户端的接口。
type Client interface {
	// UploadFile 上传图片并返回平台侧的 file_id。
	UploadFile(ctx context.Context, data []byte, fileName string) (string, error)
	// ParsePaper 调用试卷解析工作流，返回识别并批改后的题目。
	ParsePaper(ctx context.Context, req ParsePaperRequest) ([]QuestionItem, error)
	// GeneratePractice 调用出题工作流。
	GeneratePractice(ctx context.Context, req GeneratePracticeRequest) ([]QuestionItem, error)
	// GetLearningAdvice 调用学习建议工作流。失败时返回 *StatusError、*StreamError、*DecodeError、
	// ErrEmptyPayload 或包装后的传输错误（含超时）。
	GetLearningAdvice(ctx context.Context, input model.AdviceInput) (*model.AdviceResult, error)
}

// ParsePaperRequest 是试卷解析工作流的参数。Grade 为展示文本，例如 "3年级"。
type ParsePaperRequest struct {
	FileID    string
	Grade     string
	Subject   string
	Publisher string
}

// GeneratePracticeRequest 是出题工作流的参数。
type GeneratePracticeRequest struct {
	Grade             string   `json:"grade"`
	KnowledgePoints   []string `json:"knowledgePoints"`
	QuestionTypeSpecs []string `json:"questionTypeSpecs"`
	Subject           string   `json:"subject"`
	Publisher         string   `json:"publisher"`
}

type workflowRequest struct {
	WorkflowID string      `json:"workflow_id"`
	Parameters interface{} `json:"parameters"`
}

type uploadResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type cozeClient struct {
	cfg    config.CozeConfig
	client *http.Client
}

// Option 自定义客户端。
type Option func(*cozeClient)

// WithHTTPClient 替换底层 http.Client。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *cozeClient) {
		c.client = hc
	}
}

// NewClient 创建工作流客户端，请求超时取自配置。
func NewClient(cfg config.CozeConfig, opts ...Option) Client {
	c := &cozeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *cozeClient) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *cozeClient) UploadFile(ctx context.Context, data []byte, fileName string) (string, error) {
	if c.cfg.BaseURL == "" || c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("创建上传表单失败: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("写入上传表单失败: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("关闭上传表单失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files/upload"), &body)
	if err != nil {
		return "", fmt.Errorf("创建上传请求失败: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用文件上传接口失败: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取上传响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(respBytes)}
	}

	var ur uploadResponse
	if err := json.Unmarshal(respBytes, &ur); err != nil {
		return "", &DecodeError{Raw: string(respBytes), Err: err}
	}
	if ur.Data.ID == "" {
		return "", &DecodeError{Raw: string(respBytes), Err: fmt.Errorf("上传响应缺少 data.id")}
	}
	log.Infof("[CozeClient] 文件上传成功, fileName: %s, fileId: %s", fileName, ur.Data.ID)
	return ur.Data.ID, nil
}

// runWorkflow 调用 stream_run 接口并从事件流中提取结果数据。
func (c *cozeClient) runWorkflow(ctx context.Context, workflowID string, parameters interface{}) (Payload, error) {
	if c.cfg.BaseURL == "" || c.cfg.APIKey == "" || workflowID == "" {
		return Payload{}, ErrNotConfigured
	}

	reqBytes, err := json.Marshal(workflowRequest{WorkflowID: workflowID, Parameters: parameters})
	if err != nil {
		return Payload{}, fmt.Errorf("序列化工作流请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/workflow/stream_run"), bytes.NewReader(reqBytes))
	if err != nil {
		return Payload{}, fmt.Errorf("创建工作流请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("调用工作流接口失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Payload{}, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	raw, err := ExtractPayload(resp.Body)
	if err != nil {
		return Payload{}, err
	}
	p, err := DecodePayload(raw)
	if err != nil {
		return Payload{}, err
	}
	log.Infof("[CozeClient] 工作流 %s 返回结果, 形态: %s", workflowID, p.Shape)
	return p, nil
}

func (c *cozeClient) ParsePaper(ctx context.Context, req ParsePaperRequest) ([]QuestionItem, error) {
	image, err := json.Marshal(map[string]string{"file_id": req.FileID})
	if err != nil {
		return nil, fmt.Errorf("序列化图片参数失败: %w", err)
	}
	params := map[string]string{
		"grade":     req.Grade,
		"subject":   req.Subject,
		"publisher": req.Publisher,
		"image":     string(image),
	}
	p, err := c.runWorkflow(ctx, c.cfg.WorkflowIDParse, params)
	if err != nil {
		return nil, err
	}
	return DecodeQuestions(p)
}

func (c *cozeClient) GeneratePractice(ctx context.Context, req GeneratePracticeRequest) ([]QuestionItem, error) {
	if req.KnowledgePoints == nil {
		req.KnowledgePoints = []string{}
	}
	if req.QuestionTypeSpecs == nil {
		req.QuestionTypeSpecs = []string{}
	}
	p, err := c.runWorkflow(ctx, c.cfg.WorkflowIDGenerate, req)
	if err != nil {
		return nil, err
	}
	return DecodeQuestions(p)
}

func (c *cozeClient) GetLearningAdvice(ctx context.Context, input model.AdviceInput) (*model.AdviceResult, error) {
	p, err := c.runWorkflow(ctx, c.cfg.WorkflowIDAdvice, map[string]interface{}{"input": input})
	if err != nil {
		return nil, err
	}
	return DecodeAdvice(p)
}
