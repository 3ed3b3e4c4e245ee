package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shitu-go/internal/middleware"
	"shitu-go/internal/model"
	"shitu-go/internal/service"
	"shitu-go/internal/stats"
	"shitu-go/pkg/token"
)

type fakeAdviceService struct {
	result *model.AdviceResult
	err    error
	args   []interface{}
}

func (f *fakeAdviceService) GetAdvice(_ context.Context, userID string, grade int, subject, textbook string) (*model.AdviceResult, error) {
	f.args = []interface{}{userID, grade, subject, textbook}
	return f.result, f.err
}

type fakeKnowledgeService struct {
	report  []model.KnowledgeReportItem
	results []stats.GradedResult
}

func (f *fakeKnowledgeService) SubmitGradedBatch(_ context.Context, _ string, _ int, _ string, results []stats.GradedResult) error {
	f.results = results
	return nil
}

func (f *fakeKnowledgeService) GetKnowledgeReport(context.Context, string, int, string) ([]model.KnowledgeReportItem, error) {
	return f.report, nil
}

type fakePaperService struct{}

func (fakePaperService) UploadPaper(context.Context, service.UploadPaperRequest) (*model.Paper, error) {
	return &model.Paper{ID: "p1", Status: model.PaperStatusPending}, nil
}

func (fakePaperService) GetPaper(context.Context, string, string) (*model.PaperDetail, error) {
	return nil, service.ErrNotFound
}

type fakePracticeService struct {
	service.PracticeService
}

func (fakePracticeService) GeneratePractice(context.Context, service.GeneratePracticeRequest) (*service.PracticePaper, error) {
	return nil, fmt.Errorf("%w: timeout", service.ErrUpstream)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

const testSecret = "test-secret"

func newRouter(advice service.AdviceService, knowledge service.KnowledgeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(token.NewJWTManager(testSecret, 1)))
	api.POST("/advice", NewAdviceHandler(advice).GetAdvice)
	api.POST("/knowledge/batches", NewKnowledgeHandler(knowledge).SubmitBatch)
	api.GET("/knowledge/report", NewKnowledgeHandler(knowledge).Report)
	api.POST("/papers", NewPaperHandler(fakePaperService{}).Upload)
	api.GET("/papers/:paperId", NewPaperHandler(fakePaperService{}).Get)
	api.POST("/practice/generate", NewPracticeHandler(fakePracticeService{}).Generate)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	tok, err := token.NewJWTManager(testSecret, 1).GenerateToken("u1", "xiaoming")
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestAdviceFailureStillOK(t *testing.T) {
	advice := &fakeAdviceService{result: &model.AdviceResult{Summary: "获取建议失败", Suggestions: []string{"boom"}}}
	r := newRouter(advice, &fakeKnowledgeService{})

	w, env := do(t, r, http.MethodPost, "/api/v1/advice", `{"grade":3,"subject":"数学","publisher":"人教版"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"u1", 3, "数学", "人教版"}, advice.args)

	var result model.AdviceResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "获取建议失败", result.Summary)
}

func TestAdviceRejectsMissingSubject(t *testing.T) {
	r := newRouter(&fakeAdviceService{}, &fakeKnowledgeService{})
	w, _ := do(t, r, http.MethodPost, "/api/v1/advice", `{"grade":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKnowledgeEndpoints(t *testing.T) {
	knowledge := &fakeKnowledgeService{report: []model.KnowledgeReportItem{{KnowledgePoint: "分数", Accuracy: 0.5, MasteryLevel: "不明白", Correct: 1, Total: 2}}}
	r := newRouter(&fakeAdviceService{}, knowledge)

	w, _ := do(t, r, http.MethodPost, "/api/v1/knowledge/batches",
		`{"grade":3,"subject":"数学","results":[{"knowledgePoint":"分数","isCorrect":true},{"knowledgePoint":"小数","isCorrect":null}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, knowledge.results, 2)
	assert.True(t, *knowledge.results[0].IsCorrect)
	assert.Nil(t, knowledge.results[1].IsCorrect)

	w, env := do(t, r, http.MethodGet, "/api/v1/knowledge/report?grade=3&subject=%E6%95%B0%E5%AD%A6", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var report []model.KnowledgeReportItem
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, knowledge.report, report)

	w, _ = do(t, r, http.MethodGet, "/api/v1/knowledge/report?subject=%E6%95%B0%E5%AD%A6", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	r := newRouter(&fakeAdviceService{}, &fakeKnowledgeService{})

	w, _ := do(t, r, http.MethodGet, "/api/v1/papers/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/practice/generate", `{"grade":3,"subject":"数学"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/v1/papers", `{"grade":3,"subject":"数学","image":"aW1n"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, http.StatusAccepted, env.Code)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	r := newRouter(&fakeAdviceService{}, &fakeKnowledgeService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/advice", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
