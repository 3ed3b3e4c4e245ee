package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shitu-go/internal/advice"
	"shitu-go/internal/config"
	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/pkg/coze"
)

type cacheEntry struct {
	key     repository.AdviceCacheKey
	content string
}

type fakeCache struct {
	entries   []cacheEntry
	lookupErr error
	insertErr error
	inserts   int
}

func (f *fakeCache) Lookup(_ context.Context, key repository.AdviceCacheKey) (*model.AdviceHistory, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].key == key {
			return &model.AdviceHistory{ID: uint(i + 1), ResponseContent: f.entries[i].content}, nil
		}
	}
	return nil, nil
}

func (f *fakeCache) Insert(_ context.Context, key repository.AdviceCacheKey, content string) error {
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, cacheEntry{key: key, content: content})
	return nil
}

type fakeAdvisor struct {
	result *model.AdviceResult
	err    error
	calls  int
	inputs []model.AdviceInput
}

func (f *fakeAdvisor) GetLearningAdvice(_ context.Context, input model.AdviceInput) (*model.AdviceResult, error) {
	f.calls++
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

type adviceFixture struct {
	stats     *fakeStatRepo
	questions *fakeQuestionRepo
	cache     *fakeCache
	advisor   *fakeAdvisor
	svc       AdviceService
}

func newAdviceFixture() *adviceFixture {
	f := &adviceFixture{
		stats: &fakeStatRepo{rows: []model.KnowledgeStat{
			{KnowledgePoint: "分数", Accuracy: 0.3333, MasteryLevel: "不明白"},
			{KnowledgePoint: "小数", Accuracy: 0.8, MasteryLevel: "掌握"},
		}},
		questions: &fakeQuestionRepo{analyses: map[string][]string{"分数": {"通分错误"}}},
		cache:     &fakeCache{},
		advisor: &fakeAdvisor{result: &model.AdviceResult{
			Summary:     "```markdown\n多练习**【分数】**\n```",
			Tone:        "鼓励",
			Suggestions: []string{"每天十道题"},
		}},
	}
	f.svc = NewAdviceService(f.stats, f.questions, f.cache, f.advisor, config.AdviceConfig{})
	return f
}

func TestGetAdviceMissThenHit(t *testing.T) {
	f := newAdviceFixture()
	ctx := context.Background()

	first, err := f.svc.GetAdvice(ctx, "u1", 3, "数学", "人教版")
	require.NoError(t, err)
	assert.Equal(t, "多练习 **【分数】**", first.Summary)
	assert.Equal(t, []string{"每天十道题"}, first.Suggestions)
	assert.NotEmpty(t, first.DebugInput)
	assert.Equal(t, 1, f.advisor.calls)
	require.Len(t, f.cache.entries, 1)

	key := f.cache.entries[0].key
	assert.Equal(t, "3", key.Grade)
	assert.Equal(t, "人教版", key.Textbook)
	want, err := advice.Fingerprint(f.advisor.inputs[0])
	require.NoError(t, err)
	assert.Equal(t, want, key.RequestHash)

	second, err := f.svc.GetAdvice(ctx, "u1", 3, "数学", "人教版")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.advisor.calls)
}

func TestGetAdviceBuildsInputFromWeakestStats(t *testing.T) {
	f := newAdviceFixture()

	_, err := f.svc.GetAdvice(context.Background(), "u1", 3, "数学", "")
	require.NoError(t, err)

	assert.Equal(t, 10, f.stats.lastLimit)
	assert.Equal(t, 5, f.questions.lastLimit)
	input := f.advisor.inputs[0]
	assert.Equal(t, "3年级", input.Grade)
	require.Len(t, input.KnowledgeStats, 2)
	assert.Equal(t, model.AdviceStat{KnowledgePoint: "分数", Accuracy: 0.3333, Proficiency: "不明白", ErrorAnalyses: []string{"通分错误"}}, input.KnowledgeStats[0])
	assert.Equal(t, []string{}, input.KnowledgeStats[1].ErrorAnalyses)
}

func TestGetAdviceChangedStatsMissesCache(t *testing.T) {
	f := newAdviceFixture()
	ctx := context.Background()

	_, err := f.svc.GetAdvice(ctx, "u1", 3, "数学", "")
	require.NoError(t, err)
	f.stats.rows[0].Accuracy = 0.5

	_, err = f.svc.GetAdvice(ctx, "u1", 3, "数学", "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.advisor.calls)
	require.Len(t, f.cache.entries, 2)
	assert.NotEqual(t, f.cache.entries[0].key.RequestHash, f.cache.entries[1].key.RequestHash)
}

func TestGetAdviceCorruptCacheEntryIsMiss(t *testing.T) {
	f := newAdviceFixture()
	ctx := context.Background()

	_, err := f.svc.GetAdvice(ctx, "u1", 3, "数学", "")
	require.NoError(t, err)
	f.cache.entries[0].content = "{not json"

	result, err := f.svc.GetAdvice(ctx, "u1", 3, "数学", "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.advisor.calls)
	assert.Equal(t, "鼓励", result.Tone)
}

func TestGetAdviceLookupErrorIsMiss(t *testing.T) {
	f := newAdviceFixture()
	f.cache.lookupErr = errors.New("db down")

	result, err := f.svc.GetAdvice(context.Background(), "u1", 3, "数学", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.advisor.calls)
	assert.Equal(t, "鼓励", result.Tone)
}

func TestGetAdviceCacheWriteFailureStillReturnsAdvice(t *testing.T) {
	f := newAdviceFixture()
	f.cache.insertErr = errors.New("disk full")

	result, err := f.svc.GetAdvice(context.Background(), "u1", 3, "数学", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.inserts)
	assert.Equal(t, []string{"每天十道题"}, result.Suggestions)
}

func TestGetAdviceFailuresAreNotCached(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		summary     string
		suggestions []string
	}{
		{
			name:        "status",
			err:         &coze.StatusError{StatusCode: 500, Body: "upstream boom"},
			summary:     "获取建议失败",
			suggestions: []string{"upstream boom"},
		},
		{
			name:        "stream",
			err:         &coze.StreamError{Code: 4000, Message: "workflow crashed"},
			summary:     "获取建议失败",
			suggestions: []string{"workflow crashed"},
		},
		{
			name:        "empty",
			err:         coze.ErrEmptyPayload,
			summary:     "获取建议失败",
			suggestions: []string{coze.ErrEmptyPayload.Error()},
		},
		{
			name:        "decode",
			err:         &coze.DecodeError{Raw: "[1,2]", Err: errors.New("unexpected array")},
			summary:     "解析建议失败",
			suggestions: []string{"unexpected array", "Raw JSON:", "[1,2]"},
		},
		{
			name:        "transport",
			err:         fmt.Errorf("请求工作流失败: %w", context.DeadlineExceeded),
			summary:     "系统错误",
			suggestions: []string{"请求工作流失败: context deadline exceeded"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newAdviceFixture()
			f.advisor.err = c.err

			result, err := f.svc.GetAdvice(context.Background(), "u1", 3, "数学", "")
			require.NoError(t, err)
			assert.Equal(t, c.summary, result.Summary)
			assert.Equal(t, c.suggestions, result.Suggestions)
			assert.NotEmpty(t, result.DebugInput)
			assert.Equal(t, 0, f.cache.inserts)
		})
	}
}

func TestGetAdviceStatFailurePropagates(t *testing.T) {
	f := newAdviceFixture()
	f.stats.err = errStorage

	_, err := f.svc.GetAdvice(context.Background(), "u1", 3, "数学", "")
	assert.ErrorIs(t, err, errStorage)
	assert.Equal(t, 0, f.advisor.calls)
}

func TestCachedPayloadReturnedUnchanged(t *testing.T) {
	f := newAdviceFixture()
	ctx := context.Background()

	_, err := f.svc.GetAdvice(ctx, "u1", 3, "数学", "")
	require.NoError(t, err)
	stored := model.AdviceResult{Summary: "```旧的**【内容】**```", Suggestions: []string{"a"}, DebugInput: "old"}
	b, err := json.Marshal(stored)
	require.NoError(t, err)
	f.cache.entries = append(f.cache.entries, cacheEntry{key: f.cache.entries[0].key, content: string(b)})

	result, err := f.svc.GetAdvice(ctx, "u1", 3, "数学", "")
	require.NoError(t, err)
	assert.Equal(t, &stored, result)
}
