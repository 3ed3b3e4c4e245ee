package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shitu-go/internal/model"
)

func TestPracticeHistoryGroupsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewPracticeQuestionRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateBatch(ctx, []model.PracticeQuestion{
		{ID: "a1", PaperID: "old", UserID: "u1", Content: "x", Subject: "数学", Grade: 3, QuestionType: "填空题", CreatedAt: base},
		{ID: "a2", PaperID: "old", UserID: "u1", Content: "x", Subject: "数学", Grade: 3, QuestionType: "选择题", CreatedAt: base.Add(time.Minute)},
		{ID: "b1", PaperID: "new", UserID: "u1", Content: "x", Subject: "语文", Grade: 3, QuestionType: "选择题", CreatedAt: base.Add(time.Hour)},
		{ID: "c1", PaperID: "other", UserID: "u2", Content: "x", Subject: "数学", Grade: 3, CreatedAt: base.Add(2 * time.Hour)},
	}))

	history, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "new", history[0].PaperID)
	assert.Equal(t, 1, history[0].QuestionCount)
	assert.Equal(t, "old", history[1].PaperID)
	assert.Equal(t, 2, history[1].QuestionCount)
	assert.True(t, time.Time(history[1].CreateTime).Equal(base.Add(time.Minute)))

	paper, err := repo.ListByPaper(ctx, "old")
	require.NoError(t, err)
	require.Len(t, paper, 2)
	assert.Equal(t, "a1", paper[0].ID)
}
