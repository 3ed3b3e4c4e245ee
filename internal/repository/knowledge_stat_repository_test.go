package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shitu-go/internal/stats"
)

func TestApplyBatchCreatesStat(t *testing.T) {
	db := newTestDB(t)
	repo := NewKnowledgeStatRepository(db)
	ctx := context.Background()

	err := repo.ApplyBatch(ctx, nil, "u1", 3, "数学", []stats.GradedResult{
		{KnowledgePoint: "fractions", IsCorrect: boolPtr(true)},
		{KnowledgePoint: "fractions", IsCorrect: boolPtr(false)},
		{KnowledgePoint: "", IsCorrect: boolPtr(true)},
	})
	require.NoError(t, err)

	stat, err := repo.Get(ctx, "u1", 3, "数学", "fractions")
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, 2, stat.Total)
	assert.Equal(t, 1, stat.Correct)
	assert.Equal(t, 0.5, stat.Accuracy)
	assert.Equal(t, string(stats.MasteryUnfamiliar), stat.MasteryLevel)

	blank, err := repo.Get(ctx, "u1", 3, "数学", "")
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestApplyBatchAccumulates(t *testing.T) {
	db := newTestDB(t)
	repo := NewKnowledgeStatRepository(db)
	ctx := context.Background()

	first := make([]stats.GradedResult, 0, 8)
	for i := 0; i < 8; i++ {
		first = append(first, stats.GradedResult{KnowledgePoint: "fractions", IsCorrect: boolPtr(i < 6)})
	}
	require.NoError(t, repo.ApplyBatch(ctx, nil, "u1", 3, "数学", first))

	stat, err := repo.Get(ctx, "u1", 3, "数学", "fractions")
	require.NoError(t, err)
	assert.Equal(t, 0.75, stat.Accuracy)
	assert.Equal(t, string(stats.MasteryFamiliar), stat.MasteryLevel)

	require.NoError(t, repo.ApplyBatch(ctx, nil, "u1", 3, "数学", []stats.GradedResult{
		{KnowledgePoint: "fractions", IsCorrect: boolPtr(true)},
		{KnowledgePoint: "fractions", IsCorrect: boolPtr(true)},
	}))

	stat, err = repo.Get(ctx, "u1", 3, "数学", "fractions")
	require.NoError(t, err)
	assert.Equal(t, 10, stat.Total)
	assert.Equal(t, 8, stat.Correct)
	assert.Equal(t, 0.8, stat.Accuracy)
	assert.Equal(t, string(stats.MasteryProficient), stat.MasteryLevel)
}

func TestApplyBatchKeysAreIsolated(t *testing.T) {
	db := newTestDB(t)
	repo := NewKnowledgeStatRepository(db)
	ctx := context.Background()

	batch := []stats.GradedResult{{KnowledgePoint: "kp", IsCorrect: boolPtr(true)}}
	require.NoError(t, repo.ApplyBatch(ctx, nil, "u1", 3, "数学", batch))
	require.NoError(t, repo.ApplyBatch(ctx, nil, "u1", 4, "数学", batch))
	require.NoError(t, repo.ApplyBatch(ctx, nil, "u2", 3, "数学", batch))
	require.NoError(t, repo.ApplyBatch(ctx, nil, "u1", 3, "语文", batch))

	for _, grade := range []int{3, 4} {
		stat, err := repo.Get(ctx, "u1", grade, "数学", "kp")
		require.NoError(t, err)
		require.NotNil(t, stat)
		assert.Equal(t, 1, stat.Total)
	}
}

func TestApplyBatchRollsBackWithCallerTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewKnowledgeStatRepository(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.ApplyBatch(ctx, tx, "u1", 3, "数学", []stats.GradedResult{
			{KnowledgePoint: "a", IsCorrect: boolPtr(true)},
			{KnowledgePoint: "b", IsCorrect: boolPtr(false)},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := repo.ListByAccuracy(ctx, "u1", 3, "数学", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListByAccuracyAscendingWithLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewKnowledgeStatRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ApplyBatch(ctx, nil, "u1", 3, "数学", []stats.GradedResult{
		{KnowledgePoint: "strong", IsCorrect: boolPtr(true)},
		{KnowledgePoint: "weak", IsCorrect: boolPtr(false)},
		{KnowledgePoint: "mid", IsCorrect: boolPtr(true)},
		{KnowledgePoint: "mid", IsCorrect: boolPtr(false)},
	}))

	all, err := repo.ListByAccuracy(ctx, "u1", 3, "数学", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"weak", "mid", "strong"}, []string{all[0].KnowledgePoint, all[1].KnowledgePoint, all[2].KnowledgePoint})

	limited, err := repo.ListByAccuracy(ctx, "u1", 3, "数学", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
