package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shitu-go/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		accuracy float64
		want     MasteryLevel
	}{
		{1, MasteryExpert},
		{0.95, MasteryExpert},
		{0.901, MasteryExpert},
		{0.9, MasteryProficient},
		{0.8, MasteryProficient},
		{0.75, MasteryFamiliar},
		{0.61, MasteryFamiliar},
		{0.6, MasteryUnfamiliar},
		{0.5, MasteryUnfamiliar},
		{0, MasteryUnfamiliar},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.accuracy), "accuracy=%v", c.accuracy)
	}
}

func TestGroupDropsBlankAndKeepsOrder(t *testing.T) {
	batch := []GradedResult{
		{KnowledgePoint: "分数", IsCorrect: boolPtr(true)},
		{KnowledgePoint: "小数", IsCorrect: nil},
		{KnowledgePoint: "  ", IsCorrect: boolPtr(true)},
		{KnowledgePoint: "分数", IsCorrect: boolPtr(false)},
		{KnowledgePoint: "", IsCorrect: boolPtr(true)},
	}

	deltas := Group(batch)

	require.Len(t, deltas, 2)
	assert.Equal(t, Delta{KnowledgePoint: "分数", Total: 2, Correct: 1}, deltas[0])
	assert.Equal(t, Delta{KnowledgePoint: "小数", Total: 1, Correct: 0}, deltas[1])
}

func TestGroupEmptyBatch(t *testing.T) {
	assert.Empty(t, Group(nil))
}

func TestFoldIntoAbsentStat(t *testing.T) {
	batch := []GradedResult{
		{KnowledgePoint: "fractions", IsCorrect: boolPtr(true)},
		{KnowledgePoint: "fractions", IsCorrect: boolPtr(false)},
		{KnowledgePoint: "", IsCorrect: boolPtr(true)},
	}
	deltas := Group(batch)
	require.Len(t, deltas, 1)

	stat := Fold(nil, "u1", 3, "数学", deltas[0])

	assert.Equal(t, "u1", stat.UserID)
	assert.Equal(t, 3, stat.Grade)
	assert.Equal(t, "fractions", stat.KnowledgePoint)
	assert.Equal(t, 2, stat.Total)
	assert.Equal(t, 1, stat.Correct)
	assert.Equal(t, 0.5, stat.Accuracy)
	assert.Equal(t, string(MasteryUnfamiliar), stat.MasteryLevel)
}

func TestFoldIntoExistingStat(t *testing.T) {
	existing := &model.KnowledgeStat{
		UserID: "u1", Grade: 3, Subject: "数学", KnowledgePoint: "fractions",
		Total: 8, Correct: 6, Accuracy: 0.75, MasteryLevel: string(MasteryFamiliar),
	}

	stat := Fold(existing, "u1", 3, "数学", Delta{KnowledgePoint: "fractions", Total: 2, Correct: 2})

	assert.Equal(t, 10, stat.Total)
	assert.Equal(t, 8, stat.Correct)
	assert.Equal(t, 0.8, stat.Accuracy)
	assert.Equal(t, string(MasteryProficient), stat.MasteryLevel)
	assert.Equal(t, 8, existing.Total, "existing stat must not be mutated")
}

func TestFoldAccumulatesAcrossBatches(t *testing.T) {
	batches := [][]GradedResult{
		{{KnowledgePoint: "kp", IsCorrect: boolPtr(true)}, {KnowledgePoint: "kp", IsCorrect: nil}},
		{{KnowledgePoint: "kp", IsCorrect: boolPtr(false)}},
		{{KnowledgePoint: "kp", IsCorrect: boolPtr(true)}, {KnowledgePoint: "kp", IsCorrect: boolPtr(true)}, {KnowledgePoint: "kp", IsCorrect: boolPtr(true)}},
	}

	var current *model.KnowledgeStat
	wantTotal, wantCorrect := 0, 0
	for _, b := range batches {
		for _, d := range Group(b) {
			next := Fold(current, "u1", 1, "数学", d)
			current = &next
			wantTotal += d.Total
			wantCorrect += d.Correct
		}
	}

	require.NotNil(t, current)
	assert.Equal(t, wantTotal, current.Total)
	assert.Equal(t, wantCorrect, current.Correct)
	assert.Equal(t, Round4(float64(4)/float64(6)), current.Accuracy)
	assert.Equal(t, 0.6667, current.Accuracy)
	assert.Equal(t, string(MasteryFamiliar), current.MasteryLevel)
}

func TestAccuracyZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Accuracy(0, 0))
}
