package advice

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shitu-go/internal/model"
)

func sampleInput() model.AdviceInput {
	return model.AdviceInput{
		UserID:   "u1",
		Grade:    GradeLabel(3),
		Subject:  "数学",
		Textbook: "人教版",
		KnowledgeStats: []model.AdviceStat{
			{KnowledgePoint: "分数", Accuracy: 0.5, Proficiency: "不明白", ErrorAnalyses: []string{"通分错误"}},
			{KnowledgePoint: "小数", Accuracy: 0.8, Proficiency: "掌握"},
		},
	}
}

func TestGradeLabel(t *testing.T) {
	assert.Equal(t, "3年级", GradeLabel(3))
}

func TestFingerprintDeterministic(t *testing.T) {
	a, err := Fingerprint(sampleInput())
	require.NoError(t, err)
	b, err := Fingerprint(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestFingerprintNilAndEmptySlicesMatch(t *testing.T) {
	withNil := sampleInput()
	withEmpty := sampleInput()
	withEmpty.KnowledgeStats[1].ErrorAnalyses = []string{}

	a, err := Fingerprint(withNil)
	require.NoError(t, err)
	b, err := Fingerprint(withEmpty)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFingerprintChangesWithAnyField(t *testing.T) {
	base, err := Fingerprint(sampleInput())
	require.NoError(t, err)

	mutations := map[string]func(*model.AdviceInput){
		"user":      func(in *model.AdviceInput) { in.UserID = "u2" },
		"grade":     func(in *model.AdviceInput) { in.Grade = GradeLabel(4) },
		"subject":   func(in *model.AdviceInput) { in.Subject = "语文" },
		"textbook":  func(in *model.AdviceInput) { in.Textbook = "" },
		"accuracy":  func(in *model.AdviceInput) { in.KnowledgeStats[0].Accuracy = 0.51 },
		"level":     func(in *model.AdviceInput) { in.KnowledgeStats[1].Proficiency = "了解" },
		"analysis":  func(in *model.AdviceInput) { in.KnowledgeStats[0].ErrorAnalyses = append(in.KnowledgeStats[0].ErrorAnalyses, "审题") },
		"reordered": func(in *model.AdviceInput) { in.KnowledgeStats[0], in.KnowledgeStats[1] = in.KnowledgeStats[1], in.KnowledgeStats[0] },
		"truncated": func(in *model.AdviceInput) { in.KnowledgeStats = in.KnowledgeStats[:1] },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := sampleInput()
			mutate(&in)
			got, err := Fingerprint(in)
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestCanonicalFieldOrder(t *testing.T) {
	b, err := Canonical(model.AdviceInput{UserID: "u", Grade: "1年级", Subject: "数学"})
	require.NoError(t, err)
	assert.Equal(t, `{"userId":"u","grade":"1年级","subject":"数学","textbook":"","knowledgeStats":[]}`, string(b))
}

func TestDebugInputIsIndented(t *testing.T) {
	out := DebugInput(sampleInput())
	assert.Contains(t, out, "\n  \"userId\": \"u1\"")
}
