package es

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchBodyFilters(t *testing.T) {
	body := buildSearchBody(QuestionSearchQuery{UserID: "u1", Text: "通分", Grade: 3, Subject: "数学", OnlyWrong: true})

	b, err := json.Marshal(body)
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, `{"term":{"user_id":"u1"}}`)
	assert.Contains(t, s, `{"term":{"grade":3}}`)
	assert.Contains(t, s, `{"term":{"subject":"数学"}}`)
	assert.Contains(t, s, `{"term":{"is_correct":false}}`)
	assert.Contains(t, s, `"size":10`)
}

func TestBuildSearchBodyOnlyUserFilterByDefault(t *testing.T) {
	body := buildSearchBody(QuestionSearchQuery{UserID: "u1", Text: "分数", TopK: 3})

	filters := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]map[string]interface{})
	assert.Len(t, filters, 1)
	assert.Equal(t, 3, body["size"])
}
