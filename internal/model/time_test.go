package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTimeJSON(t *testing.T) {
	item := PracticeHistoryItem{PaperID: "p1", CreateTime: LocalTime(time.Date(2024, 3, 5, 8, 9, 10, 0, time.Local))}

	b, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"createTime":"2024-03-05 08:09:10"`)

	var back PracticeHistoryItem
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, time.Time(item.CreateTime).Equal(time.Time(back.CreateTime)))
}

func TestLocalTimeZeroIsEmpty(t *testing.T) {
	b, err := json.Marshal(LocalTime{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(b))
}
