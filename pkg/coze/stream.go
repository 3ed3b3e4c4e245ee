package coze

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// 工作流流式响应中的事件名
const (
	eventMessage          = "Message"
	eventError            = "Error"
	eventWorkflowFinished = "workflow_finished"
)

type finishedData struct {
	Data *string `json:"data"`
}

type messageData struct {
	Content      *string         `json:"content"`
	NodeIsFinish json.RawMessage `json:"node_is_finish"`
}

type errorData struct {
	ErrorCode    int64  `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// streamState 记录逐行扫描事件流时的状态。
type streamState struct {
	currentEvent string
	finished     *string
	lastMessage  *string
	finishedMsg  *string
	streamErr    *StreamError
}

// ExtractPayload 从 "event:" / "data:" 行组成的事件流中提取唯一的结果数据。
// workflow_finished 事件的 data 字段优先；否则取节点已完成的 Message，
// 再否则取最后一条内容中包含 "output" 的 Message。
func ExtractPayload(r io.Reader) (string, error) {
	st := &streamState{}
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			st.feed(line)
			if st.finished != nil {
				return *st.finished, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("读取工作流事件流失败: %w", err)
		}
	}
	return st.result()
}

func (st *streamState) feed(line string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return
	case strings.HasPrefix(trimmed, "event:"):
		st.currentEvent = strings.TrimSpace(strings.TrimPrefix(trimmed, "event:"))
	case strings.HasPrefix(trimmed, "data:"):
		st.onData(strings.TrimSpace(strings.TrimPrefix(trimmed, "data:")))
	}
}

func (st *streamState) onData(data string) {
	switch st.currentEvent {
	case eventWorkflowFinished:
		var fd finishedData
		if err := json.Unmarshal([]byte(data), &fd); err == nil && fd.Data != nil {
			st.finished = fd.Data
		}
	case eventMessage:
		var md messageData
		if err := json.Unmarshal([]byte(data), &md); err != nil || md.Content == nil {
			return
		}
		content := *md.Content
		if content == "" || !strings.Contains(content, `"output"`) {
			return
		}
		if isTrue(md.NodeIsFinish) {
			st.finishedMsg = &content
		}
		st.lastMessage = &content
	case eventError:
		var ed errorData
		if err := json.Unmarshal([]byte(data), &ed); err != nil {
			st.streamErr = &StreamError{Message: data}
			return
		}
		st.streamErr = &StreamError{Code: ed.ErrorCode, Message: ed.ErrorMessage}
	}
}

func (st *streamState) result() (string, error) {
	if st.finishedMsg != nil {
		return *st.finishedMsg, nil
	}
	if st.lastMessage != nil {
		return *st.lastMessage, nil
	}
	if st.streamErr != nil {
		return "", st.streamErr
	}
	return "", ErrEmptyPayload
}

// isTrue 兼容布尔 true 与字符串 "true" 两种写法。
func isTrue(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "true" || s == `"true"`
}
