package coze

import (
	"errors"
	"fmt"
)

// ErrEmptyPayload 表示工作流流式响应中没有可用的结果数据。
var ErrEmptyPayload = errors.New("coze: 工作流未返回结果数据")

// ErrNotConfigured 表示缺少 base_url、api_key 或工作流 ID 配置。
var ErrNotConfigured = errors.New("coze: 缺少必要配置")

// StatusError 表示接口返回了非 2xx 状态码。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coze: 接口返回非成功状态 %d: %s", e.StatusCode, e.Body)
}

// StreamError 表示工作流在事件流中报告了错误事件。
type StreamError struct {
	Code    int64
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("coze: 工作流执行出错 (code=%d): %s", e.Code, e.Message)
}

// DecodeError 表示拿到了结果数据但无法解析为期望的结构。
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("coze: 解析结果失败: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
