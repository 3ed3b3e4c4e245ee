// Package service 包含了应用的业务逻辑层。
package service

import "errors"

var (
	// ErrNotFound 表示记录不存在，或不属于当前用户。
	ErrNotFound = errors.New("记录不存在")
	// ErrInvalidInput 表示请求参数不合法。
	ErrInvalidInput = errors.New("请求参数不合法")
)

// ErrUpstream 表示外部工作流调用失败。
var ErrUpstream = errors.New("外部服务调用失败")
