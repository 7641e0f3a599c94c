// Package apperr 定义请求级错误分类
// Handler 层据此统一映射 HTTP 状态码
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别
type Kind int

const (
	// KindUnauthorized 凭证缺失或无效 -> 401
	KindUnauthorized Kind = iota
	// KindForbidden 凭证有效但无工作区绑定 -> 403
	KindForbidden
	// KindInvalid 请求体不合法 -> 400
	KindInvalid
	// KindNotFound 资源不存在 -> 404
	KindNotFound
	// KindThrottled 超出限流配额 -> 429
	KindThrottled
	// KindUpstream 模型或嵌入服务失败 -> 500
	KindUpstream
	// KindPersistence 数据库读写失败 -> 500
	KindPersistence
)

// Error 带类别的错误
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter int // 秒，仅 KindThrottled 使用
	Err        error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// Status 映射 HTTP 状态码
func (e *Error) Status() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindThrottled:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Unauthorized 创建 401 错误
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden 创建 403 错误
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Invalid 创建 400 错误
func Invalid(msg string) *Error {
	return &Error{Kind: KindInvalid, Message: msg}
}

// NotFound 创建 404 错误
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Throttled 创建 429 错误
func Throttled(retryAfter int) *Error {
	return &Error{
		Kind:       KindThrottled,
		Message:    fmt.Sprintf("rate limit exceeded, retry in %d seconds", retryAfter),
		RetryAfter: retryAfter,
	}
}

// Upstream 包装上游服务错误
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// Persistence 包装持久化错误
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// From 提取类别化错误；非 *Error 一律归为 500
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindUpstream, Message: err.Error(), Err: err}
}
