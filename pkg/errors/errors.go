// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 资源错误 (3xxx)
	CodeProjectNotFound ErrorCode = "3001"
	CodeChapterNotFound ErrorCode = "3002"
	CodeEntityNotFound  ErrorCode = "3003"
	CodeStyleNotFound   ErrorCode = "3004"

	// 业务错误 (4xxx)
	CodePreconditionFailure ErrorCode = "4001"
	CodeInputTooLarge       ErrorCode = "4002"
	CodeGenerationInFlight  ErrorCode = "4003"
	CodeInvalidStage        ErrorCode = "4004"

	// 生成网关错误 (5xxx)
	CodeSchemaViolation   ErrorCode = "5001"
	CodeEmptyResponse     ErrorCode = "5002"
	CodeAuthFailure       ErrorCode = "5003"
	CodeMissingCredential ErrorCode = "5004"
	CodeRenderFailure     ErrorCode = "5005"
	CodeNoAudioData       ErrorCode = "5006"
	CodeLLMProviderError  ErrorCode = "5007"
	CodeStorageError      ErrorCode = "5008"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 返回带详细信息的副本，预定义错误不会被修改
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Newf 创建带格式化消息的应用错误
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeNotFound, CodeProjectNotFound, CodeChapterNotFound, CodeEntityNotFound, CodeStyleNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeGenerationInFlight, CodeInvalidStage:
		return http.StatusConflict
	case CodePreconditionFailure:
		return http.StatusPreconditionFailed
	case CodeInputTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeMissingCredential, CodeAuthFailure:
		return http.StatusUnauthorized
	case CodeSchemaViolation, CodeEmptyResponse, CodeRenderFailure, CodeNoAudioData, CodeLLMProviderError:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrProjectNotFound = New(CodeProjectNotFound, "project not found")
	ErrChapterNotFound = New(CodeChapterNotFound, "chapter not found")
	ErrEntityNotFound  = New(CodeEntityNotFound, "entity not found")
	ErrStyleNotFound   = New(CodeStyleNotFound, "style profile not found")

	ErrPreconditionFailure = New(CodePreconditionFailure, "precondition failed")
	ErrInputTooLarge       = New(CodeInputTooLarge, "input too large")
	ErrGenerationInFlight  = New(CodeGenerationInFlight, "generation already in flight for chapter")
	ErrInvalidStage        = New(CodeInvalidStage, "operation not allowed in current stage")

	ErrSchemaViolation   = New(CodeSchemaViolation, "response does not match expected schema")
	ErrEmptyResponse     = New(CodeEmptyResponse, "empty response from generation backend")
	ErrAuthFailure       = New(CodeAuthFailure, "generation backend rejected credentials")
	ErrMissingCredential = New(CodeMissingCredential, "generation backend credential is not configured")
	ErrRenderFailure     = New(CodeRenderFailure, "image render failed")
	ErrNoAudioData       = New(CodeNoAudioData, "no audio data returned")
)

// IsAppError 检查错误链中是否包含 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// Is 判断错误链中是否存在指定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf 返回错误码，非 AppError 返回 CodeUnknown
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}
