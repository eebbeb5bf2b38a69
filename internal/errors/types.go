package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"

	// 验证错误
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// 文档处理错误
	ErrCodeExtractionFailed  ErrorCode = "EXTRACTION_FAILED"
	ErrCodeEmptyContent      ErrorCode = "EMPTY_CONTENT"
	ErrCodeSanitizeResource  ErrorCode = "SANITIZE_RESOURCE"
	ErrCodeSanitizeCollapse  ErrorCode = "SANITIZE_COLLAPSE"
	ErrCodeInvalidFileFormat ErrorCode = "INVALID_FILE_FORMAT"

	// 外部服务错误
	ErrCodeEmbeddingProvider  ErrorCode = "EMBEDDING_PROVIDER_ERROR"
	ErrCodeGenerationProvider ErrorCode = "GENERATION_PROVIDER_ERROR"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// 索引存储错误
	ErrCodeIndexCorrupt ErrorCode = "INDEX_CORRUPT"
	ErrCodeIndexPersist ErrorCode = "INDEX_PERSIST_FAILED"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeBusiness
	ErrorTypeValidation
	ErrorTypeExternal
)

// AppError 应用错误结构体
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Type     ErrorType   `json:"type"`
	HTTPCode int         `json:"-"`
	Details  interface{} `json:"details,omitempty"`
	Cause    error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// 错误构造函数

// NewSystemError 创建系统错误
func NewSystemError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewBusinessError 创建业务错误
func NewBusinessError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Type:     ErrorTypeBusiness,
		HTTPCode: getHTTPCodeForError(code),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewExternalError 创建外部服务错误
func NewExternalError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
	}
}

// NewNotFoundError 创建资源未找到错误
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found", resource),
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusNotFound,
	}
}

// getHTTPCodeForError 根据错误码获取HTTP状态码
func getHTTPCodeForError(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidationFailed, ErrCodeInvalidInput, ErrCodeInvalidFileFormat,
		ErrCodeEmptyContent, ErrCodeSanitizeCollapse:
		return http.StatusBadRequest
	case ErrCodeExtractionFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeEmbeddingProvider, ErrCodeGenerationProvider, ErrCodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsAppError 检查是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 获取AppError，如果不是则包装为系统错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewSystemError(ErrCodeInternalServer, "Internal server error").WithCause(err)
}

// HasCode 检查错误链中是否包含指定错误码
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
