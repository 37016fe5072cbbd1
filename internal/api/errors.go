package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 任务错误码
	ErrCodeJobNotFound        = "ERR_JOB_NOT_FOUND"
	ErrCodeJobInitFailed      = "ERR_JOB_INIT_FAILED"
	ErrCodeUserNotAuthorized  = "ERR_USER_NOT_AUTHORIZED"
	ErrCodeProviderFailed     = "ERR_PROVIDER_FAILED"
	ErrCodeProviderTimeout    = "ERR_PROVIDER_TIMEOUT"
	ErrCodeMalformedResponse  = "ERR_MALFORMED_RESPONSE"
	ErrCodeRenderCountInvalid = "ERR_RENDER_COUNT_MISMATCH"
	ErrCodeBillingFailed      = "ERR_BILLING_FAILED"
	ErrCodeStorageFailed      = "ERR_STORAGE_FAILED"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// ErrorCode 根据错误分类返回错误码
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrValidation):
		return ErrCodeInvalidRequest
	case errors.Is(err, apperrors.ErrInitialization):
		return ErrCodeJobInitFailed
	case errors.Is(err, apperrors.ErrAuthorization):
		return ErrCodeUserNotAuthorized
	case errors.Is(err, apperrors.ErrTimeout):
		return ErrCodeProviderTimeout
	case errors.Is(err, apperrors.ErrMalformedResponse), errors.Is(err, apperrors.ErrUnexpectedStatus):
		return ErrCodeMalformedResponse
	case errors.Is(err, apperrors.ErrCountMismatch):
		return ErrCodeRenderCountInvalid
	case errors.Is(err, apperrors.ErrBilling):
		return ErrCodeBillingFailed
	case errors.Is(err, apperrors.ErrStorage):
		return ErrCodeStorageFailed
	case errors.Is(err, apperrors.ErrProvider):
		return ErrCodeProviderFailed
	default:
		return ErrCodeInternalError
	}
}
