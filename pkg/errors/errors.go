package errors

import (
	stderrors "errors"
	"fmt"
)

// 错误码
const (
	CodeSuccess         = 200
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeInternalError   = 500
	CodeDatabaseError   = 501
	CodeAuthError       = 502
	CodeValidationError = 503
	CodeUserError       = 504 // 面向最终用户的操作失败（凭据缺失、签名失败、拉取失败等）
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 暴露底层错误, 便于 errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation 凭据等配置不完整，写入时拒绝
func Validation(message string) *AppError {
	return New(CodeValidationError, message)
}

// User 用户可见的操作失败
func User(message string) *AppError {
	return New(CodeUserError, message)
}

// WrapUser 包装底层错误为用户可见错误，保留原始信息
func WrapUser(message string, err error) *AppError {
	return Wrap(CodeUserError, message, err)
}

// CodeOf 返回错误链上第一个 AppError 的错误码, 非 AppError 返回 CodeInternalError
func CodeOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// IsCode 判断错误链上是否为指定错误码
func IsCode(err error, code int) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "请求参数错误")
	ErrUnauthorized    = New(CodeUnauthorized, "未授权")
	ErrForbidden       = New(CodeForbidden, "禁止访问")
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrConflict        = New(CodeConflict, "资源冲突")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError   = New(CodeDatabaseError, "数据库错误")
	ErrAuthError       = New(CodeAuthError, "认证失败")
	ErrValidationError = New(CodeValidationError, "数据验证失败")

	// 具体业务错误
	ErrInvalidParams        = New(CodeBadRequest, "请求参数错误")
	ErrInvalidCredentials   = New(CodeAuthError, "用户名或密码错误")
	ErrLDAPConnectionFailed = New(CodeAuthError, "LDAP连接失败")
	ErrUserNotFound         = New(CodeNotFound, "用户不存在")
	ErrUserDisabled         = New(CodeForbidden, "用户已禁用")
	ErrInvalidToken         = New(CodeUnauthorized, "无效的Token")
	ErrTokenExpired         = New(CodeUnauthorized, "Token已过期")
	ErrRecordNotFound       = New(CodeNotFound, "记录不存在")
	ErrRecordExists         = New(CodeConflict, "记录已存在")

	ErrNoAuthAvailable   = User("当前用户没有可用的 GitHub 认证方式")
	ErrAuthNotAuthorized = User("当前用户无权使用该认证方式")
)
