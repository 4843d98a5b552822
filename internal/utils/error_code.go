package utils

import (
	"errors"
	"fmt"

	"github.com/bhavyaajainn/chatly/consts"
)

// BizError 业务错误，携带对外错误码。
// service 层返回 BizError，handler 层用 ExtractErrorCode 还原错误码。
type BizError struct {
	Code    int32
	Message string
	Cause   error
}

func (e *BizError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return consts.GetMessage(e.Code)
}

func (e *BizError) Unwrap() error {
	return e.Cause
}

// NewBizError 创建业务错误
func NewBizError(code int32) *BizError {
	return &BizError{Code: code}
}

// NewBizErrorWithMessage 创建带自定义消息的业务错误
func NewBizErrorWithMessage(code int32, message string) *BizError {
	return &BizError{Code: code, Message: message}
}

// WrapBizError 包装底层错误为业务错误，保留原始错误链
func WrapBizError(code int32, cause error) *BizError {
	return &BizError{Code: code, Cause: cause}
}

// NewInternalError 包装内部错误（对外统一 30001）
func NewInternalError(cause error) *BizError {
	return &BizError{
		Code:    consts.CodeInternalError,
		Message: consts.GetMessage(consts.CodeInternalError),
		Cause:   fmt.Errorf("internal: %w", cause),
	}
}

// ExtractErrorCode 提取业务错误码，非业务错误统一归为内部错误
func ExtractErrorCode(err error) int32 {
	if err == nil {
		return consts.CodeSuccess
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.Code
	}
	return consts.CodeInternalError
}

// IsNonServerError 判断是否为客户端侧错误（1xxxx/2xxxx/11xxx/12xxx/13xxx）。
// 客户端错误打 Warn 日志，服务端错误(3xxxx)打 Error 日志。
func IsNonServerError(code int32) bool {
	return code > 0 && code < 30000
}
