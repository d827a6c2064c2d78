package errno

import (
	"errors"
	"fmt"
)

// BizError 携带业务错误码与底层原因
type BizError struct {
	Errno *Errno
	Cause error
}

// NewBizError 包装业务错误
func NewBizError(e *Errno, cause error) *BizError {
	return &BizError{Errno: e, Cause: cause}
}

// Newf 以格式化原因创建业务错误
func Newf(e *Errno, format string, args ...interface{}) *BizError {
	return &BizError{Errno: e, Cause: fmt.Errorf(format, args...)}
}

func (e *BizError) Error() string {
	if e.Cause == nil {
		return e.Errno.Message
	}
	return fmt.Sprintf("%s: %v", e.Errno.Message, e.Cause)
}

func (e *BizError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Errno}
	}
	return []error{e.Errno, e.Cause}
}

// FromError 提取错误链中的业务错误码，找不到时返回 ErrInternalServer
func FromError(err error) *Errno {
	if err == nil {
		return OK
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.Errno
	}
	var en *Errno
	if errors.As(err, &en) {
		return en
	}
	return ErrInternalServer
}
