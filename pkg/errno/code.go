package errno

import (
	"errors"
	"fmt"
	"net/http"
)

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=3xxxx 媒体编排业务错误码

type Errno struct {
	Code       int
	HTTPStatus int
	Message    string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 0, HTTPStatus: http.StatusOK, Message: "Success"}

	ErrInvalidParam = &Errno{Code: 400, HTTPStatus: http.StatusBadRequest, Message: "Invalid parameter"}
	ErrUnauthorized = &Errno{Code: 401, HTTPStatus: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrNotFound     = &Errno{Code: 404, HTTPStatus: http.StatusNotFound, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, HTTPStatus: http.StatusInternalServerError, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, HTTPStatus: http.StatusInternalServerError, Message: "Database error"}
	ErrUnknown        = &Errno{Code: 510, HTTPStatus: http.StatusInternalServerError, Message: "Unknown error"}

	// 课程与流水线错误码
	ErrCourseIDRequired      = &Errno{Code: 30001, HTTPStatus: http.StatusBadRequest, Message: "Course ID is required"}
	ErrCourseNotFound        = &Errno{Code: 30002, HTTPStatus: http.StatusNotFound, Message: "Course not found"}
	ErrCourseInvalid         = &Errno{Code: 30003, HTTPStatus: http.StatusUnprocessableEntity, Message: "Course is not ready to publish"}
	ErrPipelineKindInvalid   = &Errno{Code: 30004, HTTPStatus: http.StatusBadRequest, Message: "Unknown pipeline kind"}
	ErrComputeLaunchFailed   = &Errno{Code: 30005, HTTPStatus: http.StatusBadGateway, Message: "Compute service rejected the batch"}
	ErrBatchInFlight         = &Errno{Code: 30006, HTTPStatus: http.StatusConflict, Message: "Another batch is already processing"}
	ErrBatchNotFound         = &Errno{Code: 30007, HTTPStatus: http.StatusNotFound, Message: "Batch not found"}
	ErrCorrelationIDRequired = &Errno{Code: 30008, HTTPStatus: http.StatusBadRequest, Message: "Correlation ID is required"}
	ErrItemKeyRequired       = &Errno{Code: 30009, HTTPStatus: http.StatusBadRequest, Message: "Item key is required"}
	ErrCallbackStatusInvalid = &Errno{Code: 30010, HTTPStatus: http.StatusBadRequest, Message: "Callback status must be success or error"}
	ErrCallbackKindMismatch  = &Errno{Code: 30011, HTTPStatus: http.StatusBadRequest, Message: "Callback does not belong to this pipeline"}
	ErrBatchNotAbandonable   = &Errno{Code: 30012, HTTPStatus: http.StatusConflict, Message: "Only pending batches can be abandoned"}
	ErrCourseStatusChanged   = &Errno{Code: 30013, HTTPStatus: http.StatusConflict, Message: "Course status changed concurrently"}
)

// BizError 业务错误, 包装底层原因
type BizError struct {
	errno  *Errno
	cause  error
	detail interface{}
}

// NewBizError 创建业务错误
func NewBizError(e *Errno, cause error) *BizError {
	return &BizError{errno: e, cause: cause}
}

// WithDetail 附带返回给调用方的数据, 例如校验失败列表
func (b *BizError) WithDetail(detail interface{}) *BizError {
	b.detail = detail
	return b
}

func (b *BizError) Error() string {
	if b.cause == nil {
		return b.errno.Message
	}
	return fmt.Sprintf("%s: %v", b.errno.Message, b.cause)
}

func (b *BizError) Unwrap() []error {
	if b.cause == nil {
		return []error{b.errno}
	}
	return []error{b.errno, b.cause}
}

func (b *BizError) Errno() *Errno { return b.errno }

func (b *BizError) Detail() interface{} { return b.detail }

func (b *BizError) Cause() error { return b.cause }

// Decode 从任意错误中提取Errno, 无法识别时返回ErrInternalServer
func Decode(err error) (*Errno, interface{}) {
	if err == nil {
		return OK, nil
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.errno, biz.detail
	}
	var e *Errno
	if errors.As(err, &e) {
		return e, nil
	}
	return ErrInternalServer, nil
}
