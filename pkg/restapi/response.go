package restapi

import (
	"github.com/gin-gonic/gin"

	"media-pipeline-service/pkg/errno"
	"media-pipeline-service/pkg/logger"
)

// Response 统一返回结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(errno.OK.HTTPStatus, Response{
		Code:      errno.OK.Code,
		Message:   errno.OK.Message,
		Data:      data,
		RequestID: ctx.GetString("request_id"),
	})
}

// Failed 根据错误码返回对应的HTTP状态
func Failed(ctx *gin.Context, err error) {
	e, detail := errno.Decode(err)
	if e.HTTPStatus >= 500 {
		logger.Error("request failed", map[string]interface{}{
			"path":       ctx.FullPath(),
			"request_id": ctx.GetString("request_id"),
			"error":      err.Error(),
		})
	}
	msg := e.Message
	if e == errno.ErrInvalidParam && err != nil {
		msg = err.Error()
	}
	ctx.JSON(e.HTTPStatus, Response{
		Code:      e.Code,
		Message:   msg,
		Data:      detail,
		RequestID: ctx.GetString("request_id"),
	})
}
