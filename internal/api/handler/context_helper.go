package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/internal/service"
	pkgerrors "github.com/NotKhoa03/salon-turn-system/pkg/errors"
	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// MustGetSessionID 从路径参数中提取营业日 ID。
// 缺失时写入 400 响应并返回 false，调用方应直接 return。
func MustGetSessionID(c *gin.Context) (string, bool) {
	return mustGetParam(c, "id", "营业日ID不能为空")
}

func mustGetParam(c *gin.Context, name, message string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, message)
		return "", false
	}
	return v, true
}

// handleCommonError 各模块共用的错误兜底
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		response.NotFound(c, 20001, "营业日不存在")
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, 20009, "数据已被其他终端修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
