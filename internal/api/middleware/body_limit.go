package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// DefaultBodyLimit 看板请求只携带少量 ID 与备注
const DefaultBodyLimit = 16 << 10

// BodyLimit 全局请求体大小限制中间件
// 声明长度超限时直接返回 413；未声明长度的请求体读取超限时绑定失败
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
