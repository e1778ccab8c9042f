package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// ClientIDHeader 前端终端标识，缺省时按客户端 IP 区分
const ClientIDHeader = "X-Client-ID"

// SubmitLocker 跨实例的重复提交锁，*redis.Client 实现该接口
type SubmitLocker interface {
	AcquireSubmitLock(ctx context.Context, key string, window time.Duration) (bool, error)
}

type submitState struct {
	last     time.Time
	inFlight bool
}

// debouncer 进程内的提交窗口与在途标记
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*submitState
	now     func() time.Time
}

const sweepThreshold = 1024

// begin 登记一次提交；窗口内重复提交或上一次仍在处理时返回 false
func (d *debouncer) begin(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if len(d.entries) > sweepThreshold {
		for k, st := range d.entries {
			if !st.inFlight && now.Sub(st.last) >= d.window {
				delete(d.entries, k)
			}
		}
	}

	st, ok := d.entries[key]
	if ok && (st.inFlight || now.Sub(st.last) < d.window) {
		return false
	}
	d.entries[key] = &submitState{last: now, inFlight: true}
	return true
}

func (d *debouncer) end(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if st, ok := d.entries[key]; ok {
		st.inFlight = false
	}
}

// Debounce 拦截同一终端对同一接口的重复提交。
// window 内的重复请求与上一次尚未返回时的再次请求均返回 429。
// locker 不为 nil 时同时在 Redis 中加锁，使多实例部署下同样生效；Redis 出错时降级为仅进程内拦截。
func Debounce(locker SubmitLocker, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	d := &debouncer{window: window, entries: make(map[string]*submitState), now: time.Now}

	return func(c *gin.Context) {
		if window <= 0 {
			c.Next()
			return
		}

		client := c.GetHeader(ClientIDHeader)
		if client == "" || len(client) > requestIDMaxLen {
			client = c.ClientIP()
		}
		key := client + ":" + c.Request.Method + ":" + c.Request.URL.Path

		if !d.begin(key) {
			rejectDuplicate(c)
			return
		}
		defer d.end(key)

		if locker != nil {
			ok, err := locker.AcquireSubmitLock(c.Request.Context(), key, window)
			if err != nil {
				logger.Warn("重复提交锁不可用，降级为进程内拦截", zap.String("key", key), zap.Error(err))
			} else if !ok {
				rejectDuplicate(c)
				return
			}
		}

		c.Next()
	}
}

func rejectDuplicate(c *gin.Context) {
	response.TooManyRequests(c, 10004, "操作过于频繁，请勿重复提交")
	c.Abort()
}
