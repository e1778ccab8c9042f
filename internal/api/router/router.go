package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NotKhoa03/salon-turn-system/config"
	"github.com/NotKhoa03/salon-turn-system/internal/api/handler"
	"github.com/NotKhoa03/salon-turn-system/internal/api/middleware"
)

// HealthCheck 依赖健康检查，返回错误时 /health 报告 503
type HealthCheck func(ctx context.Context) error

// Options 路由的可选依赖
type Options struct {
	// Locker 跨实例的重复提交锁，为 nil 时仅进程内拦截
	Locker middleware.SubmitLocker
	// Gatherer /metrics 暴露的指标来源，为 nil 时不注册该路由
	Gatherer prometheus.Gatherer
	Health   HealthCheck
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, opts Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// 所有写操作共用一个拦截器，key 含请求路径
	debounce := middleware.Debounce(opts.Locker, cfg.Board.DebounceWindow, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 基础资料
		v1.GET("/employees", h.Catalog.ListEmployees)
		v1.GET("/services", h.Catalog.ListServices)

		// 营业日
		v1.GET("/sessions/current", h.Session.GetCurrent)

		sessions := v1.Group("/sessions/:id")
		{
			sessions.POST("/clear", debounce, h.Session.ClearDay)
			sessions.POST("/refresh", h.Board.Refresh)

			// 看板
			sessions.GET("/queue", h.Board.GetQueue)
			sessions.GET("/grid", h.Board.GetGrid)
			sessions.POST("/skips/:employeeId", debounce, h.Board.Skip)
			sessions.DELETE("/skips/:employeeId", debounce, h.Board.Unskip)

			// 打卡
			sessions.POST("/clock-ins", debounce, h.ClockIn.ClockIn)
			sessions.POST("/clock-outs", debounce, h.ClockIn.ClockOut)

			// 轮次
			sessions.POST("/turns", debounce, h.Turn.Assign)
			sessions.POST("/turns/quick", debounce, h.Turn.QuickAssign)
			sessions.POST("/turns/:turnId/complete", debounce, h.Turn.Complete)

			// 撤销
			sessions.GET("/undo", h.Undo.ListHistory)
			sessions.POST("/undo/:actionId", debounce, h.Undo.Perform)

			// 变更推送
			sessions.GET("/ws", h.Stream.Subscribe)
		}
	}

	return r
}
