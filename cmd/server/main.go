package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/NotKhoa03/salon-turn-system/config"
	"github.com/NotKhoa03/salon-turn-system/internal/api/handler"
	"github.com/NotKhoa03/salon-turn-system/internal/api/router"
	"github.com/NotKhoa03/salon-turn-system/internal/engine"
	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
	"github.com/NotKhoa03/salon-turn-system/internal/repository"
	"github.com/NotKhoa03/salon-turn-system/internal/service"
	"github.com/NotKhoa03/salon-turn-system/pkg/database"
	applogger "github.com/NotKhoa03/salon-turn-system/pkg/logger"
	"github.com/NotKhoa03/salon-turn-system/pkg/metrics"
	"github.com/NotKhoa03/salon-turn-system/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("timezone", cfg.Board.Timezone),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时降级为单实例内存模式，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，撤销历史与变更广播仅在本实例内生效", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheus(reg, "")

	// 6. 会话状态与变更推送
	opts := router.Options{Gatherer: reg}
	var (
		undoStore engine.UndoStore
		broker    realtime.Broker
	)
	if rdb != nil {
		undoStore = service.NewRedisUndoStore(rdb, cfg.Board.UndoHistoryTTL)
		broker = rdb
		opts.Locker = rdb
	}

	repo := repository.NewRepository(db)
	states := service.NewSessionStates(service.NewLoader(repo), undoStore, cfg.Board.UndoHistoryLimit)
	hub := realtime.NewHub(broker, logger)
	hub.OnRemoteChange(states.ApplyRemoteChange)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go func() {
		if err := hub.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("变更订阅异常退出", zap.Error(err))
		}
	}()

	// 7. 依赖注入: Repository → Service → Handler
	svc, err := service.NewService(service.Deps{
		Config:   cfg,
		Repo:     repo,
		States:   states,
		Notifier: hub,
		Metrics:  collector,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("初始化业务层失败", zap.Error(err))
	}
	h := handler.NewHandler(svc, hub)

	// 8. 初始化路由
	opts.Health = func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("数据库不可用: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				return fmt.Errorf("Redis 不可用: %w", err)
			}
		}
		return nil
	}
	r := router.Setup(cfg, h, opts, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	// WebSocket 为长连接，不设置 WriteTimeout
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopRun()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if sqlDB, _ := db.DB(); sqlDB != nil {
		_ = sqlDB.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
