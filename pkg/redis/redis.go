package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NotKhoa03/salon-turn-system/config"
)

// Client Redis 客户端封装
// 用于撤销历史持久化、看板变更广播与重复提交拦截；未启用时上层各自降级为进程内实现
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 撤销历史 ──

const undoHistoryPrefix = "undo:history:"

// SaveUndoHistory 写入营业日撤销历史（已序列化），每次写入刷新 TTL
func (c *Client) SaveUndoHistory(ctx context.Context, sessionID string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, undoHistoryPrefix+sessionID, payload, ttl).Err()
}

// LoadUndoHistory 读取营业日撤销历史，不存在时返回 nil, nil
func (c *Client) LoadUndoHistory(ctx context.Context, sessionID string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, undoHistoryPrefix+sessionID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteUndoHistory 删除营业日撤销历史
func (c *Client) DeleteUndoHistory(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, undoHistoryPrefix+sessionID).Err()
}

// ── 看板变更广播 ──

// ChangesChannel 看板变更的发布订阅频道
const ChangesChannel = "board:changes"

// PublishChange 发布一条看板变更
func (c *Client) PublishChange(ctx context.Context, payload []byte) error {
	return c.rdb.Publish(ctx, ChangesChannel, payload).Err()
}

// SubscribeChanges 订阅看板变更，ctx 取消后关闭订阅并返回。
// handler 在订阅协程内串行调用。
func (c *Client) SubscribeChanges(ctx context.Context, handler func(payload []byte)) error {
	sub := c.rdb.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("订阅 %s 失败: %w", ChangesChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler([]byte(msg.Payload))
		}
	}
}

// ── 重复提交拦截 ──

const submitLockPrefix = "submit:lock:"

// AcquireSubmitLock 在窗口期内首次提交返回 true，重复提交返回 false
func (c *Client) AcquireSubmitLock(ctx context.Context, key string, window time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, submitLockPrefix+key, "1", window).Result()
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
