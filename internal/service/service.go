package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/config"
	"github.com/NotKhoa03/salon-turn-system/internal/engine"
	"github.com/NotKhoa03/salon-turn-system/internal/model"
	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
	"github.com/NotKhoa03/salon-turn-system/internal/repository"
	"github.com/NotKhoa03/salon-turn-system/pkg/metrics"
)

// ── 通用业务错误 ──

var (
	ErrNoSession = errors.New("营业日不存在")
	// ErrStorage 存储读写失败，原始错误已记录日志
	ErrStorage = errors.New("数据存储失败，请稍后重试")
)

// Notifier 看板变更通知，realtime.Hub 实现该接口
type Notifier interface {
	Notify(ctx context.Context, sessionID, table, op string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string, string) {}

// Service 所有 Service 的聚合入口
type Service struct {
	Session SessionService
	ClockIn ClockInService
	Turn    TurnService
	Board   BoardService
	Undo    UndoService
	Catalog CatalogService
}

// Deps Service 的外部依赖；Notifier、Metrics 为空时使用空实现
type Deps struct {
	Config   *config.Config
	Repo     *repository.Repository
	States   *SessionStates
	Notifier Notifier
	Metrics  metrics.Collector
	Logger   *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) (*Service, error) {
	loc, err := d.Config.Board.Location()
	if err != nil {
		return nil, fmt.Errorf("解析营业日时区失败: %w", err)
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}

	b := base{repo: d.Repo, states: d.States, notifier: d.Notifier, metrics: d.Metrics, logger: d.Logger, now: time.Now}

	turns := NewTurnService(b)
	clockIns := NewClockInService(b)
	return &Service{
		Session: NewSessionService(b, loc),
		ClockIn: clockIns,
		Turn:    turns,
		Board:   NewBoardService(b, d.Config.Board.GridRows),
		Undo:    NewUndoService(b, turns, clockIns),
		Catalog: NewCatalogService(b),
	}, nil
}

// base 各 Service 共享的依赖
type base struct {
	repo     *repository.Repository
	states   *SessionStates
	notifier Notifier
	metrics  metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
}

// requireSession 校验营业日存在并返回其会话状态
func (b *base) requireSession(ctx context.Context, sessionID string) (*SessionState, error) {
	if _, err := b.repo.Session.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		b.logger.Error("查询营业日失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, storageErr(err)
	}
	return b.states.Get(sessionID), nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func employeeName(e *model.Employee) string {
	if e == nil {
		return ""
	}
	return e.FullName
}

// rollback 撤回乐观更新并计数
func (b *base) rollback(op *engine.Op) {
	op.Rollback()
	b.metrics.OptimisticRollback(string(op.Aggregate()))
}

// record 记录可撤销操作；失败只记日志，不影响已完成的变更
func (b *base) record(ctx context.Context, state *SessionState, typ engine.ActionType, desc string, data engine.ActionData) string {
	action, err := state.Undo.Record(ctx, typ, desc, data)
	if err != nil {
		b.logger.Warn("记录撤销历史失败",
			zap.String("session_id", state.SessionID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		return ""
	}
	b.notifier.Notify(ctx, state.SessionID, realtime.TableUndo, "insert")
	return action.ID
}
