package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/engine"
	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
)

// ── 撤销模块业务错误 ──

var (
	ErrUndoActionNotFound = engine.ErrActionNotFound
)

// UndoService 撤销业务接口
type UndoService interface {
	// List 撤销历史，最新在前
	List(ctx context.Context, sessionID string) ([]dto.UndoActionResponse, error)
	// Perform 执行撤销。被阻止、已不存在及业务校验失败以结构化结果返回，仅存储故障返回 error
	Perform(ctx context.Context, sessionID, actionID string) (*dto.UndoResultResponse, error)
}

type undoService struct {
	base
	turns    TurnService
	clockIns ClockInService
}

// NewUndoService 创建 UndoService 实例
func NewUndoService(b base, turns TurnService, clockIns ClockInService) UndoService {
	return &undoService{base: b, turns: turns, clockIns: clockIns}
}

// ────────────────────── List ──────────────────────

func (s *undoService) List(ctx context.Context, sessionID string) ([]dto.UndoActionResponse, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history, err := state.Undo.History(ctx)
	if err != nil {
		s.logger.Error("读取撤销历史失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, storageErr(err)
	}

	result := make([]dto.UndoActionResponse, 0, len(history))
	for i := range history {
		result = append(result, *toUndoActionResponse(&history[i]))
	}
	return result, nil
}

// ────────────────────── Perform ──────────────────────

func (s *undoService) Perform(ctx context.Context, sessionID, actionID string) (*dto.UndoResultResponse, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	inv := &sessionInverter{sessionID: sessionID, turns: s.turns, clockIns: s.clockIns}
	res := state.Undo.Perform(ctx, actionID, inv)

	actionType := "unknown"
	if res.Action != nil {
		actionType = string(res.Action.Type)
	}
	s.metrics.Undo(actionType, string(res.Outcome))

	resp := &dto.UndoResultResponse{
		Success: res.Success(),
		Blocked: res.Outcome == engine.OutcomeBlocked,
		Action:  toUndoActionResponse(res.Action),
	}

	switch res.Outcome {
	case engine.OutcomeUndone:
		if res.Err != nil {
			s.logger.Warn("撤销已执行但历史保存失败", zap.String("action_id", actionID), zap.Error(res.Err))
		}
		resp.Message = "已撤销: " + res.Action.Description
		s.notifier.Notify(ctx, sessionID, affectedTable(res.Action.Type), "undo")
		s.notifier.Notify(ctx, sessionID, realtime.TableUndo, "delete")
		s.logger.Info("撤销操作",
			zap.String("session_id", sessionID),
			zap.String("action_id", actionID),
			zap.String("type", actionType),
		)
	case engine.OutcomeBlocked, engine.OutcomeNotFound:
		resp.Message = res.Err.Error()
	default:
		if errors.Is(res.Err, ErrStorage) {
			return nil, res.Err
		}
		resp.Message = res.Err.Error()
		s.logger.Warn("撤销失败",
			zap.String("action_id", actionID),
			zap.String("type", actionType),
			zap.Error(res.Err),
		)
	}
	return resp, nil
}

func affectedTable(t engine.ActionType) string {
	switch t {
	case engine.ActionClockIn, engine.ActionClockOut:
		return realtime.TableClockIns
	default:
		return realtime.TableTurns
	}
}

// sessionInverter 将撤销分派到对应业务的逆操作
type sessionInverter struct {
	sessionID string
	turns     TurnService
	clockIns  ClockInService
}

func (i *sessionInverter) UndoAssign(ctx context.Context, turnID string) error {
	return i.turns.UndoAssign(ctx, i.sessionID, turnID)
}

func (i *sessionInverter) UndoComplete(ctx context.Context, turnID string) error {
	return i.turns.UndoComplete(ctx, i.sessionID, turnID)
}

func (i *sessionInverter) UndoClockIn(ctx context.Context, clockInID string, data engine.ActionData) error {
	return i.clockIns.UndoClockIn(ctx, i.sessionID, clockInID, data)
}

func (i *sessionInverter) UndoClockOut(ctx context.Context, clockInID string) error {
	return i.clockIns.UndoClockOut(ctx, i.sessionID, clockInID)
}
