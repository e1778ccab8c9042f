package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/engine"
	"github.com/NotKhoa03/salon-turn-system/internal/model"
	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
	pkgerrors "github.com/NotKhoa03/salon-turn-system/pkg/errors"
)

// ── 轮次模块业务错误 ──

var (
	ErrServiceNotFound       = errors.New("服务项目不存在")
	ErrTurnNotFound          = errors.New("轮次记录不存在")
	ErrTechnicianBusy        = errors.New("技师正在服务中")
	ErrNoAvailableTechnician = errors.New("当前没有可接单的技师")
	ErrTurnNotInProgress     = errors.New("该轮次不在进行中")
	ErrTurnNotCompleted      = errors.New("该轮次尚未完成")
)

const (
	assignManual = "manual"
	assignQuick  = "quick"
)

// TurnService 轮次业务接口
type TurnService interface {
	// Assign 指定技师派单；技师须在岗且没有进行中的轮次
	Assign(ctx context.Context, sessionID, employeeID, serviceID string) (*dto.TurnResult, error)
	// QuickAssign 派给排队中的下一位技师
	QuickAssign(ctx context.Context, sessionID, serviceID string) (*dto.TurnResult, error)
	Complete(ctx context.Context, sessionID, turnID string) (*dto.TurnResult, error)
	// UndoAssign 删除进行中的轮次
	UndoAssign(ctx context.Context, sessionID, turnID string) error
	// UndoComplete 将已完成轮次恢复为进行中
	UndoComplete(ctx context.Context, sessionID, turnID string) error
}

type turnService struct {
	base
}

// NewTurnService 创建 TurnService 实例
func NewTurnService(b base) TurnService {
	return &turnService{base: b}
}

// ────────────────────── Assign ──────────────────────

func (s *turnService) Assign(ctx context.Context, sessionID, employeeID, serviceID string) (*dto.TurnResult, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	svc, err := s.getService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	clockIn, err := s.repo.ClockIn.GetActive(ctx, sessionID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotClockedIn
		}
		s.logger.Error("查询在岗记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storageErr(err)
	}

	if busy, err := s.isBusy(ctx, sessionID, employeeID); err != nil {
		return nil, err
	} else if busy {
		return nil, ErrTechnicianBusy
	}

	return s.assign(ctx, state, clockIn.Employee, employeeID, svc, assignManual)
}

// ────────────────────── QuickAssign ──────────────────────

func (s *turnService) QuickAssign(ctx context.Context, sessionID, serviceID string) (*dto.TurnResult, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	svc, err := s.getService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	clockIns, turns, err := state.Board.Snapshot(ctx)
	if err != nil {
		s.logger.Error("加载看板快照失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, storageErr(err)
	}

	next := engine.NextEligible(engine.Rank(clockIns, turns), state.Skips)
	if next == nil {
		return nil, ErrNoAvailableTechnician
	}
	// 快照可能落后于其他终端的派单
	if busy, err := s.isBusy(ctx, sessionID, next.EmployeeID); err != nil {
		return nil, err
	} else if busy {
		state.Board.Invalidate(engine.AggregateTurns)
		return nil, ErrTechnicianBusy
	}

	return s.assign(ctx, state, next.Employee, next.EmployeeID, svc, assignQuick)
}

// assign 判定配对后写入进行中的轮次。
// 半轮在判定与写入之间被其他操作配对时，唯一索引返回冲突，重新判定一次。
func (s *turnService) assign(ctx context.Context, state *SessionState, employee *model.Employee, employeeID string, svc *model.Service, mode string) (*dto.TurnResult, error) {
	resolver := engine.NewPairingResolver(s.repo.Turn)

	var turn *model.Turn
	for attempt := 0; ; attempt++ {
		decision, err := resolver.Resolve(ctx, state.SessionID, employeeID)
		if err != nil {
			s.logger.Error("配对判定失败", zap.String("employee_id", employeeID), zap.Error(err))
			return nil, storageErr(err)
		}

		now := s.now()
		turn = &model.Turn{
			ID:               model.NewID(),
			SessionID:        state.SessionID,
			EmployeeID:       employeeID,
			ServiceID:        svc.ID,
			TurnNumber:       decision.TurnNumber,
			IsHalfTurn:       svc.IsHalfTurn,
			Status:           model.TurnInProgress,
			PairedWithTurnID: decision.PairedWithTurnID,
			StartedAt:        now,
			CreatedAt:        now,
			Employee:         employee,
			Service:          svc,
		}

		op := state.Board.Begin(engine.InsertTurn(*turn))
		err = s.repo.Turn.Create(ctx, turn)
		if err == nil {
			op.Confirm()
			break
		}
		s.rollback(op)

		if !errors.Is(err, pkgerrors.ErrConflict) {
			s.logger.Error("派单失败", zap.String("employee_id", employeeID), zap.Error(err))
			return nil, storageErr(err)
		}
		// 冲突可能来自技师已有进行中轮次
		if busy, berr := s.isBusy(ctx, state.SessionID, employeeID); berr != nil {
			return nil, berr
		} else if busy {
			return nil, ErrTechnicianBusy
		}
		if attempt >= 1 {
			s.logger.Warn("派单重试后仍冲突", zap.String("employee_id", employeeID))
			return nil, pkgerrors.ErrConflict
		}
		s.logger.Info("半轮已被并发配对，重新判定", zap.String("employee_id", employeeID))
	}

	s.metrics.TurnAssigned(mode)

	name := employeeName(employee)
	actionID := s.record(ctx, state, engine.ActionAssignTurn, fmt.Sprintf("%s assigned to %s", svc.Name, name), engine.ActionData{
		TurnID:       turn.ID,
		EmployeeID:   employeeID,
		EmployeeName: name,
		ServiceName:  svc.Name,
	})
	s.notifier.Notify(ctx, state.SessionID, realtime.TableTurns, "insert")

	s.logger.Info("派单",
		zap.String("session_id", state.SessionID),
		zap.String("employee_id", employeeID),
		zap.String("service", svc.Name),
		zap.Int("turn_number", turn.TurnNumber),
		zap.Bool("paired", turn.IsPairing()),
		zap.String("mode", mode),
	)

	return &dto.TurnResult{Turn: toTurnResponse(turn), UndoActionID: actionID}, nil
}

// ────────────────────── Complete ──────────────────────

func (s *turnService) Complete(ctx context.Context, sessionID, turnID string) (*dto.TurnResult, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	turn, err := s.getTurn(ctx, sessionID, turnID)
	if err != nil {
		return nil, err
	}
	if turn.IsCompleted() {
		return nil, ErrTurnNotInProgress
	}

	at := s.now()
	completed := *turn
	completed.Status = model.TurnCompleted
	completed.CompletedAt = &at

	op := state.Board.Begin(engine.UpdateTurn(completed))
	if err := s.repo.Turn.Complete(ctx, turnID, at); err != nil {
		s.rollback(op)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTurnNotInProgress
		}
		s.logger.Error("完成轮次失败", zap.String("turn_id", turnID), zap.Error(err))
		return nil, storageErr(err)
	}
	op.Confirm()
	s.metrics.TurnCompleted()

	name := employeeName(turn.Employee)
	svcName := ""
	if turn.Service != nil {
		svcName = turn.Service.Name
	}
	actionID := s.record(ctx, state, engine.ActionCompleteTurn, fmt.Sprintf("%s completed %s", name, svcName), engine.ActionData{
		TurnID:       turnID,
		EmployeeID:   turn.EmployeeID,
		EmployeeName: name,
		ServiceName:  svcName,
	})
	s.notifier.Notify(ctx, sessionID, realtime.TableTurns, "update")

	s.logger.Info("完成轮次", zap.String("session_id", sessionID), zap.String("turn_id", turnID))

	return &dto.TurnResult{Turn: toTurnResponse(&completed), UndoActionID: actionID}, nil
}

// ────────────────────── Undo ──────────────────────

func (s *turnService) UndoAssign(ctx context.Context, sessionID, turnID string) error {
	turn, err := s.getTurn(ctx, sessionID, turnID)
	if err != nil {
		return err
	}
	if turn.IsCompleted() {
		return ErrTurnNotInProgress
	}

	op := s.states.Get(sessionID).Board.Begin(engine.DeleteTurn(*turn))
	if err := s.repo.Turn.Delete(ctx, turnID); err != nil {
		s.rollback(op)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTurnNotFound
		}
		s.logger.Error("撤销派单失败", zap.String("turn_id", turnID), zap.Error(err))
		return storageErr(err)
	}
	op.Confirm()
	return nil
}

func (s *turnService) UndoComplete(ctx context.Context, sessionID, turnID string) error {
	turn, err := s.getTurn(ctx, sessionID, turnID)
	if err != nil {
		return err
	}
	if !turn.IsCompleted() {
		return ErrTurnNotCompleted
	}
	// 同一技师同一时间只能有一个进行中的轮次
	if busy, err := s.isBusy(ctx, sessionID, turn.EmployeeID); err != nil {
		return err
	} else if busy {
		return ErrTechnicianBusy
	}

	reverted := *turn
	reverted.Status = model.TurnInProgress
	reverted.CompletedAt = nil

	op := s.states.Get(sessionID).Board.Begin(engine.UpdateTurn(reverted))
	if err := s.repo.Turn.Revert(ctx, turnID); err != nil {
		s.rollback(op)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTurnNotCompleted
		}
		if errors.Is(err, pkgerrors.ErrConflict) {
			return ErrTechnicianBusy
		}
		s.logger.Error("撤销完成失败", zap.String("turn_id", turnID), zap.Error(err))
		return storageErr(err)
	}
	op.Confirm()
	return nil
}

// ── 内部方法 ──

func (s *turnService) getService(ctx context.Context, serviceID string) (*model.Service, error) {
	svc, err := s.repo.Service.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		s.logger.Error("查询服务项目失败", zap.String("service_id", serviceID), zap.Error(err))
		return nil, storageErr(err)
	}
	return svc, nil
}

func (s *turnService) getTurn(ctx context.Context, sessionID, turnID string) (*model.Turn, error) {
	turn, err := s.repo.Turn.GetByID(ctx, turnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTurnNotFound
		}
		s.logger.Error("查询轮次失败", zap.String("turn_id", turnID), zap.Error(err))
		return nil, storageErr(err)
	}
	if turn.SessionID != sessionID {
		return nil, ErrTurnNotFound
	}
	return turn, nil
}

func (s *turnService) isBusy(ctx context.Context, sessionID, employeeID string) (bool, error) {
	_, err := s.repo.Turn.GetInProgressByEmployee(ctx, sessionID, employeeID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	s.logger.Error("查询进行中轮次失败", zap.String("employee_id", employeeID), zap.Error(err))
	return false, storageErr(err)
}
