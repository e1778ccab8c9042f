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

// ── 打卡模块业务错误 ──

var (
	ErrEmployeeNotFound = errors.New("技师不存在")
	ErrClockInNotFound  = errors.New("打卡记录不存在")
	ErrAlreadyClockedIn = errors.New("技师已在岗")
	ErrNotClockedIn     = errors.New("技师未打卡")
	// ErrClockInHasActiveTurn 撤销打卡被阻止：技师仍有进行中的轮次
	ErrClockInHasActiveTurn = fmt.Errorf("技师仍有进行中的服务，请先完成或撤销该服务: %w", engine.ErrUndoBlocked)
)

// ClockInService 打卡业务接口
type ClockInService interface {
	// ClockIn 打卡；当日签退过的技师重新上岗，沿用原记录并分配新的 position
	ClockIn(ctx context.Context, sessionID, employeeID string) (*dto.ClockInResult, error)
	ClockOut(ctx context.Context, sessionID, employeeID string) (*dto.ClockInResult, error)
	// UndoClockIn 新打卡删除记录，重新上岗恢复原签退时间与 position；技师有进行中轮次时返回 ErrClockInHasActiveTurn
	UndoClockIn(ctx context.Context, sessionID, clockInID string, data engine.ActionData) error
	UndoClockOut(ctx context.Context, sessionID, clockInID string) error
}

type clockInService struct {
	base
}

// NewClockInService 创建 ClockInService 实例
func NewClockInService(b base) ClockInService {
	return &clockInService{base: b}
}

// ────────────────────── ClockIn ──────────────────────

func (s *clockInService) ClockIn(ctx context.Context, sessionID, employeeID string) (*dto.ClockInResult, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	employee, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询技师失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storageErr(err)
	}

	if _, err := s.repo.ClockIn.GetActive(ctx, sessionID, employeeID); err == nil {
		return nil, ErrAlreadyClockedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询在岗记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storageErr(err)
	}

	maxPosition, err := s.repo.ClockIn.MaxPosition(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询最大打卡序号失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, storageErr(err)
	}
	position := maxPosition + 1

	latest, err := s.repo.ClockIn.GetLatest(ctx, sessionID, employeeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询打卡记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storageErr(err)
	}

	var (
		clockIn *model.ClockIn
		data    = engine.ActionData{EmployeeID: employeeID, EmployeeName: employee.FullName}
		op      *engine.Op
		kind    string
	)

	if latest != nil {
		// 重新上岗
		data.WasReactivation = true
		data.PreviousClockOutTime = latest.ClockOutTime
		data.PreviousPosition = latest.Position

		updated := *latest
		updated.ClockOutTime = nil
		updated.Position = position
		updated.Employee = employee
		clockIn = &updated
		kind = "reactivate"

		op = state.Board.Begin(engine.UpdateClockIn(updated))
		err = s.repo.ClockIn.SetState(ctx, updated.ID, nil, position)
	} else {
		clockIn = &model.ClockIn{
			ID:          model.NewID(),
			SessionID:   sessionID,
			EmployeeID:  employeeID,
			ClockInTime: s.now(),
			Position:    position,
			Employee:    employee,
		}
		kind = "clock_in"

		op = state.Board.Begin(engine.InsertClockIn(*clockIn))
		err = s.repo.ClockIn.Create(ctx, clockIn)
	}
	if err != nil {
		s.rollback(op)
		if errors.Is(err, pkgerrors.ErrConflict) {
			return nil, ErrAlreadyClockedIn
		}
		s.logger.Error("打卡失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storageErr(err)
	}
	op.Confirm()
	data.ClockInID = clockIn.ID
	s.metrics.ClockEvent(kind)

	desc := fmt.Sprintf("%s clocked in", employee.FullName)
	if data.WasReactivation {
		desc = fmt.Sprintf("%s clocked back in", employee.FullName)
	}
	actionID := s.record(ctx, state, engine.ActionClockIn, desc, data)

	change := "insert"
	if data.WasReactivation {
		change = "update"
	}
	s.notifier.Notify(ctx, sessionID, realtime.TableClockIns, change)

	s.logger.Info("技师打卡",
		zap.String("session_id", sessionID),
		zap.String("employee_id", employeeID),
		zap.Int("position", position),
		zap.Bool("reactivation", data.WasReactivation),
	)

	return &dto.ClockInResult{
		ClockIn:         toClockInResponse(clockIn),
		WasReactivation: data.WasReactivation,
		UndoActionID:    actionID,
	}, nil
}

// ────────────────────── ClockOut ──────────────────────

func (s *clockInService) ClockOut(ctx context.Context, sessionID, employeeID string) (*dto.ClockInResult, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ClockIn.GetActive(ctx, sessionID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotClockedIn
		}
		s.logger.Error("查询在岗记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storageErr(err)
	}

	at := s.now()
	updated := *active
	updated.ClockOutTime = &at

	op := state.Board.Begin(engine.UpdateClockIn(updated))
	if err := s.repo.ClockIn.SetClockOut(ctx, active.ID, at); err != nil {
		s.rollback(op)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotClockedIn
		}
		s.logger.Error("签退失败", zap.String("clock_in_id", active.ID), zap.Error(err))
		return nil, storageErr(err)
	}
	op.Confirm()
	s.metrics.ClockEvent("clock_out")

	name := employeeName(active.Employee)
	actionID := s.record(ctx, state, engine.ActionClockOut, fmt.Sprintf("%s clocked out", name), engine.ActionData{
		ClockInID:    active.ID,
		EmployeeID:   employeeID,
		EmployeeName: name,
	})
	s.notifier.Notify(ctx, sessionID, realtime.TableClockIns, "update")

	s.logger.Info("技师签退", zap.String("session_id", sessionID), zap.String("employee_id", employeeID))

	return &dto.ClockInResult{ClockIn: toClockInResponse(&updated), UndoActionID: actionID}, nil
}

// ────────────────────── Undo ──────────────────────

func (s *clockInService) UndoClockIn(ctx context.Context, sessionID, clockInID string, data engine.ActionData) error {
	clockIn, err := s.getClockIn(ctx, sessionID, clockInID)
	if err != nil {
		return err
	}

	if _, err := s.repo.Turn.GetInProgressByEmployee(ctx, sessionID, clockIn.EmployeeID); err == nil {
		return ErrClockInHasActiveTurn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询进行中轮次失败", zap.String("employee_id", clockIn.EmployeeID), zap.Error(err))
		return storageErr(err)
	}

	state := s.states.Get(sessionID)
	var op *engine.Op
	if data.WasReactivation {
		restored := *clockIn
		restored.ClockOutTime = data.PreviousClockOutTime
		restored.Position = data.PreviousPosition
		op = state.Board.Begin(engine.UpdateClockIn(restored))
		err = s.repo.ClockIn.SetState(ctx, clockInID, data.PreviousClockOutTime, data.PreviousPosition)
	} else {
		op = state.Board.Begin(engine.DeleteClockIn(*clockIn))
		err = s.repo.ClockIn.Delete(ctx, clockInID)
	}
	if err != nil {
		s.rollback(op)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClockInNotFound
		}
		s.logger.Error("撤销打卡失败", zap.String("clock_in_id", clockInID), zap.Error(err))
		return storageErr(err)
	}
	op.Confirm()
	return nil
}

func (s *clockInService) UndoClockOut(ctx context.Context, sessionID, clockInID string) error {
	clockIn, err := s.getClockIn(ctx, sessionID, clockInID)
	if err != nil {
		return err
	}
	if clockIn.IsActive() {
		return ErrAlreadyClockedIn
	}

	restored := *clockIn
	restored.ClockOutTime = nil

	op := s.states.Get(sessionID).Board.Begin(engine.UpdateClockIn(restored))
	if err := s.repo.ClockIn.SetState(ctx, clockInID, nil, clockIn.Position); err != nil {
		s.rollback(op)
		if errors.Is(err, pkgerrors.ErrConflict) {
			return ErrAlreadyClockedIn
		}
		s.logger.Error("撤销签退失败", zap.String("clock_in_id", clockInID), zap.Error(err))
		return storageErr(err)
	}
	op.Confirm()
	return nil
}

func (s *clockInService) getClockIn(ctx context.Context, sessionID, clockInID string) (*model.ClockIn, error) {
	clockIn, err := s.repo.ClockIn.GetByID(ctx, clockInID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClockInNotFound
		}
		s.logger.Error("查询打卡记录失败", zap.String("clock_in_id", clockInID), zap.Error(err))
		return nil, storageErr(err)
	}
	if clockIn.SessionID != sessionID {
		return nil, ErrClockInNotFound
	}
	return clockIn, nil
}
