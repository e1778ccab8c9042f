package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/engine"
	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
)

// ── 看板模块业务错误 ──

var (
	ErrInvalidAggregate = errors.New("刷新范围应为 clock_ins、turns 或 all")
)

// BoardService 看板读取与跳过管理
type BoardService interface {
	Queue(ctx context.Context, sessionID string) (*dto.QueueResponse, error)
	// Grid rows 不大于 0 时使用配置的最少行数
	Grid(ctx context.Context, sessionID string, rows int) (*dto.GridResponse, error)
	Skip(ctx context.Context, sessionID, employeeID, reason string) (*dto.SkipResponse, error)
	Unskip(ctx context.Context, sessionID, employeeID string) (*dto.SkipResponse, error)
	// Refresh 从存储重新加载快照；aggregate 为空时刷新全部
	Refresh(ctx context.Context, sessionID, aggregate string) error
}

type boardService struct {
	base
	gridRows int
}

// NewBoardService 创建 BoardService 实例
func NewBoardService(b base, gridRows int) BoardService {
	return &boardService{base: b, gridRows: gridRows}
}

// ────────────────────── Queue ──────────────────────

func (s *boardService) Queue(ctx context.Context, sessionID string) (*dto.QueueResponse, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	clockIns, turns, err := state.Board.Snapshot(ctx)
	if err != nil {
		s.logger.Error("加载看板快照失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, storageErr(err)
	}

	entries := engine.DisplayOrder(engine.Rank(clockIns, turns), state.Skips)

	resp := &dto.QueueResponse{
		SessionID: sessionID,
		Entries:   make([]dto.QueueEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		item := dto.QueueEntryResponse{
			EmployeeID:     e.EmployeeID,
			EmployeeName:   employeeName(e.Employee),
			Position:       e.ClockIn.Position,
			CompletedTurns: e.CompletedTurns,
			HalfTurnCredit: e.HalfTurnCredit,
			Score:          e.Score(),
			InProgress:     e.InProgress,
			IsNext:         e.IsNext,
			IsSkipped:      e.IsSkipped,
		}
		if e.CurrentTurn != nil {
			t := toTurnResponse(e.CurrentTurn)
			item.CurrentTurn = &t
		}
		if e.Skip != nil {
			item.SkippedAt = formatTimePtr(&e.Skip.SkippedAt)
			item.SkipReason = e.Skip.Reason
		}
		if e.IsNext {
			id := e.EmployeeID
			resp.NextEmployeeID = &id
		}
		resp.Entries = append(resp.Entries, item)
	}
	return resp, nil
}

// ────────────────────── Grid ──────────────────────

func (s *boardService) Grid(ctx context.Context, sessionID string, rows int) (*dto.GridResponse, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rows <= 0 {
		rows = s.gridRows
	}

	clockIns, turns, err := state.Board.Snapshot(ctx)
	if err != nil {
		s.logger.Error("加载看板快照失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, storageErr(err)
	}

	grid := engine.Project(clockIns, turns, rows)

	resp := &dto.GridResponse{
		SessionID: sessionID,
		Rows:      grid.Rows,
		Columns:   make([]dto.GridColumnResponse, 0, len(grid.Columns)),
		Cells:     make([][]dto.GridCellResponse, 0, grid.Rows),
	}
	for _, col := range grid.Columns {
		resp.Columns = append(resp.Columns, dto.GridColumnResponse{
			EmployeeID:   col.EmployeeID,
			EmployeeName: employeeName(col.Employee),
			Position:     col.Position,
			IsActive:     col.IsActive,
		})
	}
	for _, row := range grid.Cells {
		cells := make([]dto.GridCellResponse, 0, len(row))
		for _, cell := range row {
			ids := make([]string, 0, len(cell.Turns))
			for _, t := range cell.Turns {
				ids = append(ids, t.ID)
			}
			cells = append(cells, dto.GridCellResponse{
				EmployeeID:   cell.EmployeeID,
				TurnNumber:   cell.TurnNumber,
				State:        string(cell.State),
				TurnIDs:      ids,
				ServiceNames: cell.ServiceNames,
				TotalPrice:   cell.TotalPrice,
				ActiveTurnID: cell.ActiveTurnID,
			})
		}
		resp.Cells = append(resp.Cells, cells)
	}
	return resp, nil
}

// ────────────────────── Skip ──────────────────────

func (s *boardService) Skip(ctx context.Context, sessionID, employeeID, reason string) (*dto.SkipResponse, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.ClockIn.GetActive(ctx, sessionID, employeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotClockedIn
		}
		s.logger.Error("查询在岗记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storageErr(err)
	}

	info := state.Skips.Skip(employeeID, reason)
	s.notifier.Notify(ctx, sessionID, realtime.TableSkips, "insert")
	return toSkipResponse(employeeID, &info), nil
}

func (s *boardService) Unskip(ctx context.Context, sessionID, employeeID string) (*dto.SkipResponse, error) {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.Skips.Unskip(employeeID) {
		s.notifier.Notify(ctx, sessionID, realtime.TableSkips, "delete")
	}
	return toSkipResponse(employeeID, nil), nil
}

// ────────────────────── Refresh ──────────────────────

func (s *boardService) Refresh(ctx context.Context, sessionID, aggregate string) error {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return err
	}

	agg := engine.Aggregate(aggregate)
	switch agg {
	case "":
		agg = engine.AggregateAll
	case engine.AggregateClockIns, engine.AggregateTurns, engine.AggregateAll:
	default:
		return ErrInvalidAggregate
	}

	if err := state.Board.Refresh(ctx, agg); err != nil {
		s.logger.Error("刷新看板快照失败", zap.String("session_id", sessionID), zap.Error(err))
		return storageErr(err)
	}
	if agg == engine.AggregateAll {
		state.Undo.Invalidate()
	}
	return nil
}
