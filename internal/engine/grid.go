package engine

import (
	"sort"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// CellState 网格单元格状态
type CellState string

const (
	CellEmpty                CellState = "empty"
	CellFullInProgress       CellState = "full_in_progress"
	CellFullCompleted        CellState = "full_completed"
	CellHalfInProgress       CellState = "half_in_progress"
	CellHalfCompletedPending CellState = "half_completed_pending"
	CellPairedInProgress     CellState = "paired_in_progress"
	CellPairedCompleted      CellState = "paired_completed"
)

// GridColumn 网格列：一名打过卡的技师
type GridColumn struct {
	EmployeeID string
	Employee   *model.Employee
	Position   int
	IsActive   bool
}

// GridCell 技师 × 轮次号 的单元格
type GridCell struct {
	EmployeeID   string
	TurnNumber   int
	State        CellState
	Turns        []model.Turn // 先半轮/整轮本身，再配对记录
	ServiceNames []string
	TotalPrice   float64
	ActiveTurnID string // 进行中的记录，可用于“完成”操作
}

// Grid 轮次历史网格，Cells[row][col]，row 0 对应 T1
type Grid struct {
	Columns []GridColumn
	Rows    int
	Cells   [][]GridCell
}

// Project 由打卡记录与轮次记录推导网格。
// 列按打卡序号排列，行数取 minRows 与最大轮次号中较大者。
func Project(clockIns []model.ClockIn, turns []model.Turn, minRows int) Grid {
	sorted := make([]model.ClockIn, len(clockIns))
	copy(sorted, clockIns)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	columns := make([]GridColumn, 0, len(sorted))
	colIndex := make(map[string]int, len(sorted))
	for _, ci := range sorted {
		if idx, ok := colIndex[ci.EmployeeID]; ok {
			if ci.IsActive() {
				columns[idx].IsActive = true
			}
			continue
		}
		colIndex[ci.EmployeeID] = len(columns)
		columns = append(columns, GridColumn{
			EmployeeID: ci.EmployeeID,
			Employee:   ci.Employee,
			Position:   ci.Position,
			IsActive:   ci.IsActive(),
		})
	}

	rows := minRows
	byKey := make(map[cellKey][]model.Turn)
	for _, t := range turns {
		if _, ok := colIndex[t.EmployeeID]; !ok {
			continue
		}
		if t.TurnNumber > rows {
			rows = t.TurnNumber
		}
		k := cellKey{employeeID: t.EmployeeID, turnNumber: t.TurnNumber}
		byKey[k] = append(byKey[k], t)
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]GridCell, rows)
	for r := 0; r < rows; r++ {
		cells[r] = make([]GridCell, len(columns))
		for c, col := range columns {
			cells[r][c] = buildCell(col.EmployeeID, r+1, byKey[cellKey{employeeID: col.EmployeeID, turnNumber: r + 1}])
		}
	}

	return Grid{Columns: columns, Rows: rows, Cells: cells}
}

type cellKey struct {
	employeeID string
	turnNumber int
}

func buildCell(employeeID string, turnNumber int, records []model.Turn) GridCell {
	cell := GridCell{EmployeeID: employeeID, TurnNumber: turnNumber, State: CellEmpty}
	if len(records) == 0 {
		return cell
	}

	base := pickBase(records)
	var pairing *model.Turn
	for i := range records {
		if p := records[i].PairedWithTurnID; p != nil && *p == base.ID {
			pairing = &records[i]
			break
		}
	}

	cell.Turns = append(cell.Turns, *base)
	if pairing != nil {
		cell.Turns = append(cell.Turns, *pairing)
	}
	for i := range cell.Turns {
		t := &cell.Turns[i]
		if t.Service != nil {
			cell.ServiceNames = append(cell.ServiceNames, t.Service.Name)
			cell.TotalPrice += t.Service.Price
		}
		if t.Status == model.TurnInProgress && cell.ActiveTurnID == "" {
			cell.ActiveTurnID = t.ID
		}
	}

	switch {
	case !base.IsHalfTurn:
		if base.IsCompleted() {
			cell.State = CellFullCompleted
		} else {
			cell.State = CellFullInProgress
		}
	case pairing == nil:
		if base.IsCompleted() {
			cell.State = CellHalfCompletedPending
		} else {
			cell.State = CellHalfInProgress
		}
	default:
		if base.IsCompleted() && pairing.IsCompleted() {
			cell.State = CellPairedCompleted
		} else {
			cell.State = CellPairedInProgress
		}
	}

	return cell
}

// pickBase 选出单元格的主记录：优先不指向其他记录的那条
func pickBase(records []model.Turn) *model.Turn {
	for i := range records {
		if records[i].PairedWithTurnID == nil {
			return &records[i]
		}
	}
	return &records[0]
}
