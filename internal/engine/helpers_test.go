package engine

import (
	"time"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

const testSession = "sess-1"

var baseTime = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func activeClockIn(employeeID string, position int) model.ClockIn {
	return model.ClockIn{
		ID:          "ci-" + employeeID,
		SessionID:   testSession,
		EmployeeID:  employeeID,
		ClockInTime: baseTime.Add(time.Duration(position) * time.Minute),
		Position:    position,
		Employee:    &model.Employee{BaseModel: model.BaseModel{ID: employeeID}, FullName: "技师" + employeeID},
	}
}

func turn(id, employeeID string, number int, half bool, status model.TurnStatus) model.Turn {
	return model.Turn{
		ID:         id,
		SessionID:  testSession,
		EmployeeID: employeeID,
		ServiceID:  "svc-" + id,
		TurnNumber: number,
		IsHalfTurn: half,
		Status:     status,
		StartedAt:  baseTime,
		CreatedAt:  baseTime,
	}
}

func pairing(id, employeeID string, number int, half bool, status model.TurnStatus, pairedWith string) model.Turn {
	t := turn(id, employeeID, number, half, status)
	t.PairedWithTurnID = ptr(pairedWith)
	return t
}

type skipSet map[string]bool

func (s skipSet) IsSkipped(id string) bool { return s[id] }
