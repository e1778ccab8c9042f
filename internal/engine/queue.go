package engine

import (
	"sort"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// QueueEntry 排队中的一名技师
type QueueEntry struct {
	EmployeeID     string
	Employee       *model.Employee
	ClockIn        model.ClockIn
	CompletedTurns int
	HalfTurnCredit float64 // 0 或 0.5
	InProgress     bool
	CurrentTurn    *model.Turn
}

// Score 公平分 = 已完成轮次 + 半轮积分，越低越优先
func (e *QueueEntry) Score() float64 {
	return float64(e.CompletedTurns) + e.HalfTurnCredit
}

// Skipper 判断技师是否处于跳过/休息状态
type Skipper interface {
	IsSkipped(employeeID string) bool
}

// Rank 根据打卡记录与轮次记录计算排队顺序。
//
// 只统计在岗（未签退）的技师。已完成记录的计分规则：
//   - 配对记录（PairedWithTurnID 非空）计 1 轮
//   - 半轮且未被已完成记录配对计 0.5
//   - 被已完成记录配对的半轮不计分，由配对记录计满 1 轮
//   - 整轮计 1 轮
//
// 进行中的记录不计分，只标记 InProgress。
// 排序：公平分升序，平局按 Position 升序。
func Rank(clockIns []model.ClockIn, turns []model.Turn) []QueueEntry {
	entries := make(map[string]*QueueEntry, len(clockIns))
	order := make([]string, 0, len(clockIns))
	for i := range clockIns {
		ci := clockIns[i]
		if !ci.IsActive() {
			continue
		}
		if existing, ok := entries[ci.EmployeeID]; ok {
			// 同一技师出现多条在岗记录时保留序号较小的一条
			if ci.Position < existing.ClockIn.Position {
				existing.ClockIn = ci
			}
			continue
		}
		entries[ci.EmployeeID] = &QueueEntry{
			EmployeeID: ci.EmployeeID,
			Employee:   ci.Employee,
			ClockIn:    ci,
		}
		order = append(order, ci.EmployeeID)
	}

	pairedByCompleted := make(map[string]bool)
	for i := range turns {
		t := &turns[i]
		if t.IsCompleted() && t.PairedWithTurnID != nil {
			pairedByCompleted[*t.PairedWithTurnID] = true
		}
	}

	halfUnits := make(map[string]int, len(entries))
	for i := range turns {
		t := turns[i]
		entry, ok := entries[t.EmployeeID]
		if !ok {
			continue
		}
		switch t.Status {
		case model.TurnCompleted:
			switch {
			case t.PairedWithTurnID != nil:
				entry.CompletedTurns++
			case t.IsHalfTurn:
				if !pairedByCompleted[t.ID] {
					halfUnits[t.EmployeeID]++
				}
			default:
				entry.CompletedTurns++
			}
		case model.TurnInProgress:
			if !entry.InProgress {
				entry.InProgress = true
				entry.CurrentTurn = &t
			}
		}
	}

	result := make([]QueueEntry, 0, len(order))
	for _, id := range order {
		entry := entries[id]
		units := halfUnits[id]
		// 遗留的多个未配对半轮按两两折算为整轮
		entry.CompletedTurns += units / 2
		if units%2 == 1 {
			entry.HalfTurnCredit = 0.5
		}
		result = append(result, *entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := &result[i], &result[j]
		if a.Score() != b.Score() {
			return a.Score() < b.Score()
		}
		if a.ClockIn.Position != b.ClockIn.Position {
			return a.ClockIn.Position < b.ClockIn.Position
		}
		return a.EmployeeID < b.EmployeeID
	})

	return result
}

// NextEligible 返回下一位应接单的技师：排名最前、未在服务中且未被跳过。
// 无人可接单时返回 nil。
func NextEligible(queue []QueueEntry, skips Skipper) *QueueEntry {
	for i := range queue {
		e := &queue[i]
		if e.InProgress {
			continue
		}
		if skips != nil && skips.IsSkipped(e.EmployeeID) {
			continue
		}
		return e
	}
	return nil
}

// DisplayEntry 展示用的排队条目
type DisplayEntry struct {
	QueueEntry
	IsNext    bool
	IsSkipped bool
	Skip      *SkipInfo
}

// DisplayOrder 生成展示顺序：被跳过的技师沉到同一公平分档位的末尾，
// 不影响其公平分。
func DisplayOrder(queue []QueueEntry, skips *SkipOverlay) []DisplayEntry {
	var sk Skipper
	if skips != nil {
		sk = skips
	}
	next := NextEligible(queue, sk)

	out := make([]DisplayEntry, 0, len(queue))
	for _, e := range queue {
		d := DisplayEntry{QueueEntry: e}
		if skips != nil {
			if info, ok := skips.Info(e.EmployeeID); ok {
				d.IsSkipped = true
				d.Skip = &info
			}
		}
		d.IsNext = next != nil && next.EmployeeID == e.EmployeeID
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.Score() != b.Score() {
			return a.Score() < b.Score()
		}
		return !a.IsSkipped && b.IsSkipped
	})

	return out
}
