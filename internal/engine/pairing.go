package engine

import (
	"context"
	"fmt"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// PairingLookup 半轮配对判定所需的查询
type PairingLookup interface {
	// LatestCompletedHalf 技师当日 TurnNumber 最大的已完成半轮（自身不是配对记录）；没有时返回 nil
	LatestCompletedHalf(ctx context.Context, sessionID, employeeID string) (*model.Turn, error)
	// IsPaired 是否已有记录指向该半轮
	IsPaired(ctx context.Context, turnID string) (bool, error)
	// MaxTurnNumber 技师当日最大 TurnNumber，没有记录时为 0
	MaxTurnNumber(ctx context.Context, sessionID, employeeID string) (int, error)
}

// PairingDecision 新轮次的 TurnNumber 与配对目标
type PairingDecision struct {
	TurnNumber       int
	PairedWithTurnID *string
}

// IsPairing 是否补全一个已有的半轮
func (d PairingDecision) IsPairing() bool { return d.PairedWithTurnID != nil }

// PairingResolver 判定新派单是补全技师待配对的半轮，还是开启新的轮次。
//
// 判定只取决于技师是否有待配对的半轮，与新服务本身是否为半轮无关。
// 若存在多个未配对半轮，只有 TurnNumber 最大的一个可被配对，较早的保持原状。
type PairingResolver struct {
	lookup PairingLookup
}

// NewPairingResolver 创建配对判定器
func NewPairingResolver(lookup PairingLookup) *PairingResolver {
	return &PairingResolver{lookup: lookup}
}

// Resolve 返回新记录应使用的 TurnNumber 与 PairedWithTurnID，不产生写操作
func (r *PairingResolver) Resolve(ctx context.Context, sessionID, employeeID string) (PairingDecision, error) {
	half, err := r.lookup.LatestCompletedHalf(ctx, sessionID, employeeID)
	if err != nil {
		return PairingDecision{}, fmt.Errorf("查询待配对半轮失败: %w", err)
	}

	if half != nil {
		// 二次确认，避免两次操作同时看到同一个待配对半轮
		paired, err := r.lookup.IsPaired(ctx, half.ID)
		if err != nil {
			return PairingDecision{}, fmt.Errorf("确认半轮配对状态失败: %w", err)
		}
		if !paired {
			id := half.ID
			return PairingDecision{TurnNumber: half.TurnNumber, PairedWithTurnID: &id}, nil
		}
	}

	maxNumber, err := r.lookup.MaxTurnNumber(ctx, sessionID, employeeID)
	if err != nil {
		return PairingDecision{}, fmt.Errorf("查询最大轮次号失败: %w", err)
	}
	return PairingDecision{TurnNumber: maxNumber + 1}, nil
}

// TurnsLookup 基于内存中轮次列表的 PairingLookup 实现
type TurnsLookup []model.Turn

// LatestCompletedHalf 实现 PairingLookup
func (l TurnsLookup) LatestCompletedHalf(_ context.Context, sessionID, employeeID string) (*model.Turn, error) {
	var latest *model.Turn
	for i := range l {
		t := &l[i]
		if t.SessionID != sessionID || t.EmployeeID != employeeID {
			continue
		}
		if !t.IsHalfTurn || !t.IsCompleted() || t.PairedWithTurnID != nil {
			continue
		}
		if latest == nil || t.TurnNumber > latest.TurnNumber {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// IsPaired 实现 PairingLookup
func (l TurnsLookup) IsPaired(_ context.Context, turnID string) (bool, error) {
	for i := range l {
		if p := l[i].PairedWithTurnID; p != nil && *p == turnID {
			return true, nil
		}
	}
	return false, nil
}

// MaxTurnNumber 实现 PairingLookup
func (l TurnsLookup) MaxTurnNumber(_ context.Context, sessionID, employeeID string) (int, error) {
	maxNumber := 0
	for i := range l {
		t := &l[i]
		if t.SessionID == sessionID && t.EmployeeID == employeeID && t.TurnNumber > maxNumber {
			maxNumber = t.TurnNumber
		}
	}
	return maxNumber, nil
}
