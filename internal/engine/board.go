package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// Aggregate 看板快照中可独立刷新的数据集
type Aggregate string

const (
	AggregateClockIns Aggregate = "clock_ins"
	AggregateTurns    Aggregate = "turns"
	AggregateAll      Aggregate = "all"
)

// Loader 从存储加载营业日数据（已关联技师与服务）
type Loader interface {
	LoadClockIns(ctx context.Context, sessionID string) ([]model.ClockIn, error)
	LoadTurns(ctx context.Context, sessionID string) ([]model.Turn, error)
}

// PatchOp 补丁操作
type PatchOp string

const (
	PatchNone   PatchOp = ""
	PatchInsert PatchOp = "insert"
	PatchUpdate PatchOp = "update"
	PatchDelete PatchOp = "delete"
)

// Patch 对快照的一次修改，Turn 与 ClockIn 二者只设置一个
type Patch struct {
	Op      PatchOp
	Turn    *model.Turn
	ClockIn *model.ClockIn

	index int // 逆向插入时恢复的位置，-1 表示追加
}

// InsertTurn 插入轮次
func InsertTurn(t model.Turn) Patch { return Patch{Op: PatchInsert, Turn: &t, index: -1} }

// UpdateTurn 以新值替换同 ID 轮次
func UpdateTurn(t model.Turn) Patch { return Patch{Op: PatchUpdate, Turn: &t, index: -1} }

// DeleteTurn 删除轮次
func DeleteTurn(t model.Turn) Patch { return Patch{Op: PatchDelete, Turn: &t, index: -1} }

// InsertClockIn 插入打卡记录
func InsertClockIn(c model.ClockIn) Patch { return Patch{Op: PatchInsert, ClockIn: &c, index: -1} }

// UpdateClockIn 以新值替换同 ID 打卡记录
func UpdateClockIn(c model.ClockIn) Patch { return Patch{Op: PatchUpdate, ClockIn: &c, index: -1} }

// DeleteClockIn 删除打卡记录
func DeleteClockIn(c model.ClockIn) Patch { return Patch{Op: PatchDelete, ClockIn: &c, index: -1} }

func (p Patch) aggregate() Aggregate {
	if p.ClockIn != nil {
		return AggregateClockIns
	}
	return AggregateTurns
}

// OpState 乐观操作状态
type OpState int

const (
	OpPending OpState = iota
	OpConfirmed
	OpRolledBack
)

// String 实现 fmt.Stringer
func (s OpState) String() string {
	switch s {
	case OpPending:
		return "pending"
	case OpConfirmed:
		return "confirmed"
	case OpRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("OpState(%d)", int(s))
	}
}

// Op 一次乐观更新：先在本地快照应用，存储确认后 Confirm，失败则 Rollback 应用逆补丁
type Op struct {
	board      *Board
	patch      Patch
	inverse    Patch
	generation uint64
	state      OpState
}

// State 当前状态
func (o *Op) State() OpState {
	o.board.mu.RLock()
	defer o.board.mu.RUnlock()
	return o.state
}

// Inverse 失败时需要应用的逆补丁
func (o *Op) Inverse() Patch { return o.inverse }

// Aggregate 补丁作用的数据集
func (o *Op) Aggregate() Aggregate { return o.patch.aggregate() }

// Confirm 存储已确认
func (o *Op) Confirm() {
	o.board.mu.Lock()
	defer o.board.mu.Unlock()
	if o.state == OpPending {
		o.state = OpConfirmed
	}
}

// Rollback 存储失败，撤回本地修改。
// 期间快照若已整体刷新，则直接标记该数据集失效，下次读取时重新加载。
func (o *Op) Rollback() {
	b := o.board
	b.mu.Lock()
	defer b.mu.Unlock()
	if o.state != OpPending {
		return
	}
	o.state = OpRolledBack

	agg := o.patch.aggregate()
	if b.generation(agg) != o.generation {
		b.markStale(agg)
		return
	}
	b.apply(o.inverse)
}

// Board 单个营业日的看板快照（打卡记录 + 轮次记录）
type Board struct {
	mu        sync.RWMutex
	sessionID string
	loader    Loader

	clockIns       []model.ClockIn
	turns          []model.Turn
	clockInsLoaded bool
	turnsLoaded    bool
	clockInsGen    uint64
	turnsGen       uint64
}

// NewBoard 创建看板快照，数据在首次读取时加载
func NewBoard(sessionID string, loader Loader) *Board {
	return &Board{sessionID: sessionID, loader: loader}
}

// Snapshot 返回打卡记录与轮次记录的副本，未加载或已失效的数据集会先从存储加载
func (b *Board) Snapshot(ctx context.Context) ([]model.ClockIn, []model.Turn, error) {
	b.mu.RLock()
	ready := b.clockInsLoaded && b.turnsLoaded
	b.mu.RUnlock()

	if !ready {
		b.mu.RLock()
		var missing []Aggregate
		if !b.clockInsLoaded {
			missing = append(missing, AggregateClockIns)
		}
		if !b.turnsLoaded {
			missing = append(missing, AggregateTurns)
		}
		b.mu.RUnlock()
		for _, agg := range missing {
			if err := b.Refresh(ctx, agg); err != nil {
				return nil, nil, err
			}
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	clockIns := make([]model.ClockIn, len(b.clockIns))
	copy(clockIns, b.clockIns)
	turns := make([]model.Turn, len(b.turns))
	copy(turns, b.turns)
	return clockIns, turns, nil
}

// Refresh 从存储重新加载指定数据集
func (b *Board) Refresh(ctx context.Context, agg Aggregate) error {
	if agg == AggregateClockIns || agg == AggregateAll {
		clockIns, err := b.loader.LoadClockIns(ctx, b.sessionID)
		if err != nil {
			return fmt.Errorf("加载打卡记录失败: %w", err)
		}
		b.mu.Lock()
		b.clockIns = clockIns
		b.clockInsLoaded = true
		b.clockInsGen++
		b.mu.Unlock()
	}
	if agg == AggregateTurns || agg == AggregateAll {
		turns, err := b.loader.LoadTurns(ctx, b.sessionID)
		if err != nil {
			return fmt.Errorf("加载轮次记录失败: %w", err)
		}
		b.mu.Lock()
		b.turns = turns
		b.turnsLoaded = true
		b.turnsGen++
		b.mu.Unlock()
	}
	return nil
}

// Invalidate 标记数据集失效，下次读取时重新加载
func (b *Board) Invalidate(agg Aggregate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if agg == AggregateClockIns || agg == AggregateAll {
		b.markStale(AggregateClockIns)
	}
	if agg == AggregateTurns || agg == AggregateAll {
		b.markStale(AggregateTurns)
	}
}

// Begin 在本地快照应用补丁并返回处于 pending 状态的操作
func (b *Board) Begin(p Patch) *Op {
	b.mu.Lock()
	defer b.mu.Unlock()

	agg := p.aggregate()
	op := &Op{board: b, patch: p, generation: b.generation(agg), state: OpPending}
	op.inverse = b.apply(p)
	return op
}

func (b *Board) generation(agg Aggregate) uint64 {
	if agg == AggregateClockIns {
		return b.clockInsGen
	}
	return b.turnsGen
}

func (b *Board) markStale(agg Aggregate) {
	if agg == AggregateClockIns {
		b.clockIns = nil
		b.clockInsLoaded = false
		b.clockInsGen++
		return
	}
	b.turns = nil
	b.turnsLoaded = false
	b.turnsGen++
}

// apply 修改快照并返回逆补丁；数据集未加载时不做修改
func (b *Board) apply(p Patch) Patch {
	switch {
	case p.Turn != nil:
		if !b.turnsLoaded {
			return Patch{}
		}
		var inv Patch
		b.turns, inv = applyTurn(b.turns, p)
		return inv
	case p.ClockIn != nil:
		if !b.clockInsLoaded {
			return Patch{}
		}
		var inv Patch
		b.clockIns, inv = applyClockIn(b.clockIns, p)
		return inv
	default:
		return Patch{}
	}
}

func applyTurn(list []model.Turn, p Patch) ([]model.Turn, Patch) {
	idx := -1
	for i := range list {
		if list[i].ID == p.Turn.ID {
			idx = i
			break
		}
	}

	switch p.Op {
	case PatchInsert:
		if idx >= 0 {
			return list, Patch{}
		}
		if p.index >= 0 && p.index <= len(list) {
			list = append(list[:p.index], append([]model.Turn{*p.Turn}, list[p.index:]...)...)
		} else {
			list = append(list, *p.Turn)
		}
		return list, Patch{Op: PatchDelete, Turn: p.Turn, index: -1}
	case PatchUpdate:
		if idx < 0 {
			return list, Patch{}
		}
		old := list[idx]
		list[idx] = *p.Turn
		return list, Patch{Op: PatchUpdate, Turn: &old, index: -1}
	case PatchDelete:
		if idx < 0 {
			return list, Patch{}
		}
		old := list[idx]
		list = append(list[:idx], list[idx+1:]...)
		return list, Patch{Op: PatchInsert, Turn: &old, index: idx}
	}
	return list, Patch{}
}

func applyClockIn(list []model.ClockIn, p Patch) ([]model.ClockIn, Patch) {
	idx := -1
	for i := range list {
		if list[i].ID == p.ClockIn.ID {
			idx = i
			break
		}
	}

	switch p.Op {
	case PatchInsert:
		if idx >= 0 {
			return list, Patch{}
		}
		if p.index >= 0 && p.index <= len(list) {
			list = append(list[:p.index], append([]model.ClockIn{*p.ClockIn}, list[p.index:]...)...)
		} else {
			list = append(list, *p.ClockIn)
		}
		return list, Patch{Op: PatchDelete, ClockIn: p.ClockIn, index: -1}
	case PatchUpdate:
		if idx < 0 {
			return list, Patch{}
		}
		old := list[idx]
		list[idx] = *p.ClockIn
		return list, Patch{Op: PatchUpdate, ClockIn: &old, index: -1}
	case PatchDelete:
		if idx < 0 {
			return list, Patch{}
		}
		old := list[idx]
		list = append(list[:idx], list[idx+1:]...)
		return list, Patch{Op: PatchInsert, ClockIn: &old, index: idx}
	}
	return list, Patch{}
}
