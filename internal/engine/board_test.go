package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

type stubLoader struct {
	clockIns []model.ClockIn
	turns    []model.Turn
	loads    int
	err      error
}

func (l *stubLoader) LoadClockIns(context.Context, string) ([]model.ClockIn, error) {
	l.loads++
	if l.err != nil {
		return nil, l.err
	}
	out := make([]model.ClockIn, len(l.clockIns))
	copy(out, l.clockIns)
	return out, nil
}

func (l *stubLoader) LoadTurns(context.Context, string) ([]model.Turn, error) {
	l.loads++
	if l.err != nil {
		return nil, l.err
	}
	out := make([]model.Turn, len(l.turns))
	copy(out, l.turns)
	return out, nil
}

func turnIDs(turns []model.Turn) []string {
	ids := make([]string, len(turns))
	for i, t := range turns {
		ids[i] = t.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBoard_LazyLoadOnce(t *testing.T) {
	loader := &stubLoader{clockIns: []model.ClockIn{activeClockIn("A", 1)}}
	b := NewBoard(testSession, loader)

	for i := 0; i < 3; i++ {
		if _, _, err := b.Snapshot(context.Background()); err != nil {
			t.Fatalf("读取快照失败: %v", err)
		}
	}
	if loader.loads != 2 {
		t.Errorf("两个数据集各应只加载一次，实际 %d 次", loader.loads)
	}
}

func TestBoard_LoadError(t *testing.T) {
	loader := &stubLoader{err: errors.New("boom")}
	if _, _, err := NewBoard(testSession, loader).Snapshot(context.Background()); err == nil {
		t.Fatal("加载失败时应返回错误")
	}
}

func TestBoard_ConfirmKeepsPatch(t *testing.T) {
	ctx := context.Background()
	b := NewBoard(testSession, &stubLoader{})
	_, _, _ = b.Snapshot(ctx)

	op := b.Begin(InsertTurn(turn("t1", "A", 1, false, model.TurnInProgress)))
	if op.State() != OpPending {
		t.Fatalf("新操作应为 pending，实际 %s", op.State())
	}
	if inv := op.Inverse(); inv.Op != PatchDelete || inv.Turn == nil || inv.Turn.ID != "t1" {
		t.Errorf("插入的逆补丁应为删除 t1，实际 %+v", inv)
	}
	op.Confirm()
	op.Rollback() // 已确认后回滚无效

	_, turns, _ := b.Snapshot(ctx)
	if len(turns) != 1 || op.State() != OpConfirmed {
		t.Errorf("确认后应保留补丁，实际 %v / %s", turnIDs(turns), op.State())
	}
}

func TestBoard_RollbackRestoresExactly(t *testing.T) {
	ctx := context.Background()
	completed := turn("t2", "A", 2, false, model.TurnCompleted)
	loader := &stubLoader{turns: []model.Turn{
		turn("t1", "A", 1, false, model.TurnCompleted),
		turn("t2", "A", 2, false, model.TurnInProgress),
		turn("t3", "B", 1, false, model.TurnInProgress),
	}}

	tests := []struct {
		name  string
		patch Patch
	}{
		{"插入", InsertTurn(turn("t4", "C", 1, true, model.TurnInProgress))},
		{"更新", UpdateTurn(completed)},
		{"删除中间记录", DeleteTurn(turn("t2", "A", 2, false, model.TurnInProgress))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard(testSession, loader)
			_, before, _ := b.Snapshot(ctx)

			op := b.Begin(tt.patch)
			_, during, _ := b.Snapshot(ctx)
			if equalIDs(turnIDs(before), turnIDs(during)) && tt.patch.Op != PatchUpdate {
				t.Fatal("补丁应立即反映到快照")
			}

			op.Rollback()
			_, after, _ := b.Snapshot(ctx)
			if !equalIDs(turnIDs(before), turnIDs(after)) {
				t.Fatalf("回滚后应恢复原状，期望 %v，实际 %v", turnIDs(before), turnIDs(after))
			}
			for i := range before {
				if before[i].Status != after[i].Status {
					t.Errorf("记录 %s 状态未恢复", before[i].ID)
				}
			}
			if op.State() != OpRolledBack {
				t.Errorf("状态应为 rolled_back，实际 %s", op.State())
			}
		})
	}
}

func TestBoard_RollbackAfterRefreshMarksStale(t *testing.T) {
	ctx := context.Background()
	loader := &stubLoader{}
	b := NewBoard(testSession, loader)
	_, _, _ = b.Snapshot(ctx)

	op := b.Begin(InsertTurn(turn("t1", "A", 1, false, model.TurnInProgress)))

	// 其他终端的变更触发刷新，存储中已存在 t9
	loader.turns = []model.Turn{turn("t9", "B", 1, false, model.TurnInProgress)}
	if err := b.Refresh(ctx, AggregateTurns); err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	loads := loader.loads

	op.Rollback()
	_, turns, _ := b.Snapshot(ctx)
	if loader.loads != loads+1 {
		t.Error("快照已刷新时回滚应使数据集失效并重新加载")
	}
	if !equalIDs(turnIDs(turns), []string{"t9"}) {
		t.Errorf("重新加载后应与存储一致，实际 %v", turnIDs(turns))
	}
}

func TestBoard_ClockInPatchesAreIndependent(t *testing.T) {
	ctx := context.Background()
	loader := &stubLoader{clockIns: []model.ClockIn{activeClockIn("A", 1)}}
	b := NewBoard(testSession, loader)
	_, _, _ = b.Snapshot(ctx)

	clockOp := b.Begin(InsertClockIn(activeClockIn("B", 2)))
	if err := b.Refresh(ctx, AggregateTurns); err != nil {
		t.Fatal(err)
	}
	loads := loader.loads

	clockOp.Rollback()
	clockIns, _, _ := b.Snapshot(ctx)
	if loader.loads != loads {
		t.Error("轮次刷新不应影响打卡补丁的回滚")
	}
	if len(clockIns) != 1 || clockIns[0].EmployeeID != "A" {
		t.Errorf("回滚后应只剩 A，实际 %+v", clockIns)
	}
}

func TestBoard_InvalidateReloads(t *testing.T) {
	ctx := context.Background()
	loader := &stubLoader{}
	b := NewBoard(testSession, loader)
	_, _, _ = b.Snapshot(ctx)

	loader.clockIns = []model.ClockIn{activeClockIn("A", 1)}
	b.Invalidate(AggregateAll)
	clockIns, _, err := b.Snapshot(ctx)
	if err != nil || len(clockIns) != 1 {
		t.Errorf("失效后应重新加载，实际 %+v err=%v", clockIns, err)
	}
	if loader.loads != 4 {
		t.Errorf("应共加载 4 次，实际 %d", loader.loads)
	}
}

func TestBoard_PatchBeforeLoadIsNoop(t *testing.T) {
	ctx := context.Background()
	loader := &stubLoader{turns: []model.Turn{turn("t1", "A", 1, false, model.TurnCompleted)}}
	b := NewBoard(testSession, loader)

	op := b.Begin(InsertTurn(turn("t2", "A", 2, false, model.TurnInProgress)))
	op.Rollback()
	_, turns, _ := b.Snapshot(ctx)
	if !equalIDs(turnIDs(turns), []string{"t1"}) {
		t.Errorf("未加载时补丁不应生效，实际 %v", turnIDs(turns))
	}
}
