package service

import (
	"context"
	"errors"
	"testing"

	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
)

func TestBoardService_EndToEndPairing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.db.addEmployee("A")
	manicure := env.db.addService("Manicure", 25, true)
	gel := env.db.addService("Gel Polish", 20, false)

	env.clockIn(t, a.ID)

	half := env.assign(t, a.ID, manicure.ID)
	if half.Turn.TurnNumber != 1 || !half.Turn.IsHalfTurn || half.Turn.Status != "in_progress" {
		t.Fatalf("半轮应为进行中的 T1，实际 %+v", half.Turn)
	}

	done := env.complete(t, half.Turn.ID)
	if done.Turn.Status != "completed" || done.Turn.PairedWithTurnID != nil {
		t.Fatalf("半轮完成后不应有配对，实际 %+v", done.Turn)
	}
	q, err := env.svc.Board.Queue(ctx, env.session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Entries[0].HalfTurnCredit != 0.5 || q.Entries[0].CompletedTurns != 0 {
		t.Fatalf("应有 0.5 半轮积分，实际 %+v", q.Entries[0])
	}

	pairing := env.assign(t, a.ID, gel.ID)
	if pairing.Turn.TurnNumber != 1 {
		t.Errorf("配对记录应为 T1，实际 T%d", pairing.Turn.TurnNumber)
	}
	if pairing.Turn.PairedWithTurnID == nil || *pairing.Turn.PairedWithTurnID != half.Turn.ID {
		t.Fatalf("配对记录应指向 Manicure，实际 %v", pairing.Turn.PairedWithTurnID)
	}
	env.complete(t, pairing.Turn.ID)

	q, err = env.svc.Board.Queue(ctx, env.session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Entries[0].CompletedTurns != 1 || q.Entries[0].HalfTurnCredit != 0 || q.Entries[0].Score != 1 {
		t.Errorf("配对完成后应计满 1 轮，实际 %+v", q.Entries[0])
	}

	grid, err := env.svc.Board.Grid(ctx, env.session.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Rows != 10 {
		t.Errorf("未指定行数时应使用配置的 10 行，实际 %d", grid.Rows)
	}
	cell := grid.Cells[0][0]
	if cell.State != "paired_completed" {
		t.Errorf("(A, T1) 应为已完成的配对单元格，实际 %s", cell.State)
	}
	if len(cell.ServiceNames) != 2 || cell.ServiceNames[0] != "Manicure" || cell.ServiceNames[1] != "Gel Polish" {
		t.Errorf("单元格应包含两项服务，实际 %v", cell.ServiceNames)
	}
	if cell.TotalPrice != 45 {
		t.Errorf("单元格总价应为 45，实际 %.0f", cell.TotalPrice)
	}
	if grid.Cells[1][0].State != "empty" {
		t.Errorf("T2 应为空，实际 %s", grid.Cells[1][0].State)
	}
}

func TestBoardService_QueueMarksNextAndSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addEmployee("alice")
	bob := env.db.addEmployee("bob")

	env.clockIn(t, alice.ID)
	env.clockIn(t, bob.ID)

	skip, err := env.svc.Board.Skip(ctx, env.session.ID, alice.ID, "lunch")
	if err != nil {
		t.Fatalf("跳过失败: %v", err)
	}
	if !skip.Skipped || skip.Reason != "lunch" || skip.SkippedAt == nil {
		t.Errorf("跳过结果不正确: %+v", skip)
	}
	if !env.notifier.has(realtime.TableSkips, "insert") {
		t.Error("跳过后应通知其他终端")
	}

	q, err := env.svc.Board.Queue(ctx, env.session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.NextEmployeeID == nil || *q.NextEmployeeID != bob.ID {
		t.Fatalf("alice 被跳过时下一位应为 bob，实际 %v", q.NextEmployeeID)
	}
	if q.Entries[0].EmployeeID != bob.ID || !q.Entries[1].IsSkipped || q.Entries[1].SkipReason != "lunch" {
		t.Errorf("被跳过的 alice 应排在同分档位末尾，实际 %+v", q.Entries)
	}
	if q.Entries[1].Score != 0 {
		t.Error("跳过不影响公平分")
	}

	unskip, err := env.svc.Board.Unskip(ctx, env.session.ID, alice.ID)
	if err != nil || unskip.Skipped {
		t.Fatalf("取消跳过失败: %+v err=%v", unskip, err)
	}
	if _, err := env.svc.Board.Unskip(ctx, env.session.ID, alice.ID); err != nil {
		t.Errorf("重复取消跳过应幂等，实际 %v", err)
	}
	if !sameOrder(env.queueOrder(t), []string{alice.ID, bob.ID}) {
		t.Errorf("取消跳过后应恢复原顺序，实际 %v", env.queueOrder(t))
	}
}

func TestBoardService_SkipRequiresClockIn(t *testing.T) {
	env := newTestEnv(t)
	alice := env.db.addEmployee("alice")

	if _, err := env.svc.Board.Skip(context.Background(), env.session.ID, alice.ID, ""); !errors.Is(err, ErrNotClockedIn) {
		t.Errorf("未打卡的技师不能跳过，实际 %v", err)
	}
}

func TestBoardService_EmptyQueue(t *testing.T) {
	env := newTestEnv(t)

	q, err := env.svc.Board.Queue(context.Background(), env.session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Entries) != 0 || q.NextEmployeeID != nil {
		t.Errorf("无人在岗时排队应为空，实际 %+v", q)
	}
}

func TestBoardService_Refresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addEmployee("alice")

	env.queueOrder(t)

	// 绕过 Service 直接写入存储，模拟其他实例的变更
	env.db.mu.Lock()
	env.db.clockIns["ci-remote"] = clockInRow("ci-remote", env.session.ID, alice.ID, 1)
	env.db.mu.Unlock()

	if order := env.queueOrder(t); len(order) != 0 {
		t.Fatalf("刷新前读取的是旧快照，实际 %v", order)
	}

	tests := []struct {
		aggregate string
		wantErr   error
	}{
		{"bogus", ErrInvalidAggregate},
		{"turns", nil},
		{"clock_ins", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if err := env.svc.Board.Refresh(ctx, env.session.ID, tt.aggregate); !errors.Is(err, tt.wantErr) {
			t.Errorf("Refresh(%q) 期望 %v，实际 %v", tt.aggregate, tt.wantErr, err)
		}
	}

	if !sameOrder(env.queueOrder(t), []string{alice.ID}) {
		t.Errorf("刷新后应读到存储中的打卡，实际 %v", env.queueOrder(t))
	}
}

func TestBoardService_RemoteChangeInvalidatesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	alice := env.db.addEmployee("alice")
	env.queueOrder(t)

	env.db.mu.Lock()
	env.db.clockIns["ci-remote"] = clockInRow("ci-remote", env.session.ID, alice.ID, 1)
	env.db.mu.Unlock()

	env.states.ApplyRemoteChange(realtime.Event{SessionID: env.session.ID, Table: realtime.TableClockIns, Op: "insert"})
	if !sameOrder(env.queueOrder(t), []string{alice.ID}) {
		t.Errorf("收到远端变更后应重新加载，实际 %v", env.queueOrder(t))
	}

	env.states.ApplyRemoteChange(realtime.Event{SessionID: env.session.ID, Table: realtime.TableSession, Op: "clear"})
	if _, ok := env.states.Lookup(env.session.ID); ok {
		t.Error("远端清空营业日后应释放本地状态")
	}
}
