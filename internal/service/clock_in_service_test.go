package service

import (
	"context"
	"errors"
	"testing"

	"github.com/NotKhoa03/salon-turn-system/internal/engine"
)

func TestClockInService_ClockInAssignsPositions(t *testing.T) {
	env := newTestEnv(t)
	alice := env.db.addEmployee("alice")
	bob := env.db.addEmployee("bob")

	a := env.clockIn(t, alice.ID)
	b := env.clockIn(t, bob.ID)

	if a.ClockIn.Position != 1 || b.ClockIn.Position != 2 {
		t.Errorf("打卡序号应依次为 1、2，实际 %d、%d", a.ClockIn.Position, b.ClockIn.Position)
	}
	if a.WasReactivation || a.UndoActionID == "" {
		t.Errorf("首次打卡不是重新上岗且应可撤销: %+v", a)
	}
	if !sameOrder(env.queueOrder(t), []string{alice.ID, bob.ID}) {
		t.Errorf("排队应按打卡顺序，实际 %v", env.queueOrder(t))
	}
}

func TestClockInService_ClockInErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addEmployee("alice")
	env.clockIn(t, alice.ID)

	tests := []struct {
		name       string
		sessionID  string
		employeeID string
		wantErr    error
	}{
		{"重复打卡", env.session.ID, alice.ID, ErrAlreadyClockedIn},
		{"技师不存在", env.session.ID, "ghost", ErrEmployeeNotFound},
		{"营业日不存在", "missing", alice.ID, ErrNoSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.ClockIn.ClockIn(ctx, tt.sessionID, tt.employeeID); !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际 %v", tt.wantErr, err)
			}
		})
	}
}

func TestClockInService_ClockOutAndReactivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.db.addEmployee("alice")
	bob := env.db.addEmployee("bob")

	first := env.clockIn(t, alice.ID)
	env.clockIn(t, bob.ID)

	out, err := env.svc.ClockIn.ClockOut(ctx, env.session.ID, alice.ID)
	if err != nil {
		t.Fatalf("签退失败: %v", err)
	}
	if out.ClockIn.IsActive || out.ClockIn.ClockOutTime == nil {
		t.Errorf("签退后应为离岗: %+v", out.ClockIn)
	}
	if !sameOrder(env.queueOrder(t), []string{bob.ID}) {
		t.Errorf("签退后不应出现在排队中，实际 %v", env.queueOrder(t))
	}
	if _, err := env.svc.ClockIn.ClockOut(ctx, env.session.ID, alice.ID); !errors.Is(err, ErrNotClockedIn) {
		t.Errorf("重复签退应返回 ErrNotClockedIn，实际 %v", err)
	}

	again := env.clockIn(t, alice.ID)
	if !again.WasReactivation {
		t.Error("当日签退后再打卡应为重新上岗")
	}
	if again.ClockIn.ID != first.ClockIn.ID {
		t.Error("重新上岗应沿用原打卡记录")
	}
	if again.ClockIn.Position != 3 {
		t.Errorf("重新上岗应分配新序号 3，实际 %d", again.ClockIn.Position)
	}
	if !sameOrder(env.queueOrder(t), []string{bob.ID, alice.ID}) {
		t.Errorf("重新上岗后应排在末位，实际 %v", env.queueOrder(t))
	}
	if len(env.db.clockIns) != 2 {
		t.Errorf("每位技师只应有一条打卡记录，实际 %d", len(env.db.clockIns))
	}
}

func TestClockInService_StorageFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	alice := env.db.addEmployee("alice")
	env.queueOrder(t) // 先加载快照，乐观更新才会生效

	env.db.failNext("ClockIn.Create", errors.New("disk full"))
	if _, err := env.svc.ClockIn.ClockIn(context.Background(), env.session.ID, alice.ID); !errors.Is(err, ErrStorage) {
		t.Fatalf("存储失败应返回 ErrStorage，实际 %v", err)
	}
	if order := env.queueOrder(t); len(order) != 0 {
		t.Errorf("失败后快照应回滚，实际 %v", order)
	}
	if env.metrics.rollbacks[string(engine.AggregateClockIns)] != 1 {
		t.Errorf("应记录一次打卡回滚，实际 %v", env.metrics.rollbacks)
	}
}
