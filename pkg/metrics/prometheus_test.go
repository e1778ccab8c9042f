package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.TurnAssigned("manual")
	p.TurnAssigned("quick")
	p.TurnAssigned("quick")
	p.TurnCompleted()
	p.ClockEvent("clock_in")
	p.Undo("assign_turn", "undone")
	p.OptimisticRollback("turns")

	if got := testutil.ToFloat64(p.turnsAssigned.WithLabelValues("quick")); got != 2 {
		t.Errorf("quick 派单应为 2，实际 %v", got)
	}
	if got := testutil.ToFloat64(p.turnsCompleted); got != 1 {
		t.Errorf("完成数应为 1，实际 %v", got)
	}
	if got := testutil.ToFloat64(p.undo.WithLabelValues("assign_turn", "undone")); got != 1 {
		t.Errorf("撤销计数应为 1，实际 %v", got)
	}

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("采集失败: %v", err)
	}
	if n != 6 {
		t.Errorf("应有 6 条时间序列，实际 %d", n)
	}
}

func TestNop(t *testing.T) {
	var c Collector = NewNop()
	c.TurnAssigned("manual")
	c.Undo("clock_in", "blocked")
}
