// Package metrics 轮牌操作的业务指标
package metrics

// Collector 业务指标采集接口
type Collector interface {
	// TurnAssigned mode: manual | quick
	TurnAssigned(mode string)
	TurnCompleted()
	// ClockEvent kind: clock_in | reactivate | clock_out
	ClockEvent(kind string)
	// Undo outcome: undone | blocked | not_found | failed
	Undo(actionType, outcome string)
	OptimisticRollback(aggregate string)
}

// Nop 不采集任何指标
type Nop struct{}

var _ Collector = Nop{}

// NewNop 创建空实现
func NewNop() Nop { return Nop{} }

func (Nop) TurnAssigned(string)       {}
func (Nop) TurnCompleted()            {}
func (Nop) ClockEvent(string)         {}
func (Nop) Undo(string, string)       {}
func (Nop) OptimisticRollback(string) {}
