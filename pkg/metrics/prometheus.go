package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus 基于 Prometheus 的 Collector 实现
type Prometheus struct {
	turnsAssigned       *prometheus.CounterVec
	turnsCompleted      prometheus.Counter
	clockEvents         *prometheus.CounterVec
	undo                *prometheus.CounterVec
	optimisticRollbacks *prometheus.CounterVec
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus 创建并注册指标；reg 为空时使用 prometheus.DefaultRegisterer，namespace 默认 salon
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "salon"
	}

	p := &Prometheus{
		turnsAssigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_assigned_total",
			Help:      "Turns assigned, by assignment mode.",
		}, []string{"mode"}),
		turnsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_completed_total",
			Help:      "Turns marked completed.",
		}),
		clockEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_events_total",
			Help:      "Clock-in, re-activation and clock-out events.",
		}, []string{"kind"}),
		undo: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undo_total",
			Help:      "Undo attempts by action type and outcome.",
		}, []string{"type", "outcome"}),
		optimisticRollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimistic_rollbacks_total",
			Help:      "Optimistic board updates rolled back after a storage failure.",
		}, []string{"aggregate"}),
	}

	reg.MustRegister(
		p.turnsAssigned,
		p.turnsCompleted,
		p.clockEvents,
		p.undo,
		p.optimisticRollbacks,
	)
	return p
}

func (p *Prometheus) TurnAssigned(mode string) {
	p.turnsAssigned.WithLabelValues(mode).Inc()
}

func (p *Prometheus) TurnCompleted() {
	p.turnsCompleted.Inc()
}

func (p *Prometheus) ClockEvent(kind string) {
	p.clockEvents.WithLabelValues(kind).Inc()
}

func (p *Prometheus) Undo(actionType, outcome string) {
	p.undo.WithLabelValues(actionType, outcome).Inc()
}

func (p *Prometheus) OptimisticRollback(aggregate string) {
	p.optimisticRollbacks.WithLabelValues(aggregate).Inc()
}
