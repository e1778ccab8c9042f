package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/NotKhoa03/salon-turn-system/config"
	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/model"
	"github.com/NotKhoa03/salon-turn-system/pkg/metrics"
)

// ── 测试辅助 ──

type notifyEvent struct {
	sessionID string
	table     string
	op        string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifyEvent
}

func (n *recordingNotifier) Notify(_ context.Context, sessionID, table, op string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifyEvent{sessionID, table, op})
}

func (n *recordingNotifier) has(table, op string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e.table == table && e.op == op {
			return true
		}
	}
	return false
}

type countingMetrics struct {
	metrics.Nop
	mu        sync.Mutex
	assigned  map[string]int
	undo      map[string]int
	rollbacks map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		assigned:  make(map[string]int),
		undo:      make(map[string]int),
		rollbacks: make(map[string]int),
	}
}

func (m *countingMetrics) TurnAssigned(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigned[mode]++
}

func (m *countingMetrics) Undo(actionType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo[actionType+"/"+outcome]++
}

func (m *countingMetrics) OptimisticRollback(aggregate string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbacks[aggregate]++
}

type testEnv struct {
	cfg      *config.Config
	svc      *Service
	db       *memDB
	states   *SessionStates
	notifier *recordingNotifier
	metrics  *countingMetrics
	session  *dto.SessionResponse
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newMemDB()
	repo := db.repository()
	cfg := &config.Config{Board: config.BoardConfig{Timezone: "UTC", GridRows: 10, UndoHistoryLimit: 50}}
	states := NewSessionStates(NewLoader(repo), nil, cfg.Board.UndoHistoryLimit)
	notifier := &recordingNotifier{}
	counter := newCountingMetrics()

	svc, err := NewService(Deps{
		Config:   cfg,
		Repo:     repo,
		States:   states,
		Notifier: notifier,
		Metrics:  counter,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("创建 Service 失败: %v", err)
	}

	session, err := svc.Session.Resolve(context.Background(), "2025-03-01")
	if err != nil {
		t.Fatalf("创建营业日失败: %v", err)
	}

	return &testEnv{cfg: cfg, svc: svc, db: db, states: states, notifier: notifier, metrics: counter, session: session}
}

func (e *testEnv) clockIn(t *testing.T, employeeID string) *dto.ClockInResult {
	t.Helper()
	res, err := e.svc.ClockIn.ClockIn(context.Background(), e.session.ID, employeeID)
	if err != nil {
		t.Fatalf("%s 打卡失败: %v", employeeID, err)
	}
	return res
}

func (e *testEnv) assign(t *testing.T, employeeID, serviceID string) *dto.TurnResult {
	t.Helper()
	res, err := e.svc.Turn.Assign(context.Background(), e.session.ID, employeeID, serviceID)
	if err != nil {
		t.Fatalf("派单给 %s 失败: %v", employeeID, err)
	}
	return res
}

func (e *testEnv) complete(t *testing.T, turnID string) *dto.TurnResult {
	t.Helper()
	res, err := e.svc.Turn.Complete(context.Background(), e.session.ID, turnID)
	if err != nil {
		t.Fatalf("完成轮次 %s 失败: %v", turnID, err)
	}
	return res
}

// queueOrder 排队顺序（技师 ID）
func (e *testEnv) queueOrder(t *testing.T) []string {
	t.Helper()
	q, err := e.svc.Board.Queue(context.Background(), e.session.ID)
	if err != nil {
		t.Fatalf("读取排队失败: %v", err)
	}
	ids := make([]string, len(q.Entries))
	for i, entry := range q.Entries {
		ids[i] = entry.EmployeeID
	}
	return ids
}

// storedTurns 存储中的轮次数量
func (e *testEnv) storedTurns() int {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	return len(e.db.turns)
}

// clockInRow 直接写入存储的在岗记录
func clockInRow(id, sessionID, employeeID string, position int) model.ClockIn {
	return model.ClockIn{ID: id, SessionID: sessionID, EmployeeID: employeeID, ClockInTime: time.Now(), Position: position}
}

func sameOrder(a, b []string) bool {
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
