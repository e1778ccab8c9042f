package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActionType 可撤销操作类型
type ActionType string

const (
	ActionAssignTurn   ActionType = "assign_turn"
	ActionCompleteTurn ActionType = "complete_turn"
	ActionClockIn      ActionType = "clock_in"
	ActionClockOut     ActionType = "clock_out"
)

var (
	// ErrUndoBlocked 撤销被依赖关系阻止（如技师仍有进行中的轮次）
	ErrUndoBlocked = errors.New("撤销被依赖关系阻止")
	// ErrActionNotFound 撤销记录已不存在
	ErrActionNotFound = errors.New("该操作已无法撤销")
	// ErrUnknownAction 未知的操作类型
	ErrUnknownAction = errors.New("未知的操作类型")
)

// ActionData 执行逆操作所需的数据
type ActionData struct {
	TurnID               string     `json:"turn_id,omitempty"`
	ClockInID            string     `json:"clock_in_id,omitempty"`
	EmployeeID           string     `json:"employee_id,omitempty"`
	EmployeeName         string     `json:"employee_name,omitempty"`
	ServiceName          string     `json:"service_name,omitempty"`
	WasReactivation      bool       `json:"was_reactivation,omitempty"`
	PreviousClockOutTime *time.Time `json:"previous_clock_out_time,omitempty"`
	PreviousPosition     int        `json:"previous_position,omitempty"`
}

// Action 一条可撤销操作
type Action struct {
	ID          string     `json:"id"`
	Type        ActionType `json:"type"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
	Data        ActionData `json:"data"`
}

// UndoStore 撤销历史的持久化，按营业日隔离
type UndoStore interface {
	Load(ctx context.Context, sessionID string) ([]Action, error)
	Save(ctx context.Context, sessionID string, actions []Action) error
	Delete(ctx context.Context, sessionID string) error
}

// Inverter 各类操作的逆操作
type Inverter interface {
	UndoAssign(ctx context.Context, turnID string) error
	UndoComplete(ctx context.Context, turnID string) error
	// UndoClockIn 技师仍有进行中轮次时必须返回包装了 ErrUndoBlocked 的错误且不做任何修改
	UndoClockIn(ctx context.Context, clockInID string, data ActionData) error
	UndoClockOut(ctx context.Context, clockInID string) error
}

// Outcome 撤销结果
type Outcome string

const (
	OutcomeUndone   Outcome = "undone"
	OutcomeBlocked  Outcome = "blocked"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// UndoResult 一次撤销的结构化结果
type UndoResult struct {
	Action  *Action
	Outcome Outcome
	// Err 失败原因；Outcome 为 undone 时若非空表示历史持久化失败
	Err error
}

// Success 逆操作是否已执行
func (r UndoResult) Success() bool { return r.Outcome == OutcomeUndone }

// UndoLog 营业日内的撤销历史。
//
// 采用持久化方案：操作不会超时过期，只在撤销成功、营业日清空或超出上限时移除。
// 历史最新在前，超过 limit 时丢弃最旧的记录。
type UndoLog struct {
	mu        sync.Mutex
	sessionID string
	store     UndoStore
	limit     int
	history   []Action
	loaded    bool
	now       func() time.Time
}

// NewUndoLog 创建撤销日志，历史在首次访问时从 store 加载
func NewUndoLog(sessionID string, store UndoStore, limit int) *UndoLog {
	if store == nil {
		store = NewMemoryUndoStore()
	}
	return &UndoLog{
		sessionID: sessionID,
		store:     store,
		limit:     limit,
		now:       time.Now,
	}
}

func (l *UndoLog) ensureLoaded(ctx context.Context) error {
	if l.loaded {
		return nil
	}
	actions, err := l.store.Load(ctx, l.sessionID)
	if err != nil {
		return fmt.Errorf("加载撤销历史失败: %w", err)
	}
	l.history = actions
	l.loaded = true
	return nil
}

// Record 记录一条可撤销操作并持久化
func (l *UndoLog) Record(ctx context.Context, typ ActionType, description string, data ActionData) (Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return Action{}, err
	}

	action := Action{
		ID:          uuid.NewString(),
		Type:        typ,
		Description: description,
		Timestamp:   l.now(),
		Data:        data,
	}

	next := make([]Action, 0, len(l.history)+1)
	next = append(next, action)
	next = append(next, l.history...)
	if l.limit > 0 && len(next) > l.limit {
		next = next[:l.limit]
	}

	if err := l.store.Save(ctx, l.sessionID, next); err != nil {
		return Action{}, fmt.Errorf("保存撤销历史失败: %w", err)
	}
	l.history = next
	return action, nil
}

// History 返回撤销历史副本，最新在前
func (l *UndoLog) History(ctx context.Context) ([]Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]Action, len(l.history))
	copy(out, l.history)
	return out, nil
}

// Perform 执行指定操作的逆操作。成功后从历史中移除该操作。
// 同一营业日的撤销串行执行，同一操作不会被撤销两次。
func (l *UndoLog) Perform(ctx context.Context, actionID string, inv Inverter) UndoResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return UndoResult{Outcome: OutcomeFailed, Err: err}
	}

	idx := -1
	for i := range l.history {
		if l.history[i].ID == actionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return UndoResult{Outcome: OutcomeNotFound, Err: ErrActionNotFound}
	}
	action := l.history[idx]

	var err error
	switch action.Type {
	case ActionAssignTurn:
		err = inv.UndoAssign(ctx, action.Data.TurnID)
	case ActionCompleteTurn:
		err = inv.UndoComplete(ctx, action.Data.TurnID)
	case ActionClockIn:
		err = inv.UndoClockIn(ctx, action.Data.ClockInID, action.Data)
	case ActionClockOut:
		err = inv.UndoClockOut(ctx, action.Data.ClockInID)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownAction, action.Type)
	}

	if err != nil {
		if errors.Is(err, ErrUndoBlocked) {
			return UndoResult{Action: &action, Outcome: OutcomeBlocked, Err: err}
		}
		return UndoResult{Action: &action, Outcome: OutcomeFailed, Err: err}
	}

	next := make([]Action, 0, len(l.history)-1)
	next = append(next, l.history[:idx]...)
	next = append(next, l.history[idx+1:]...)
	l.history = next

	result := UndoResult{Action: &action, Outcome: OutcomeUndone}
	if err := l.store.Save(ctx, l.sessionID, next); err != nil {
		result.Err = fmt.Errorf("保存撤销历史失败: %w", err)
	}
	return result
}

// Invalidate 丢弃内存中的历史，下次访问时重新从 store 加载（其他实例写入后调用）
func (l *UndoLog) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = nil
	l.loaded = false
}

// Clear 清空历史（营业日清空时调用）
func (l *UndoLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = nil
	l.loaded = true
	return l.store.Delete(ctx, l.sessionID)
}

// MemoryUndoStore 进程内的 UndoStore 实现，Redis 不可用时使用
type MemoryUndoStore struct {
	mu   sync.Mutex
	data map[string][]Action
}

// NewMemoryUndoStore 创建内存存储
func NewMemoryUndoStore() *MemoryUndoStore {
	return &MemoryUndoStore{data: make(map[string][]Action)}
}

// Load 实现 UndoStore
func (s *MemoryUndoStore) Load(_ context.Context, sessionID string) ([]Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.data[sessionID]
	out := make([]Action, len(src))
	copy(out, src)
	return out, nil
}

// Save 实现 UndoStore
func (s *MemoryUndoStore) Save(_ context.Context, sessionID string, actions []Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]Action, len(actions))
	copy(cp, actions)
	s.data[sessionID] = cp
	return nil
}

// Delete 实现 UndoStore
func (s *MemoryUndoStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, sessionID)
	return nil
}
