package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
	"github.com/NotKhoa03/salon-turn-system/internal/repository"
	pkgerrors "github.com/NotKhoa03/salon-turn-system/pkg/errors"
)

// memDB 各 mock Repository 共享的内存数据，行为与数据库一致：返回副本、关联技师与服务
type memDB struct {
	mu        sync.Mutex
	employees map[string]model.Employee
	services  map[string]model.Service
	sessions  map[string]model.DailySession
	clockIns  map[string]model.ClockIn
	turns     map[string]model.Turn
	seq       int

	// failures 按方法名注入错误，命中一次后移除
	failures map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		employees: make(map[string]model.Employee),
		services:  make(map[string]model.Service),
		sessions:  make(map[string]model.DailySession),
		clockIns:  make(map[string]model.ClockIn),
		turns:     make(map[string]model.Turn),
		failures:  make(map[string]error),
	}
}

func (m *memDB) repository() *repository.Repository {
	return &repository.Repository{
		Employee: &mockEmployeeRepo{m},
		Service:  &mockServiceRepo{m},
		Session:  &mockSessionRepo{m},
		ClockIn:  &mockClockInRepo{m},
		Turn:     &mockTurnRepo{m},
	}
}

func (m *memDB) failNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

// fail 调用方需持有锁
func (m *memDB) fail(method string) error {
	if err, ok := m.failures[method]; ok {
		delete(m.failures, method)
		return err
	}
	return nil
}

func (m *memDB) addEmployee(name string) model.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := model.Employee{BaseModel: model.BaseModel{ID: "emp-" + name}, FullName: name, IsActive: true}
	m.employees[e.ID] = e
	return e
}

func (m *memDB) addService(name string, price float64, half bool) model.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Service{BaseModel: model.BaseModel{ID: "svc-" + name}, Name: name, Price: price, IsHalfTurn: half, IsActive: true}
	m.services[s.ID] = s
	return s
}

func (m *memDB) withEmployee(c model.ClockIn) model.ClockIn {
	if e, ok := m.employees[c.EmployeeID]; ok {
		c.Employee = &e
	}
	return c
}

func (m *memDB) withRefs(t model.Turn) model.Turn {
	if e, ok := m.employees[t.EmployeeID]; ok {
		t.Employee = &e
	}
	if s, ok := m.services[t.ServiceID]; ok {
		t.Service = &s
	}
	return t
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ m *memDB }

func (r *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if e, ok := r.m.employees[id]; ok {
		return &e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockEmployeeRepo) ListActive(_ context.Context) ([]model.Employee, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var result []model.Employee
	for _, e := range r.m.employees {
		if e.IsActive {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

// ── Mock ServiceRepository ──

type mockServiceRepo struct{ m *memDB }

func (r *mockServiceRepo) GetByID(_ context.Context, id string) (*model.Service, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.services[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockServiceRepo) ListActive(_ context.Context) ([]model.Service, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var result []model.Service
	for _, s := range r.m.services {
		if s.IsActive {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct{ m *memDB }

func (r *mockSessionRepo) GetByID(_ context.Context, id string) (*model.DailySession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.sessions[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockSessionRepo) GetByDate(_ context.Context, date string) (*model.DailySession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sessions {
		if s.Date == date {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockSessionRepo) Create(_ context.Context, session *model.DailySession) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sessions {
		if s.Date == session.Date {
			return pkgerrors.ErrConflict
		}
	}
	if session.ID == "" {
		session.ID = "sess-" + session.Date
	}
	session.CreatedAt = time.Now()
	r.m.sessions[session.ID] = *session
	return nil
}

func (r *mockSessionRepo) ClearDay(_ context.Context, sessionID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("ClearDay"); err != nil {
		return err
	}
	for id, t := range r.m.turns {
		if t.SessionID == sessionID {
			delete(r.m.turns, id)
		}
	}
	for id, c := range r.m.clockIns {
		if c.SessionID == sessionID {
			delete(r.m.clockIns, id)
		}
	}
	return nil
}

// ── Mock ClockInRepository ──

type mockClockInRepo struct{ m *memDB }

func (r *mockClockInRepo) ListBySession(_ context.Context, sessionID string) ([]model.ClockIn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("ClockIn.ListBySession"); err != nil {
		return nil, err
	}
	var result []model.ClockIn
	for _, c := range r.m.clockIns {
		if c.SessionID == sessionID {
			result = append(result, r.m.withEmployee(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (r *mockClockInRepo) GetByID(_ context.Context, id string) (*model.ClockIn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if c, ok := r.m.clockIns[id]; ok {
		c = r.m.withEmployee(c)
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockClockInRepo) GetActive(_ context.Context, sessionID, employeeID string) (*model.ClockIn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.clockIns {
		if c.SessionID == sessionID && c.EmployeeID == employeeID && c.IsActive() {
			c = r.m.withEmployee(c)
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockClockInRepo) GetLatest(_ context.Context, sessionID, employeeID string) (*model.ClockIn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *model.ClockIn
	for _, c := range r.m.clockIns {
		if c.SessionID != sessionID || c.EmployeeID != employeeID {
			continue
		}
		if latest == nil || c.ClockInTime.After(latest.ClockInTime) {
			cp := r.m.withEmployee(c)
			latest = &cp
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *mockClockInRepo) MaxPosition(_ context.Context, sessionID string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	maxPosition := 0
	for _, c := range r.m.clockIns {
		if c.SessionID == sessionID && c.Position > maxPosition {
			maxPosition = c.Position
		}
	}
	return maxPosition, nil
}

func (r *mockClockInRepo) Create(_ context.Context, clockIn *model.ClockIn) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("ClockIn.Create"); err != nil {
		return err
	}
	for _, c := range r.m.clockIns {
		if c.SessionID == clockIn.SessionID && c.EmployeeID == clockIn.EmployeeID && c.IsActive() {
			return pkgerrors.ErrConflict
		}
	}
	if clockIn.ID == "" {
		r.m.seq++
		clockIn.ID = fmt.Sprintf("ci-%d", r.m.seq)
	}
	stored := *clockIn
	stored.Employee = nil
	r.m.clockIns[stored.ID] = stored
	return nil
}

func (r *mockClockInRepo) SetClockOut(_ context.Context, id string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.clockIns[id]
	if !ok || !c.IsActive() {
		return gorm.ErrRecordNotFound
	}
	c.ClockOutTime = &at
	r.m.clockIns[id] = c
	return nil
}

func (r *mockClockInRepo) SetState(_ context.Context, id string, clockOut *time.Time, position int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("ClockIn.SetState"); err != nil {
		return err
	}
	c, ok := r.m.clockIns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.ClockOutTime = clockOut
	c.Position = position
	r.m.clockIns[id] = c
	return nil
}

func (r *mockClockInRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.clockIns[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.clockIns, id)
	return nil
}

// ── Mock TurnRepository ──

type mockTurnRepo struct{ m *memDB }

func (r *mockTurnRepo) ListBySession(_ context.Context, sessionID string) ([]model.Turn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var result []model.Turn
	for _, t := range r.m.turns {
		if t.SessionID == sessionID {
			result = append(result, r.m.withRefs(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TurnNumber != result[j].TurnNumber {
			return result[i].TurnNumber < result[j].TurnNumber
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *mockTurnRepo) GetByID(_ context.Context, id string) (*model.Turn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if t, ok := r.m.turns[id]; ok {
		t = r.m.withRefs(t)
		return &t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockTurnRepo) GetInProgressByEmployee(_ context.Context, sessionID, employeeID string) (*model.Turn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.turns {
		if t.SessionID == sessionID && t.EmployeeID == employeeID && t.Status == model.TurnInProgress {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockTurnRepo) LatestCompletedHalf(_ context.Context, sessionID, employeeID string) (*model.Turn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *model.Turn
	for _, t := range r.m.turns {
		if t.SessionID != sessionID || t.EmployeeID != employeeID {
			continue
		}
		if !t.IsHalfTurn || t.Status != model.TurnCompleted || t.PairedWithTurnID != nil {
			continue
		}
		if latest == nil || t.TurnNumber > latest.TurnNumber {
			cp := t
			latest = &cp
		}
	}
	return latest, nil
}

func (r *mockTurnRepo) IsPaired(_ context.Context, turnID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.turns {
		if t.PairedWithTurnID != nil && *t.PairedWithTurnID == turnID {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockTurnRepo) MaxTurnNumber(_ context.Context, sessionID, employeeID string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	maxNumber := 0
	for _, t := range r.m.turns {
		if t.SessionID == sessionID && t.EmployeeID == employeeID && t.TurnNumber > maxNumber {
			maxNumber = t.TurnNumber
		}
	}
	return maxNumber, nil
}

func (r *mockTurnRepo) Create(_ context.Context, turn *model.Turn) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Turn.Create"); err != nil {
		return err
	}
	for _, t := range r.m.turns {
		if turn.PairedWithTurnID != nil && t.PairedWithTurnID != nil && *t.PairedWithTurnID == *turn.PairedWithTurnID {
			return pkgerrors.ErrConflict
		}
		if t.SessionID == turn.SessionID && t.EmployeeID == turn.EmployeeID && t.Status == model.TurnInProgress {
			return pkgerrors.ErrConflict
		}
	}
	stored := *turn
	stored.Employee = nil
	stored.Service = nil
	r.m.turns[stored.ID] = stored
	return nil
}

func (r *mockTurnRepo) Complete(_ context.Context, id string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("Turn.Complete"); err != nil {
		return err
	}
	t, ok := r.m.turns[id]
	if !ok || t.Status != model.TurnInProgress {
		return gorm.ErrRecordNotFound
	}
	t.Status = model.TurnCompleted
	t.CompletedAt = &at
	r.m.turns[id] = t
	return nil
}

func (r *mockTurnRepo) Revert(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.turns[id]
	if !ok || t.Status != model.TurnCompleted {
		return gorm.ErrRecordNotFound
	}
	t.Status = model.TurnInProgress
	t.CompletedAt = nil
	r.m.turns[id] = t
	return nil
}

func (r *mockTurnRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.turns[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.turns, id)
	return nil
}
