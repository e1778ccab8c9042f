package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/NotKhoa03/salon-turn-system/internal/engine"
	"github.com/NotKhoa03/salon-turn-system/internal/model"
	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
	"github.com/NotKhoa03/salon-turn-system/internal/repository"
)

// SessionState 单个营业日的进程内状态
type SessionState struct {
	SessionID string
	Skips     *engine.SkipOverlay
	Undo      *engine.UndoLog
	Board     *engine.Board
}

// SessionStates 按营业日持有 SessionState：首次访问时创建，清空营业日或跨日时释放
type SessionStates struct {
	mu        sync.Mutex
	states    map[string]*SessionState
	loader    engine.Loader
	undoStore engine.UndoStore
	undoLimit int
}

// NewSessionStates 创建会话状态表；undoStore 为 nil 时使用内存存储
func NewSessionStates(loader engine.Loader, undoStore engine.UndoStore, undoLimit int) *SessionStates {
	if undoStore == nil {
		undoStore = engine.NewMemoryUndoStore()
	}
	return &SessionStates{
		states:    make(map[string]*SessionState),
		loader:    loader,
		undoStore: undoStore,
		undoLimit: undoLimit,
	}
}

// Get 获取营业日状态，不存在时创建
func (s *SessionStates) Get(sessionID string) *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[sessionID]; ok {
		return st
	}
	st := &SessionState{
		SessionID: sessionID,
		Skips:     engine.NewSkipOverlay(),
		Undo:      engine.NewUndoLog(sessionID, s.undoStore, s.undoLimit),
		Board:     engine.NewBoard(sessionID, s.loader),
	}
	s.states[sessionID] = st
	return st
}

// Lookup 获取已存在的营业日状态
func (s *SessionStates) Lookup(sessionID string) (*SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[sessionID]
	return st, ok
}

// Release 释放营业日状态（跳过列表随之清空，撤销历史保留在 store 中）
func (s *SessionStates) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, sessionID)
}

// ReleaseExcept 释放除指定营业日外的全部状态，用于跨日
func (s *SessionStates) ReleaseExcept(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var released []string
	for id := range s.states {
		if id != sessionID {
			delete(s.states, id)
			released = append(released, id)
		}
	}
	return released
}

// ApplyRemoteChange 其他实例产生变更后使本地快照失效
func (s *SessionStates) ApplyRemoteChange(ev realtime.Event) {
	if ev.Table == realtime.TableSession {
		s.Release(ev.SessionID)
		return
	}

	st, ok := s.Lookup(ev.SessionID)
	if !ok {
		return
	}
	switch ev.Table {
	case realtime.TableTurns:
		st.Board.Invalidate(engine.AggregateTurns)
	case realtime.TableClockIns:
		st.Board.Invalidate(engine.AggregateClockIns)
	case realtime.TableUndo:
		st.Undo.Invalidate()
	}
}

// ── 存储适配 ──

// repoLoader 以 Repository 实现 engine.Loader
type repoLoader struct {
	repo *repository.Repository
}

// NewLoader 基于 Repository 的快照加载器
func NewLoader(repo *repository.Repository) engine.Loader {
	return &repoLoader{repo: repo}
}

func (l *repoLoader) LoadClockIns(ctx context.Context, sessionID string) ([]model.ClockIn, error) {
	return l.repo.ClockIn.ListBySession(ctx, sessionID)
}

func (l *repoLoader) LoadTurns(ctx context.Context, sessionID string) ([]model.Turn, error) {
	return l.repo.Turn.ListBySession(ctx, sessionID)
}

// UndoHistoryClient Redis 中撤销历史的读写，*redis.Client 实现该接口
type UndoHistoryClient interface {
	SaveUndoHistory(ctx context.Context, sessionID string, payload []byte, ttl time.Duration) error
	LoadUndoHistory(ctx context.Context, sessionID string) ([]byte, error)
	DeleteUndoHistory(ctx context.Context, sessionID string) error
}

// redisUndoStore 以 JSON 形式将撤销历史保存在 Redis
type redisUndoStore struct {
	client UndoHistoryClient
	ttl    time.Duration
}

// NewRedisUndoStore 创建 Redis 撤销历史存储
func NewRedisUndoStore(client UndoHistoryClient, ttl time.Duration) engine.UndoStore {
	return &redisUndoStore{client: client, ttl: ttl}
}

func (s *redisUndoStore) Load(ctx context.Context, sessionID string) ([]engine.Action, error) {
	payload, err := s.client.LoadUndoHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, nil
	}
	var actions []engine.Action
	if err := json.Unmarshal(payload, &actions); err != nil {
		return nil, fmt.Errorf("解析撤销历史失败: %w", err)
	}
	return actions, nil
}

func (s *redisUndoStore) Save(ctx context.Context, sessionID string, actions []engine.Action) error {
	payload, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	return s.client.SaveUndoHistory(ctx, sessionID, payload, s.ttl)
}

func (s *redisUndoStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.DeleteUndoHistory(ctx, sessionID)
}
