package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/model"
	"github.com/NotKhoa03/salon-turn-system/internal/realtime"
	pkgerrors "github.com/NotKhoa03/salon-turn-system/pkg/errors"
)

// ── 营业日模块业务错误 ──

var (
	ErrInvalidDate = errors.New("日期格式应为 YYYY-MM-DD")
)

// SessionService 营业日业务接口
type SessionService interface {
	// Resolve 获取指定日期的营业日，不存在时创建；date 为空时取当天
	Resolve(ctx context.Context, date string) (*dto.SessionResponse, error)
	// ClearDay 清空营业日全部轮次与打卡记录，并清除跳过状态与撤销历史
	ClearDay(ctx context.Context, sessionID string) error
}

type sessionService struct {
	base
	loc *time.Location

	mu      sync.Mutex
	current string // 当天营业日 ID
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(b base, loc *time.Location) SessionService {
	return &sessionService{base: b, loc: loc}
}

// ────────────────────── Resolve ──────────────────────

func (s *sessionService) Resolve(ctx context.Context, date string) (*dto.SessionResponse, error) {
	today := s.now().In(s.loc).Format(model.DateLayout)
	if date == "" {
		date = today
	}
	if _, err := time.ParseInLocation(model.DateLayout, date, s.loc); err != nil {
		return nil, ErrInvalidDate
	}

	session, err := s.fetchOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}

	if date == today {
		s.rollover(session.ID)
	}

	return &dto.SessionResponse{
		ID:        session.ID,
		Date:      session.Date,
		CreatedAt: formatTime(session.CreatedAt),
	}, nil
}

func (s *sessionService) fetchOrCreate(ctx context.Context, date string) (*model.DailySession, error) {
	session, err := s.repo.Session.GetByDate(ctx, date)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询营业日失败", zap.String("date", date), zap.Error(err))
		return nil, storageErr(err)
	}

	session = &model.DailySession{Date: date}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		if !errors.Is(err, pkgerrors.ErrConflict) {
			s.logger.Error("创建营业日失败", zap.String("date", date), zap.Error(err))
			return nil, storageErr(err)
		}
		// 并发创建，读取对方写入的记录
		session, err = s.repo.Session.GetByDate(ctx, date)
		if err != nil {
			s.logger.Error("查询营业日失败", zap.String("date", date), zap.Error(err))
			return nil, storageErr(err)
		}
		return session, nil
	}

	s.logger.Info("创建营业日", zap.String("session_id", session.ID), zap.String("date", date))
	return session, nil
}

// rollover 当天营业日变化时释放前一天的会话状态
func (s *sessionService) rollover(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == sessionID {
		return
	}
	if s.current != "" {
		released := s.states.ReleaseExcept(sessionID)
		s.logger.Info("营业日切换，释放前一日状态",
			zap.String("session_id", sessionID),
			zap.Strings("released", released),
		)
	}
	s.current = sessionID
}

// ────────────────────── ClearDay ──────────────────────

func (s *sessionService) ClearDay(ctx context.Context, sessionID string) error {
	state, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.repo.Session.ClearDay(ctx, sessionID); err != nil {
		s.logger.Error("清空营业日失败", zap.String("session_id", sessionID), zap.Error(err))
		return storageErr(err)
	}

	if err := state.Undo.Clear(ctx); err != nil {
		s.logger.Warn("清除撤销历史失败", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.states.Release(sessionID)

	s.logger.Info("营业日已清空", zap.String("session_id", sessionID))
	s.notifier.Notify(ctx, sessionID, realtime.TableSession, "clear")
	return nil
}
