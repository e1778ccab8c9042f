package handler

import (
	"github.com/NotKhoa03/salon-turn-system/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Session *SessionHandler
	Board   *BoardHandler
	ClockIn *ClockInHandler
	Turn    *TurnHandler
	Undo    *UndoHandler
	Catalog *CatalogHandler
	Stream  *StreamHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, streamer Streamer) *Handler {
	return &Handler{
		Session: NewSessionHandler(svc.Session),
		Board:   NewBoardHandler(svc.Board),
		ClockIn: NewClockInHandler(svc.ClockIn),
		Turn:    NewTurnHandler(svc.Turn),
		Undo:    NewUndoHandler(svc.Undo),
		Catalog: NewCatalogHandler(svc.Catalog),
		Stream:  NewStreamHandler(streamer),
	}
}
