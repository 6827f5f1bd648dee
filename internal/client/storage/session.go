package storage

import (
	"context"
	"time"
)

// SessionStorage хранит сессию текущего пользователя на клиенте
type SessionStorage interface {
	// SaveSession сохраняет сессию, заменяя предыдущую
	SaveSession(ctx context.Context, session *Session) error

	// GetSession возвращает сохраненную сессию
	// Returns ErrSessionNotFound if nobody is signed in
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession удаляет сессию (logout)
	DeleteSession(ctx context.Context) error
}

// Session данные входа, полученные от сервера после sign-up или sign-in
type Session struct {
	Email       string `json:"email"`
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Expired сообщает, истек ли токен сессии к моменту now.
// Нулевой ExpiresAt означает, что срок неизвестен, и решает сервер.
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return !now.Before(time.Unix(s.ExpiresAt, 0))
}
