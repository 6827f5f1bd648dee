package models

import (
	"time"

	"github.com/iudanet/authapi/pkg/api"
)

// User представляет учетную запись в системе
type User struct {
	CreatedAt    time.Time `json:"created_at"` // время создания
	ID           string    `json:"id"`         // UUID пользователя
	Email        string    `json:"email"`      // уникальный email (в нижнем регистре)
	PasswordHash string    `json:"-"`          // argon2id хеш пароля в формате PHC
	IsActive     bool      `json:"is_active"`  // только активные пользователи могут войти
}

// Public возвращает представление пользователя для клиента, без хеша пароля
func (u *User) Public() api.UserResponse {
	return api.UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}
