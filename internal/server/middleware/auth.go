package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/authapi/internal/server/handlers"
	"github.com/iudanet/authapi/internal/server/jwt"
)

// TokenValidator проверяет access token и возвращает id пользователя
type TokenValidator interface {
	Validate(token string) (string, error)
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Любая ошибка (нет заголовка, не Bearer, битый или просроченный токен)
// дает один и тот же ответ 401, обработчик не вызывается.
func AuthMiddleware(logger *slog.Logger, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "Missing Authorization header")
				writeUnauthorized(w)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				// сам заголовок не логируем, в нем может быть токен
				logger.WarnContext(ctx, "Invalid Authorization header format")
				writeUnauthorized(w)
				return
			}

			userID, err := validator.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				reason := "invalid"
				if errors.Is(err, jwt.ErrTokenExpired) {
					reason = "expired"
				}
				logger.WarnContext(ctx, "Access token rejected",
					slog.String("reason", reason),
					slog.Any("error", err))
				writeUnauthorized(w)
				return
			}

			logger.DebugContext(ctx, "User authenticated", slog.String("user_id", userID))

			// Передаем запрос дальше с обновленным контекстом
			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(ctx, userID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
}
