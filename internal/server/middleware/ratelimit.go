package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/iudanet/authapi/internal/server/limiter"
)

const rateLimitMessage = "rate limit exceeded, please try again later"

// PathRateLimit задает limiter для конкретного пути
type PathRateLimit struct {
	Limiter limiter.Limiter
	Path    string
}

// RateLimitByPathMiddleware создает middleware с отдельными лимитами для путей.
// Пути без лимита пропускаются без ограничений.
func RateLimitByPathMiddleware(limits []PathRateLimit, logger *slog.Logger) func(http.Handler) http.Handler {
	limiters := make(map[string]limiter.Limiter, len(limits))
	for _, limit := range limits {
		limiters[limit.Path] = limit.Limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l, exists := limiters[r.URL.Path]
			if exists && !allowRequest(l, r, logger) {
				writeJSONError(w, rateLimitMessage, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowRequest спрашивает limiter. Ошибка backend'а пропускает запрос:
// недоступный Redis не должен блокировать вход.
func allowRequest(l limiter.Limiter, r *http.Request, logger *slog.Logger) bool {
	key := getClientIP(r)

	allowed, err := l.Allow(r.Context(), key)
	if err != nil {
		logger.ErrorContext(r.Context(), "Rate limiter unavailable, request allowed",
			slog.String("ip", key),
			slog.Any("error", err))
		return true
	}

	if !allowed {
		logger.WarnContext(r.Context(), "Rate limit exceeded",
			slog.String("ip", key),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	return allowed
}

// getClientIP извлекает IP адрес клиента из запроса
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси
func getClientIP(r *http.Request) string {
	// Проверяем X-Forwarded-For (для прокси/load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Берем первый IP из списка (реальный клиент)
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	// Проверяем X-Real-IP
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr без порта: у каждого соединения свой порт
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
