// Package limiter ограничивает частоту запросов по ключу (обычно IP клиента).
package limiter

import "context"

// Limiter решает, можно ли пропустить еще один запрос для key.
// Ошибка означает недоступность backend'а, а не превышение лимита.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
