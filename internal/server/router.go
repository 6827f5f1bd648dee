package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/authapi/internal/server/handlers"
	"github.com/iudanet/authapi/internal/server/jwt"
	"github.com/iudanet/authapi/internal/server/limiter"
	"github.com/iudanet/authapi/internal/server/middleware"
	"github.com/iudanet/authapi/internal/server/storage"
)

// Пути API
const (
	PathHello   = "/user"
	PathSignUp  = "/api/sign-up"
	PathSignIn  = "/api/sign-in"
	PathProfile = "/api/profile"
	PathHealth  = "/api/health"
)

// RouterDeps зависимости HTTP роутера
type RouterDeps struct {
	Logger  *slog.Logger
	Store   storage.Store
	Tokens  *jwt.Service
	Limiter limiter.Limiter // nil отключает rate limiting
	Version string
}

// NewRouter собирает маршруты и цепочку middleware:
// recovery -> logging -> rate limit -> mux
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Logger, deps.Store, deps.Tokens)
	healthHandler := handlers.NewHealthHandler(deps.Logger, deps.Store, deps.Version)
	requireAuth := middleware.AuthMiddleware(deps.Logger, deps.Tokens)

	mux := http.NewServeMux()
	handle(mux, http.MethodGet, PathHello, http.HandlerFunc(handlers.Hello))
	handle(mux, http.MethodGet, PathHealth, http.HandlerFunc(healthHandler.Health))
	handle(mux, http.MethodPost, PathSignUp, http.HandlerFunc(authHandler.SignUp))
	handle(mux, http.MethodPost, PathSignIn, http.HandlerFunc(authHandler.SignIn))
	handle(mux, http.MethodGet, PathProfile, requireAuth(http.HandlerFunc(authHandler.Profile)))

	var handler http.Handler = mux
	if deps.Limiter != nil {
		var limits []middleware.PathRateLimit
		for _, path := range withTrailingSlash(PathSignIn, PathSignUp) {
			limits = append(limits, middleware.PathRateLimit{Path: path, Limiter: deps.Limiter})
		}
		handler = middleware.RateLimitByPathMiddleware(limits, deps.Logger)(handler)
	}
	handler = middleware.LoggingWithSkip(deps.Logger, withTrailingSlash(PathHealth))(handler)
	handler = middleware.RecoveryMiddleware(deps.Logger)(handler)

	return handler
}

// handle регистрирует маршрут вместе с вариантом со слэшем на конце:
// /user и /user/ обслуживает один и тот же обработчик, без редиректа
func handle(mux *http.ServeMux, method, path string, h http.Handler) {
	mux.Handle(method+" "+path, h)
	mux.Handle(method+" "+path+"/{$}", h)
}

func withTrailingSlash(paths ...string) []string {
	out := make([]string, 0, len(paths)*2)
	for _, p := range paths {
		out = append(out, p, p+"/")
	}
	return out
}
