package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authapi/internal/config"
	"github.com/iudanet/authapi/internal/server/jwt"
	"github.com/iudanet/authapi/internal/server/limiter"
	"github.com/iudanet/authapi/internal/server/storage/sqlite"
	"github.com/iudanet/authapi/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, lim limiter.Limiter) *httptest.Server {
	t.Helper()
	return newLoggedTestServer(t, lim, testLogger())
}

func newLoggedTestServer(t *testing.T, lim limiter.Limiter, logger *slog.Logger) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := jwt.NewService("e2e-secret", time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(RouterDeps{
		Logger:  logger,
		Store:   store,
		Tokens:  tokens,
		Limiter: lim,
		Version: "test",
	}))
	t.Cleanup(srv.Close)

	return srv
}

func doRequest(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func TestRouter_SignUpSignInProfile(t *testing.T) {
	srv := newTestServer(t, nil)

	// Регистрация
	resp, body := doRequest(t, http.MethodPost, srv.URL+PathSignUp, "",
		map[string]any{"email": "a@x.com", "password": "pw123", "is_active": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var signUp api.AuthResponse
	require.NoError(t, json.Unmarshal(body, &signUp))
	assert.Equal(t, api.MessageRegistered, signUp.Message)
	require.NotEmpty(t, signUp.AccessToken)
	userID := signUp.CurrentUser.ID

	// Вход возвращает того же пользователя
	resp, body = doRequest(t, http.MethodPost, srv.URL+PathSignIn, "",
		map[string]any{"email": "A@X.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var signIn api.AuthResponse
	require.NoError(t, json.Unmarshal(body, &signIn))
	assert.Equal(t, api.MessageLoggedIn, signIn.Message)
	assert.Equal(t, userID, signIn.CurrentUser.ID)

	// Профиль по токену из sign-up и из sign-in
	for _, token := range []string{signUp.AccessToken, signIn.AccessToken} {
		resp, body = doRequest(t, http.MethodGet, srv.URL+PathProfile, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.JSONEq(t, `{"id":"`+userID+`","email":"a@x.com","is_active":true}`, string(body))
	}
}

func TestRouter_DuplicateSignUp(t *testing.T) {
	srv := newTestServer(t, nil)

	req := map[string]any{"email": "a@x.com", "password": "pw123", "is_active": true}
	resp, _ := doRequest(t, http.MethodPost, srv.URL+PathSignUp, "", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, http.MethodPost, srv.URL+PathSignUp, "", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Email es already in use!"}`, string(body))
}

func TestRouter_SignInFailuresAreIndistinguishable(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := doRequest(t, http.MethodPost, srv.URL+PathSignUp, "",
		map[string]any{"email": "a@x.com", "password": "pw123", "is_active": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doRequest(t, http.MethodPost, srv.URL+PathSignUp, "",
		map[string]any{"email": "off@x.com", "password": "pw123", "is_active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	wrongPassword, wrongBody := doRequest(t, http.MethodPost, srv.URL+PathSignIn, "",
		map[string]any{"email": "a@x.com", "password": "nope"})
	unknownEmail, unknownBody := doRequest(t, http.MethodPost, srv.URL+PathSignIn, "",
		map[string]any{"email": "nobody@x.com", "password": "pw123"})
	inactive, inactiveBody := doRequest(t, http.MethodPost, srv.URL+PathSignIn, "",
		map[string]any{"email": "off@x.com", "password": "pw123"})

	for _, resp := range []*http.Response{wrongPassword, unknownEmail, inactive} {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	assert.Equal(t, wrongBody, unknownBody)
	assert.Equal(t, wrongBody, inactiveBody)
	assert.JSONEq(t, `{"error":"Incorrect Credentials!"}`, string(wrongBody))
}

func TestRouter_ProfileRequiresToken(t *testing.T) {
	srv := newTestServer(t, nil)

	other, err := jwt.NewService("another-secret", time.Hour)
	require.NoError(t, err)
	foreign, _, err := other.Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "garbled token", header: "Bearer abc.def.ghi"},
		{name: "wrong scheme", header: "Token abc"},
		{name: "foreign secret", header: "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+PathProfile, nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, string(body))
		})
	}
}

// Валидный токен пользователя, которого нет в базе
func TestRouter_ProfileUnknownUser(t *testing.T) {
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	tokens, err := jwt.NewService("e2e-secret", time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(RouterDeps{Logger: testLogger(), Store: store, Tokens: tokens}))
	defer srv.Close()

	token, _, err := tokens.Issue("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)

	resp, body := doRequest(t, http.MethodGet, srv.URL+PathProfile, token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"user":"User is invalid!"}`, string(body))
}

func TestRouter_HelloAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doRequest(t, http.MethodGet, srv.URL+PathHello, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Hello, this is your GET /user response"}`, string(body))

	resp, body = doRequest(t, http.MethodGet, srv.URL+PathHealth, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, string(body))
}

func TestRouter_HealthIsNotLogged(t *testing.T) {
	var logBuf bytes.Buffer
	srv := newLoggedTestServer(t, nil, slog.New(slog.NewTextHandler(&logBuf, nil)))

	for _, path := range []string{PathHealth, PathHealth + "/"} {
		resp, _ := doRequest(t, http.MethodGet, srv.URL+path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.NotContains(t, logBuf.String(), "HTTP request")

	resp, _ := doRequest(t, http.MethodGet, srv.URL+PathHello, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, logBuf.String(), "HTTP request")
	assert.Contains(t, logBuf.String(), "path="+PathHello)
}

// Маршруты отвечают и без слэша на конце, и со слэшем
func TestRouter_TrailingSlash(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doRequest(t, http.MethodGet, srv.URL+PathHello+"/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Hello, this is your GET /user response"}`, string(body))

	resp, body = doRequest(t, http.MethodPost, srv.URL+PathSignUp+"/", "",
		map[string]any{"email": "slash@x.com", "password": "pw123", "is_active": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doRequest(t, http.MethodPost, srv.URL+PathSignIn+"/", "",
		map[string]any{"email": "slash@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var signIn api.AuthResponse
	require.NoError(t, json.Unmarshal(body, &signIn))

	resp, _ = doRequest(t, http.MethodGet, srv.URL+PathProfile+"/", signIn.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodGet, srv.URL+PathProfile+"/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/profile/extra", signIn.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := doRequest(t, http.MethodGet, srv.URL+PathSignUp, "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodPost, srv.URL+PathProfile, "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_RateLimitsCredentialEndpoints(t *testing.T) {
	lim := limiter.NewMemory(2, time.Minute)
	defer lim.Stop()
	srv := newTestServer(t, lim)

	for i := 0; i < 2; i++ {
		resp, _ := doRequest(t, http.MethodPost, srv.URL+PathSignIn, "", `{"email":"a@x.com"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, body := doRequest(t, http.MethodPost, srv.URL+PathSignIn, "", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"rate limit exceeded, please try again later"}`, string(body))

	// Слэш на конце не дает обойти лимит
	resp, _ = doRequest(t, http.MethodPost, srv.URL+PathSignIn+"/", "", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Остальные маршруты не ограничены
	for i := 0; i < 5; i++ {
		resp, _ := doRequest(t, http.MethodGet, srv.URL+PathHello, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestOpenStorage_SQLite(t *testing.T) {
	ctx := context.Background()

	for _, dsn := range []string{
		filepath.Join(t.TempDir(), "plain.db"),
		"sqlite://" + filepath.Join(t.TempDir(), "scheme.db"),
	} {
		t.Run(dsn, func(t *testing.T) {
			store, err := OpenStorage(ctx, dsn)
			require.NoError(t, err)
			defer store.Close()

			assert.IsType(t, &sqlite.Storage{}, store)
			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestIsPostgresDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want bool
	}{
		{dsn: "postgres://user:pw@localhost:5432/auth", want: true},
		{dsn: "postgresql://localhost/auth", want: true},
		{dsn: "POSTGRES://localhost/auth", want: true},
		{dsn: "", want: false},
		{dsn: "/tmp/authapi.db", want: false},
		{dsn: "sqlite:///tmp/authapi.db", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, isPostgresDSN(tt.dsn))
		})
	}
}

func TestNewLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("in-memory without redis", func(t *testing.T) {
		cfg := &config.Config{RateLimitRequests: 1, RateLimitWindow: time.Minute}

		lim, stop, err := NewLimiter(ctx, cfg, testLogger())
		require.NoError(t, err)
		defer stop()

		assert.IsType(t, &limiter.Memory{}, lim)
	})

	t.Run("redis when address is set", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{RedisAddr: mr.Addr(), RateLimitRequests: 1, RateLimitWindow: time.Minute}

		lim, stop, err := NewLimiter(ctx, cfg, testLogger())
		require.NoError(t, err)
		defer stop()

		assert.IsType(t, &limiter.Redis{}, lim)

		ok, err := lim.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = lim.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := &config.Config{RedisAddr: addr, RateLimitRequests: 1, RateLimitWindow: time.Minute}

		_, _, err := NewLimiter(ctx, cfg, testLogger())
		assert.Error(t, err)
	})
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := New(ln.Addr().String(), handler, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
