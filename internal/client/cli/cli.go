package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/authapi/internal/client/iocli"
	"github.com/iudanet/authapi/internal/client/storage"
	"github.com/iudanet/authapi/pkg/api"
)

// PasswordEnv переменная окружения с паролем для неинтерактивного запуска
const PasswordEnv = "AUTHAPI_PASSWORD"

// APIClient операции сервера, которые использует CLI
type APIClient interface {
	SignUp(ctx context.Context, req api.SignUpRequest) (*api.AuthResponse, error)
	SignIn(ctx context.Context, req api.SignInRequest) (*api.AuthResponse, error)
	Profile(ctx context.Context, accessToken string) (*api.UserResponse, error)
	Health(ctx context.Context) (*api.HealthResponse, error)
}

// Passwords источники пароля, переданные флагами
type Passwords struct {
	FromFile string
	FromArgs string
}

type Cli struct {
	io        iocli.IO
	apiClient APIClient
	sessions  storage.SessionStorage
	now       func() time.Time
	getenv    func(string) string
	passwords Passwords
}

func New(io iocli.IO, apiClient APIClient, sessions storage.SessionStorage, passwords Passwords) *Cli {
	return &Cli{
		io:        io,
		apiClient: apiClient,
		sessions:  sessions,
		passwords: passwords,
		now:       time.Now,
		getenv:    os.Getenv,
	}
}

// getPassword retrieves password from various sources with priority:
// 1. Environment variable AUTHAPI_PASSWORD
// 2. File specified in --password-file
// 3. Command-line parameter --password
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword() (string, error) {
	// Priority 1: Environment variable
	if envPassword := c.getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	// Priority 3: CLI parameter
	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

// saveSession сохраняет ответ sign-up/sign-in как текущую сессию
func (c *Cli) saveSession(ctx context.Context, resp *api.AuthResponse) (*storage.Session, error) {
	session := &storage.Session{
		Email:       resp.CurrentUser.Email,
		UserID:      resp.CurrentUser.ID,
		AccessToken: resp.AccessToken,
		ExpiresAt:   tokenExpiry(resp.AccessToken),
	}
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// tokenExpiry читает exp из токена без проверки подписи: ключа у клиента нет,
// подпись проверяет сервер. 0 если exp прочитать не удалось.
func tokenExpiry(accessToken string) int64 {
	claims := &gojwt.RegisteredClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}

func (c *Cli) PrintUsage() {
	c.io.Println("AuthAPI Client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  authapi-client [OPTIONS] COMMAND")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  --version               Show version information")
	c.io.Println("  --server URL            Server URL (default: http://localhost:3000)")
	c.io.Println("  --db PATH               Path to local session database (default: authapi-client.db)")
	c.io.Println("  --password PASSWORD     Password (not recommended, use env var or file)")
	c.io.Println("  --password-file PATH    Path to file containing password")
	c.io.Println()
	c.io.Println("Password Priority (highest to lowest):")
	c.io.Println("  1. " + PasswordEnv + " environment variable")
	c.io.Println("  2. --password-file (file path)")
	c.io.Println("  3. --password (command line)")
	c.io.Println("  4. Interactive prompt (fallback)")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  signup [--inactive]     Register new user and sign in")
	c.io.Println("  signin                  Sign in to server")
	c.io.Println("  profile                 Show the signed in user's profile")
	c.io.Println("  status                  Show local session status")
	c.io.Println("  logout                  Delete local session")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  authapi-client signup")
	c.io.Println("  " + PasswordEnv + "='pw123' authapi-client signin")
	c.io.Println("  authapi-client --server https://example.com profile")
}
