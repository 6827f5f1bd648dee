package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/authapi/internal/crypto"
	"github.com/iudanet/authapi/internal/models"
	"github.com/iudanet/authapi/internal/server/storage"
	"github.com/iudanet/authapi/internal/validation"
	"github.com/iudanet/authapi/pkg/api"
)

// Тексты ошибок, которые видит клиент
const (
	errMsgInvalidBody      = "Invalid request body!"
	errMsgEmailRequired    = "Email is required!"
	errMsgPasswordRequired = "Password is required!"
	errMsgIsActiveRequired = "Is active is required!"
	errMsgEmailInUse       = "Email es already in use!"
	errMsgBadCredentials   = "Incorrect Credentials!"
	errMsgTryLater         = "please, try again later!"
	errMsgInvalidUser      = "User is invalid!"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// errTrailingData после JSON объекта в теле есть что-то еще
var errTrailingData = errors.New("unexpected data after JSON body")

// dummyHash используется для проверки пароля, когда пользователь не найден,
// чтобы время ответа не выдавало существование email.
// Считается один раз на процесс, в NewAuthHandler.
var dummyHash = sync.OnceValue(func() string {
	hash, err := crypto.HashPassword("authapi-dummy-password")
	if err != nil {
		return ""
	}
	return hash
})

// TokenIssuer выпускает access token для пользователя
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// AuthHandler обрабатывает запросы регистрации, входа и профиля
type AuthHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	tokens      TokenIssuer
	dummyHash   string
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		userStorage: userStorage,
		tokens:      tokens,
		dummyHash:   dummyHash(),
	}
}

// SignUp обрабатывает POST /api/sign-up
// Регистрация нового пользователя
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.SignUpRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sign-up request", slog.Any("error", err))
		h.sendError(w, errMsgInvalidBody, http.StatusBadRequest)
		return
	}

	// Проверка обязательных полей
	if err := validation.ValidateSignUp(req.Email, req.Password, req.IsActive); err != nil {
		h.sendError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	email := validation.NormalizeEmail(req.Email)

	// Ищем пользователя с таким email
	_, err := h.userStorage.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		h.logger.WarnContext(ctx, "sign-up rejected: email already in use", slog.String("email", email))
		h.sendError(w, errMsgEmailInUse, http.StatusBadRequest)
		return
	case !errors.Is(err, storage.ErrUserNotFound):
		h.logger.ErrorContext(ctx, "failed to look up user", slog.Any("error", err))
		h.sendError(w, errMsgTryLater, http.StatusInternalServerError)
		return
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, errMsgTryLater, http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     *req.IsActive,
		CreatedAt:    time.Now().UTC(),
	}

	// Сохраняем в БД. Уникальный индекс ловит гонку двух одновременных регистраций
	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "sign-up rejected: email taken concurrently", slog.String("email", email))
			h.sendError(w, errMsgEmailInUse, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		h.sendError(w, errMsgTryLater, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("email", email),
		slog.String("user_id", user.ID))

	h.respondWithToken(w, r, user, api.MessageRegistered)
}

// SignIn обрабатывает POST /api/sign-in
// Аутентификация пользователя
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignInRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sign-in request", slog.Any("error", err))
		h.sendError(w, errMsgInvalidBody, http.StatusBadRequest)
		return
	}

	if err := validation.ValidateCredentials(req.Email, req.Password); err != nil {
		h.sendError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	email := validation.NormalizeEmail(req.Email)

	// Ищем активного пользователя
	user, err := h.userStorage.GetActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Тратим столько же времени, сколько на настоящую проверку
			_, _ = crypto.VerifyPassword(req.Password, h.dummyHash)
			h.logger.WarnContext(ctx, "sign-in failed: no active user", slog.String("email", email))
			h.sendError(w, errMsgBadCredentials, http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, errMsgTryLater, http.StatusInternalServerError)
		return
	}

	ok, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		// Битый хеш в базе: для клиента это те же неверные учетные данные
		h.logger.ErrorContext(ctx, "stored password hash is unreadable",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}
	if !ok {
		h.logger.WarnContext(ctx, "sign-in failed: wrong password", slog.String("user_id", user.ID))
		h.sendError(w, errMsgBadCredentials, http.StatusUnauthorized)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("email", email),
		slog.String("user_id", user.ID))

	h.respondWithToken(w, r, user, api.MessageLoggedIn)
}

// Profile обрабатывает GET /api/profile
// Требует AuthMiddleware: user_id берется из контекста
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.logger.WarnContext(ctx, "profile requested without authenticated user")
		h.sendJSON(w, api.InvalidUserResponse{User: errMsgInvalidUser}, http.StatusUnauthorized)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "profile: user from token not found", slog.String("user_id", userID))
			h.sendJSON(w, api.InvalidUserResponse{User: errMsgInvalidUser}, http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, errMsgTryLater, http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, user.Public(), http.StatusOK)
}

// respondWithToken выпускает токен и отправляет ответ sign-up/sign-in
func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, user *models.User, message string) {
	accessToken, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to generate access token", slog.Any("error", err))
		h.sendError(w, errMsgTryLater, http.StatusInternalServerError)
		return
	}

	resp := api.AuthResponse{
		Status:      api.StatusSuccess,
		Message:     message,
		AccessToken: accessToken,
		CurrentUser: user.Public(),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// decodeBody декодирует JSON тело запроса с ограничением размера.
// Тело должно содержать ровно одно JSON значение.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// validationMessage переводит ошибку валидации в текст для клиента
func validationMessage(err error) string {
	switch {
	case errors.Is(err, validation.ErrEmailRequired):
		return errMsgEmailRequired
	case errors.Is(err, validation.ErrPasswordRequired):
		return errMsgPasswordRequired
	case errors.Is(err, validation.ErrIsActiveRequired):
		return errMsgIsActiveRequired
	default:
		return err.Error()
	}
}

// sendJSON отправляет JSON ответ
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Error: message}, statusCode)
}
