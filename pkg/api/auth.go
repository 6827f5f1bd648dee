package api

// Статусы и сообщения ответа. Написание ключей и текстов совпадает с тем,
// что ожидают существующие клиенты, поэтому не исправляется.
const (
	StatusSuccess = "success"

	MessageRegistered = "User registered succesfully"
	MessageLoggedIn   = "User logged succesfully"
	MessageHello      = "Hello, this is your GET /user response"
)

// SignUpRequest представляет запрос на регистрацию нового пользователя
type SignUpRequest struct {
	IsActive *bool  `json:"is_active"` // nil если поле не передано
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest представляет запрос на аутентификацию
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse сериализованный пользователь (без хеша пароля)
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// AuthResponse представляет ответ на успешную регистрацию или вход
type AuthResponse struct {
	Status      string       `json:"status"`
	Message     string       `json:"messege"`
	AccessToken string       `json:"access_token"`
	CurrentUser UserResponse `json:"currentUser"`
}

// HelloResponse ответ GET /user
type HelloResponse struct {
	Msg string `json:"msg"`
}

// HealthResponse ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// InvalidUserResponse ответ профиля, когда пользователь из токена не найден
type InvalidUserResponse struct {
	User string `json:"user"`
}
