package handlers

import "github.com/pribylovaa/go-attendance/internal/models"

// RegisterRequest — тело POST /register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse — ответ 201 на POST /register.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// LoginRequest — тело POST /login. Формат email не проверяется:
// любой неверный вход получает одинаковый ответ 401.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse — ответ 200 на POST /login.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest — тело POST /refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse — ответ 200 на POST /refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ClaimsResponse — claims токена в проводном виде (Unix-секунды).
type ClaimsResponse struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat,omitempty"`
	Kind      string `json:"typ,omitempty"`
	Issuer    string `json:"iss,omitempty"`
}

// MeResponse — ответ 200 на GET /me.
type MeResponse struct {
	User ClaimsResponse `json:"user"`
}

func claimsFromModel(c *models.Claims) ClaimsResponse {
	out := ClaimsResponse{
		Subject:   c.Subject,
		ExpiresAt: c.ExpiresAt.Unix(),
		Kind:      string(c.Kind),
		Issuer:    c.Issuer,
	}

	if !c.IssuedAt.IsZero() {
		out.IssuedAt = c.IssuedAt.Unix()
	}

	return out
}
