package models

import "time"

// TokenKind — назначение токена.
type TokenKind string

const (
	// TokenKindAccess — короткоживущий токен доступа к защищённым ресурсам.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh — долгоживущий токен для выпуска нового access-токена.
	TokenKindRefresh TokenKind = "refresh"
)

// Valid сообщает, известен ли вид токена.
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// TokenTypeBearer — значение token_type в ответах API.
const TokenTypeBearer = "bearer"

// Claims — типизированный набор утверждений токена.
//
// Поля сериализуются кодеком явно:
//   - Subject   -> "sub" (email учётной записи);
//   - Kind      -> "typ" (access/refresh);
//   - ExpiresAt -> "exp" (Unix-секунды);
//   - IssuedAt  -> "iat" (Unix-секунды);
//   - Issuer    -> "iss" (опционально).
type Claims struct {
	Subject   string
	Kind      TokenKind
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}
