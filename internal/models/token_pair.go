package models

import "time"

// TokenPair — результат входа или обновления.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT для выпуска нового access-токена;
//     пустой в ответе на обновление (refresh-токен не ротируется);
//   - TokenType — всегда "bearer";
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	TokenType       string
	AccessExpiresAt time.Time
}
