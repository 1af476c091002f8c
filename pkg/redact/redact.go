// redact маскирует чувствительные данные перед записью в логи.
// Пароли и токены в логи не попадают никогда; e-mail — только в маскированном виде.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать ровно один '@', иначе "***";
//   - локальная часть заменяется на первые две руны + "***" (или "***", если она короче трёх рун);
//   - домен возвращается без изменений.
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает короткий отпечаток токена (первые 8 hex-символов SHA-256).
// Отпечаток позволяет сопоставить строки логов, не раскрывая сам токен.
func Token(raw string) string {
	if raw == "" {
		return "[EMPTY_TOKEN]"
	}

	sum := sha256.Sum256([]byte(raw))
	return "tok:" + hex.EncodeToString(sum[:4])
}
