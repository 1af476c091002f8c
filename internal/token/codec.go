// token кодирует и проверяет подписанные самодостаточные токены (JWT, HMAC).
//
// Токены не хранятся на сервере: подпись секретом процесса и claim "exp" —
// единственные механизмы доверия и завершения. Отзыва нет, срок жизни
// скомпрометированного токена ограничен только его TTL.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pribylovaa/go-attendance/internal/config"
	"github.com/pribylovaa/go-attendance/internal/models"
)

var (
	// ErrInvalid — токен не прошёл проверку: подпись, структура, алгоритм,
	// срок действия или вид. Единственная ошибка, которую видят вызывающие.
	ErrInvalid = errors.New("invalid token")

	// ErrExpired уточняет ErrInvalid для логов: срок действия истёк.
	ErrExpired = errors.New("token expired")

	// ErrKindMismatch уточняет ErrInvalid для логов: вид токена не тот.
	ErrKindMismatch = errors.New("token kind mismatch")

	// ErrUnsupportedAlgorithm — алгоритм подписи не из семейства HMAC.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrInvalidClaims — выпуск невозможен: пустой subject, неизвестный вид или ttl <= 0.
	ErrInvalidClaims = errors.New("invalid claims")
)

// jwtClaims — проводное представление models.Claims.
type jwtClaims struct {
	Kind models.TokenKind `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// Codec выпускает и проверяет токены. Неизменяем после создания и
// безопасен для конкурентного использования.
type Codec struct {
	method jwt.SigningMethod
	secret []byte
	issuer string
	now    func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт Codec из конфигурации auth.
func New(cfg config.AuthConfig, opts ...Option) (*Codec, error) {
	const op = "token.New"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: %w: jwt secret", op, config.ErrConfigurationMissing)
	}

	method, ok := jwt.GetSigningMethod(cfg.SigningAlgorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedAlgorithm, cfg.SigningAlgorithm)
	}

	c := &Codec{
		method: method,
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Algorithm возвращает имя алгоритма подписи ("HS256" и т.п.).
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue подписывает claims с exp = now + ttl и iat = now (точность — секунда).
// Поля ExpiresAt/IssuedAt/Issuer из аргумента игнорируются и заполняются кодеком.
// Возвращает токен и момент его истечения.
func (c *Codec) Issue(claims models.Claims, ttl time.Duration) (string, time.Time, error) {
	const op = "token.Issue"

	if claims.Subject == "" {
		return "", time.Time{}, fmt.Errorf("%s: %w: empty subject", op, ErrInvalidClaims)
	}

	if claims.Kind != "" && !claims.Kind.Valid() {
		return "", time.Time{}, fmt.Errorf("%s: %w: kind %q", op, ErrInvalidClaims, claims.Kind)
	}

	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("%s: %w: ttl %s", op, ErrInvalidClaims, ttl)
	}

	now := c.now().UTC()
	exp := jwt.NewNumericDate(now.Add(ttl))

	jc := jwtClaims{
		Kind: claims.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
	}

	signed, err := jwt.NewWithClaims(c.method, jc).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp.Time, nil
}

// Decode проверяет подпись, алгоритм, срок действия (строго now < exp)
// и, если задан, издателя. Любая неудача — ErrInvalid; причина завёрнута
// в ошибку для логов.
func (c *Codec) Decode(raw string) (*models.Claims, error) {
	const op = "token.Decode"

	var jc jwtClaims
	tok, err := jwt.ParseWithClaims(raw, &jc, c.keyFunc, c.parserOptions()...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalid, ErrExpired)
		}

		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalid, err)
	}

	if !tok.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalid)
	}

	if jc.Subject == "" {
		return nil, fmt.Errorf("%s: %w: missing sub", op, ErrInvalid)
	}

	if jc.Kind != "" && !jc.Kind.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown typ %q", op, ErrInvalid, jc.Kind)
	}

	claims := &models.Claims{
		Subject:   jc.Subject,
		Kind:      jc.Kind,
		ExpiresAt: jc.ExpiresAt.Time.UTC(),
		Issuer:    jc.Issuer,
	}

	if jc.IssuedAt != nil {
		claims.IssuedAt = jc.IssuedAt.Time.UTC()
	}

	return claims, nil
}

// DecodeKind — Decode с дополнительной проверкой вида токена.
func (c *Codec) DecodeKind(raw string, kind models.TokenKind) (*models.Claims, error) {
	const op = "token.DecodeKind"

	claims, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%s: %w: %w: want %q, got %q", op, ErrInvalid, ErrKindMismatch, kind, claims.Kind)
	}

	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != c.method.Alg() {
		return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
	}

	return c.secret, nil
}

func (c *Codec) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}

	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	return opts
}
