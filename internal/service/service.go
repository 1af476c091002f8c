// service содержит бизнес-логику аутентификации:
// регистрацию учётных записей, вход по email+паролю, обновление
// access-токена по refresh-токену и разрешение текущего пользователя.
//
// Основные аспекты:
//   - Service неизменяем после создания и безопасен для конкурентного
//     использования при условии, что хранилище потокобезопасно.
//   - Токены не хранятся: Refresh и ResolveCurrentUser не обращаются к
//     хранилищу и доверяют подписи и сроку действия токена.
//   - Ошибки возвращаются как sentinel-значения и маппятся транспортом
//     на HTTP-коды (см. комментарии к переменным ниже).
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pribylovaa/go-attendance/internal/cache"
	"github.com/pribylovaa/go-attendance/internal/config"
	"github.com/pribylovaa/go-attendance/internal/password"
	"github.com/pribylovaa/go-attendance/internal/storage"
	"github.com/pribylovaa/go-attendance/internal/token"
)

var (
	// ErrDuplicateIdentifier — учётная запись с таким email уже существует.
	// Транспорт: HTTP 400.
	ErrDuplicateIdentifier = errors.New("email already registered")

	// ErrInvalidCredentials — пользователь не найден или пароль неверен.
	// Оба случая неразличимы для клиента. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен не прошёл проверку (подпись, срок, вид).
	// Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidInput — некорректные данные регистрации. Транспорт: HTTP 400.
	ErrInvalidInput = errors.New("invalid input")
)

// validate — общий валидатор; безопасен для конкурентного использования.
var validate = validator.New(validator.WithRequiredStructEnabled())

// dummyPassword хэшируется один раз при создании сервиса; проверка по этому
// хэшу выполняется при входе несуществующего пользователя.
const dummyPassword = "attendance-dummy-password"

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage   storage.UserStorage
	hasher    password.Hasher
	codec     *token.Codec
	cfg       config.AuthConfig
	ccache    cache.CredentialCache // может быть nil, если кэш не сконфигурирован
	dummyHash string
	now       func() time.Time
}

// New создаёт новый экземпляр Service.
func New(st storage.UserStorage, hasher password.Hasher, codec *token.Codec, cfg config.AuthConfig) (*Service, error) {
	const op = "service.New"

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Service{
		storage:   st,
		hasher:    hasher,
		codec:     codec,
		cfg:       cfg,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// SetCredentialCache устанавливает кэш учётных записей (опционально).
// Вызывается до начала обслуживания запросов.
func (s *Service) SetCredentialCache(c cache.CredentialCache) {
	s.ccache = c
}
