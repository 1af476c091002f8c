// memory — хранилище учётных записей в памяти процесса.
//
// Используется в окружении local (db.driver: memory) и в тестах сервиса.
// Состояние теряется при перезапуске.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pribylovaa/go-attendance/internal/models"
	"github.com/pribylovaa/go-attendance/internal/storage"
)

type Storage struct {
	mu    sync.RWMutex
	users map[string]models.User // ключ — email в нижнем регистре
	ids   map[string]struct{}
}

// New создает пустое хранилище.
func New() *Storage {
	return &Storage{
		users: make(map[string]models.User),
		ids:   make(map[string]struct{}),
	}
}

// SaveUser создает учётную запись; проверка уникальности и вставка
// выполняются под одной блокировкой.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.memory.SaveUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := emailKey(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	if _, exists := s.ids[user.ID.String()]; exists {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	s.users[key] = *user
	s.ids[user.ID.String()] = struct{}{}

	return nil
}

// UserByEmail находит учётную запись по email без учёта регистра.
// Возвращает копию: вызывающий не может изменить хранимую запись.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.memory.UserByEmail"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	user, ok := s.users[emailKey(email)]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return &user, nil
}

// Ping всегда успешен, пока контекст жив.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) Close() {}

func emailKey(email string) string {
	return strings.ToLower(email)
}

var _ storage.Storage = (*Storage)(nil)
