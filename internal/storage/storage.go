package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-attendance/internal/models"
)

var (
	// ErrNotFound — учётная запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности email.
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над учётными записями.
type UserStorage interface {
	// SaveUser атомарно создаёт учётную запись; email уникален без учёта регистра.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит учётную запись по email (без учёта регистра).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Storage задает контракт хранилища учётных записей.
type Storage interface {
	UserStorage
	// Ping проверяет доступность хранилища (readiness).
	Ping(ctx context.Context) error
	Close()
}
