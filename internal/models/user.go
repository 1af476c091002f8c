package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись преподавателя (Credential Record).
//
// Email — идентификатор входа: уникален (без учёта регистра) и не меняется
// после создания. PasswordHash — результат password.Hasher; открытый пароль
// нигде не хранится и не логируется.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
