// password реализует одностороннее адаптивное хэширование паролей.
//
// Реализации:
//   - Bcrypt — по умолчанию (формат "$2a$<cost>$...");
//   - Argon2id — PHC-строка "$argon2id$v=19$m=..,t=..,p=..$<salt>$<hash>".
//
// Соль случайная для каждого хэша; сравнение выполняется за постоянное время.
// Verify никогда не паникует и возвращает false для повреждённых дайджестов.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/pribylovaa/go-attendance/internal/config"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong — пароль длиннее, чем допускает алгоритм (bcrypt: 72 байта).
var ErrPasswordTooLong = errors.New("password is too long")

// bcryptMaxLen — предел bcrypt на длину входа в байтах.
const bcryptMaxLen = 72

// argon2MaxMemory ограничивает память, которую может запросить дайджест из хранилища (KiB).
const argon2MaxMemory = 1 << 20

// Hasher — контракт хэширования и проверки пароля.
type Hasher interface {
	// Hash возвращает дайджест пароля со встроенной солью и параметрами.
	Hash(plain string) (string, error)
	// Verify сообщает, соответствует ли пароль дайджесту.
	Verify(plain, digest string) bool
}

// New собирает Hasher по конфигурации: выбранный алгоритм хэширует новые пароли,
// а проверка поддерживает оба формата.
func New(cfg config.AuthConfig) (Hasher, error) {
	b := NewBcrypt(cfg.BcryptCost)
	a := NewArgon2id(DefaultArgon2Params)

	if cfg.PasswordAlgorithm == config.PasswordArgon2id {
		return newMulti(a, b, a)
	}

	return newMulti(b, b, a)
}

// Bcrypt — хэшер на bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt создаёт bcrypt-хэшер. Стоимость вне допустимого диапазона
// заменяется на bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Bcrypt{cost: cost}
}

// Hash хэширует пароль с помощью bcrypt.
func (h *Bcrypt) Hash(plain string) (string, error) {
	const op = "password.Bcrypt.Hash"

	if len(plain) > bcryptMaxLen {
		return "", fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Verify сравнивает пароль с bcrypt-хэшем.
func (h *Bcrypt) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// Argon2Params — параметры стоимости argon2id.
type Argon2Params struct {
	Memory     uint32 // KiB
	Iterations uint32
	Threads    uint8
	SaltLen    uint32
	KeyLen     uint32
}

// DefaultArgon2Params — рекомендации OWASP: m=64MiB, t=1, p=4.
var DefaultArgon2Params = Argon2Params{
	Memory:     64 * 1024,
	Iterations: 1,
	Threads:    4,
	SaltLen:    16,
	KeyLen:     32,
}

// Argon2id — хэшер на argon2id.
type Argon2id struct {
	p Argon2Params
}

// NewArgon2id создаёт argon2id-хэшер.
func NewArgon2id(p Argon2Params) *Argon2id {
	return &Argon2id{p: p}
}

// Hash хэширует пароль argon2id и кодирует результат в PHC-строку.
func (h *Argon2id) Hash(plain string) (string, error) {
	const op = "password.Argon2id.Hash"

	salt := make([]byte, h.p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key := argon2.IDKey([]byte(plain), salt, h.p.Iterations, h.p.Memory, h.p.Threads, h.p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.p.Memory, h.p.Iterations, h.p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify пересчитывает ключ с параметрами и солью из дайджеста.
func (h *Argon2id) Verify(plain, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	if memory == 0 || memory > argon2MaxMemory || iterations == 0 || threads == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(plain), salt, iterations, memory, threads, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1
}

// decoyPassword хэшируется при создании Multi; дайджесты нужны только
// для выравнивания времени проверки.
const decoyPassword = "attendance-decoy-password"

// Multi хэширует основным алгоритмом и проверяет дайджест тем алгоритмом,
// которым он был создан (по префиксу). Смена алгоритма в конфигурации
// не ломает вход для уже зарегистрированных пользователей.
//
// Каждая проверка прогоняет оба алгоритма: второй работает по дайджесту-приманке.
// Время Verify не зависит от формата дайджеста, в том числе повреждённого.
type Multi struct {
	primary Hasher
	bcrypt  Hasher
	argon2  Hasher

	bcryptDecoy string
	argon2Decoy string
}

func newMulti(primary, b, a Hasher) (*Multi, error) {
	const op = "password.newMulti"

	bd, err := b.Hash(decoyPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ad, err := a.Hash(decoyPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Multi{
		primary:     primary,
		bcrypt:      b,
		argon2:      a,
		bcryptDecoy: bd,
		argon2Decoy: ad,
	}, nil
}

// Hash хэширует пароль основным алгоритмом.
func (m *Multi) Hash(plain string) (string, error) {
	return m.primary.Hash(plain)
}

// Verify выбирает алгоритм по префиксу дайджеста.
func (m *Multi) Verify(plain, digest string) bool {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		ok := m.argon2.Verify(plain, digest)
		m.bcrypt.Verify(plain, m.bcryptDecoy)
		return ok
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		ok := m.bcrypt.Verify(plain, digest)
		m.argon2.Verify(plain, m.argon2Decoy)
		return ok
	default:
		m.bcrypt.Verify(plain, m.bcryptDecoy)
		m.argon2.Verify(plain, m.argon2Decoy)
		return false
	}
}
