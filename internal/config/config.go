// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
//
// Конфигурация читается один раз при старте процесса и дальше передаётся
// по значению/указателю в компоненты; в рантайме она не меняется.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища учётных записей.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Алгоритмы хэширования паролей.
const (
	PasswordBcrypt   = "bcrypt"
	PasswordArgon2id = "argon2id"
)

var (
	// ErrConfigurationMissing — не задан обязательный параметр (секрет подписи,
	// строка подключения к БД). Процесс не должен стартовать.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrInvalidConfig — параметр задан, но имеет недопустимое значение.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Request  time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"5s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов и хэширования паролей.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	SigningAlgorithm string        `yaml:"signing_algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"30m"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer           string        `yaml:"issuer" env:"ISSUER"`

	// DisableTokenKindCheck отключает проверку claim "typ". По умолчанию
	// refresh-токен нельзя использовать как access и наоборот.
	DisableTokenKindCheck bool `yaml:"disable_token_kind_check" env:"DISABLE_TOKEN_KIND_CHECK"`

	PasswordAlgorithm string `yaml:"password_algorithm" env:"PASSWORD_ALGORITHM" env-default:"bcrypt"`
	BcryptCost        int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// DBConfig — настройки хранилища учётных записей.
type DBConfig struct {
	Driver      string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL"`
	// SkipMigrations отключает применение goose-миграций при старте.
	SkipMigrations bool `yaml:"skip_migrations" env:"DB_SKIP_MIGRATIONS"`
}

// RedisConfig — опциональный кэш учётных записей. Пустой URL выключает кэш.
type RedisConfig struct {
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"5m"`
	Prefix   string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"attendance:cred:"`
}

// Enabled сообщает, сконфигурирован ли кэш.
func (r RedisConfig) Enabled() bool {
	return r.RedisURL != ""
}

// Validate проверяет обязательные и допустимые значения.
func (c *Config) Validate() error {
	const op = "config.Validate"

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("%s: %w: auth.jwt_secret (JWT_SECRET)", op, ErrConfigurationMissing)
	}

	switch c.DB.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.DB.DatabaseURL) == "" {
			return fmt.Errorf("%s: %w: db.db_url (DATABASE_URL)", op, ErrConfigurationMissing)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%s: %w: unknown db driver %q", op, ErrInvalidConfig, c.DB.Driver)
	}

	switch c.Auth.SigningAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%s: %w: unsupported signing algorithm %q", op, ErrInvalidConfig, c.Auth.SigningAlgorithm)
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("%s: %w: token ttl must be positive", op, ErrInvalidConfig)
	}

	switch c.Auth.PasswordAlgorithm {
	case PasswordBcrypt, PasswordArgon2id:
	default:
		return fmt.Errorf("%s: %w: unknown password algorithm %q", op, ErrInvalidConfig, c.Auth.PasswordAlgorithm)
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML,
// затем выполняется Validate.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
