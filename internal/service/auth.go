package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-attendance/internal/models"
	"github.com/pribylovaa/go-attendance/internal/password"
	"github.com/pribylovaa/go-attendance/internal/storage"
	"github.com/pribylovaa/go-attendance/pkg/log"
	"github.com/pribylovaa/go-attendance/pkg/redact"
)

// Register создаёт учётную запись и возвращает её идентификатор.
func (s *Service) Register(ctx context.Context, name, email, plain string) (uuid.UUID, error) {
	const op = "service.auth.Register"

	ctx = log.With(ctx, slog.String("op", op))
	lg := log.From(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}

	email, err := validateEmail(email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if plain == "" {
		return uuid.Nil, fmt.Errorf("%s: %w: password is required", op, ErrInvalidInput)
	}

	_, err = s.storage.UserByEmail(ctx, email)
	if err == nil {
		lg.Info("register_duplicate", slog.String("email", redact.Email(email)))
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrDuplicateIdentifier)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	digest, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return uuid.Nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		// Проверка выше не атомарна: конкурентная регистрация ловится индексом хранилища.
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Info("register_duplicate", slog.String("email", redact.Email(email)))
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrDuplicateIdentifier)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(email)),
	)

	return user.ID, nil
}

// Login проверяет email+пароль и выпускает пару access+refresh.
// Отсутствующий пользователь и неверный пароль дают одну и ту же ошибку.
func (s *Service) Login(ctx context.Context, email, plain string) (*models.TokenPair, error) {
	const op = "service.auth.Login"

	ctx = log.With(ctx, slog.String("op", op))
	lg := log.From(ctx)

	if email == "" || plain == "" {
		s.hasher.Verify(plain, s.dummyHash)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.lookupCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Выравниваем время ответа с веткой неверного пароля.
			s.hasher.Verify(plain, s.dummyHash)
			lg.Info("login_failed", slog.String("email", redact.Email(email)))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(plain, user.PasswordHash) {
		lg.Info("login_failed", slog.String("email", redact.Email(email)))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	access, accessExp, err := s.codec.Issue(models.Claims{
		Subject: user.Email,
		Kind:    models.TokenKindAccess,
	}, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, _, err := s.codec.Issue(models.Claims{
		Subject: user.Email,
		Kind:    models.TokenKindRefresh,
	}, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_succeeded", slog.String("user_id", user.ID.String()))

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		TokenType:       models.TokenTypeBearer,
		AccessExpiresAt: accessExp,
	}, nil
}

// Refresh выпускает новый access-токен по refresh-токену.
// Существование учётной записи не перепроверяется; refresh-токен не ротируется.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	claims, err := s.decode(refreshToken, models.TokenKindRefresh)
	if err != nil {
		log.From(ctx).Info("refresh_rejected",
			slog.String("op", op),
			slog.String("token", redact.Token(refreshToken)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	access, accessExp, err := s.codec.Issue(models.Claims{
		Subject: claims.Subject,
		Kind:    models.TokenKindAccess,
	}, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		TokenType:       models.TokenTypeBearer,
		AccessExpiresAt: accessExp,
	}, nil
}

// ResolveCurrentUser возвращает claims access-токена как identity вызывающего.
func (s *Service) ResolveCurrentUser(ctx context.Context, accessToken string) (*models.Claims, error) {
	const op = "service.auth.ResolveCurrentUser"

	claims, err := s.decode(accessToken, models.TokenKindAccess)
	if err != nil {
		log.From(ctx).Debug("access_token_rejected",
			slog.String("op", op),
			slog.String("token", redact.Token(accessToken)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// decode проверяет токен; вид проверяется, если проверка не отключена конфигом.
func (s *Service) decode(raw string, kind models.TokenKind) (*models.Claims, error) {
	if s.cfg.DisableTokenKindCheck {
		return s.codec.Decode(raw)
	}

	return s.codec.DecodeKind(raw, kind)
}

// lookupCredentials читает учётную запись из хранилища. Кэш, если он
// настроен, обновляется после каждого чтения и отвечает только при сбое
// хранилища. Отсутствие записи в хранилище удаляет её и из кэша.
func (s *Service) lookupCredentials(ctx context.Context, email string) (*models.User, error) {
	const op = "service.auth.lookupCredentials"

	user, err := s.storage.UserByEmail(ctx, email)
	if s.ccache == nil {
		return user, err
	}

	lg := log.From(ctx)

	switch {
	case err == nil:
		if cerr := s.ccache.Set(ctx, user); cerr != nil {
			lg.Warn("credential_cache_set_failed", slog.String("op", op), slog.String("err", cerr.Error()))
		}

		return user, nil
	case errors.Is(err, storage.ErrNotFound):
		if cerr := s.ccache.Delete(ctx, email); cerr != nil {
			lg.Warn("credential_cache_delete_failed", slog.String("op", op), slog.String("err", cerr.Error()))
		}

		return nil, err
	case ctx.Err() != nil:
		return nil, err
	}

	cached, ok, cerr := s.ccache.Get(ctx, email)
	if cerr != nil {
		lg.Warn("credential_cache_get_failed", slog.String("op", op), slog.String("err", cerr.Error()))
		return nil, err
	}

	if !ok {
		return nil, err
	}

	lg.Warn("credential_store_unavailable_cache_used",
		slog.String("op", op),
		slog.String("err", err.Error()),
	)

	return cached, nil
}

// validateEmail проверяет адрес тем же правилом, что и HTTP-слой
// (тег "email" go-playground/validator). Пробелы не обрезаются, регистр
// сохраняется: сравнение без учёта регистра обеспечивает хранилище.
func validateEmail(email string) (string, error) {
	const op = "service.auth.validateEmail"

	if email == "" {
		return "", fmt.Errorf("%s: %w: email is required", op, ErrInvalidInput)
	}

	if err := validate.Var(email, "email"); err != nil {
		return "", fmt.Errorf("%s: %w: malformed email", op, ErrInvalidInput)
	}

	return email, nil
}
