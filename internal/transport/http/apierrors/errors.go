// apierrors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку сервиса (sentinel из пакета service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный код и безопасное message без утечки деталей.
package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-attendance/internal/service"
	"github.com/pribylovaa/go-attendance/pkg/log"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrRouteNotFound — маршрут не зарегистрирован.
	ErrRouteNotFound = errors.New("route not found")
	// ErrMethodNotAllowed — метод не поддерживается маршрутом.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// APIError — единый формат для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ValidationError — тело запроса не прошло валидацию.
// Message перечисляет поля и безопасно отдаётся клиенту.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap связывает ошибку валидации с service.ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return service.ErrInvalidInput }

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Таблица:
//   - ValidationError                  -> 400 invalid_argument (с перечнем полей)
//   - service.ErrInvalidInput          -> 400 invalid_argument
//   - service.ErrDuplicateIdentifier   -> 400 duplicate_identifier
//   - service.ErrInvalidCredentials    -> 401 invalid_credentials
//   - service.ErrInvalidToken          -> 401 invalid_token
//   - ErrRouteNotFound                 -> 404 not_found
//   - ErrMethodNotAllowed              -> 405 method_not_allowed
//   - context.Canceled                 -> 499 canceled
//   - context.DeadlineExceeded         -> 504 deadline_exceeded
//   - прочее (и err == nil)            -> 500 internal, без деталей
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

func classify(err error) (int, string, string) {
	var ve *ValidationError

	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.As(err, &ve):
		return http.StatusBadRequest, "invalid_argument", ve.Message
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrDuplicateIdentifier):
		return http.StatusBadRequest, "duplicate_identifier", "email already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid email or password"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", "invalid or expired token"
	case errors.Is(err, ErrRouteNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
// Внутренние ошибки логируются целиком, клиент видит только "internal error".
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if status >= http.StatusInternalServerError && err != nil {
		log.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "request_failed",
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
	}

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
