package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-attendance/internal/models"
	"github.com/pribylovaa/go-attendance/internal/transport/http/apierrors"
)

// maxBodyBytes ограничивает размер тела JSON-запроса.
const maxBodyBytes = 1 << 20

// AuthService — операции сервиса аутентификации, нужные HTTP-слою.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ResolveCurrentUser(ctx context.Context, accessToken string) (*models.Claims, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc      AuthService
	validate *validator.Validate
	ready    func(ctx context.Context) error
}

// New создаёт Handlers. ready — проверка готовности для /healthz (может быть nil).
func New(svc AuthService, ready func(ctx context.Context) error) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В сообщениях об ошибках используем имена полей из json-тегов.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Handlers{svc: svc, validate: v, ready: ready}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля,
// лишние данные после объекта и тела больше maxBodyBytes.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return &apierrors.ValidationError{Message: "malformed JSON body"}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &apierrors.ValidationError{Message: "body must contain a single JSON object"}
	}

	return nil
}

// decodeAndValidate декодирует тело и проверяет validate-теги.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, value any) error {
	if err := decodeStrict(w, r, value); err != nil {
		return err
	}

	if err := h.validate.Struct(value); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &apierrors.ValidationError{Message: "validation failed"}
		}

		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
		}

		return &apierrors.ValidationError{Message: strings.Join(msgs, "; ")}
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
