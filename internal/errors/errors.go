// errors стандартизирует ответы об ошибках HTTP-слоя gearguard.
// На вход принимает ошибку сервисного слоя (sentinel из internal/service,
// обёрнутый через %w), на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный код и безопасное message без утечки деталей.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pribylovaa/gearguard/internal/pkg/password"
	"github.com/pribylovaa/gearguard/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var weakPasswordMessage = fmt.Sprintf("password must be at least %d characters and at most %d bytes",
	password.MinLength, password.MaxBytes)

// ErrBadRequest - локальная ошибка разбора запроса в хендлере (битый JSON, UUID в пути).
var ErrBadRequest = errors.New("bad request")

// APIError - единый формат для фронта.
// Code - короткий стабильный код для машиночитаемой обработки на FE.
// Message - безопасное человекочитаемое описание.
// RequestID - прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse - корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type mapping struct {
	target error
	status int
	code   string
	msg    string
}

// Порядок важен: более конкретные ошибки идут раньше оборачиваемых ими.
var table = []mapping{
	{ErrBadRequest, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{service.ErrInvalidEmail, http.StatusBadRequest, "invalid_email", "invalid email format"},
	{service.ErrWeakPassword, http.StatusBadRequest, "weak_password", weakPasswordMessage},
	{service.ErrInvalidOldPassword, http.StatusBadRequest, "invalid_old_password", "invalid old password"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid credentials"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "unauthenticated", "unauthorized request"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "token_expired", "token expired"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "invalid_token", "invalid token"},
	{service.ErrTokenReuse, http.StatusUnauthorized, "token_reused", "refresh token expired or used"},
	{service.ErrForbidden, http.StatusForbidden, "permission_denied", "permission denied"},
	{service.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{service.ErrAlreadyExists, http.StatusConflict, "already_exists", "already exists"},
	{service.ErrEquipmentScrapped, http.StatusConflict, "equipment_scrapped", "equipment is scrapped"},
	{context.Canceled, StatusClientClosedRequest, "canceled", "canceled"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"},
}

// ToHTTP конвертирует ошибку сервиса в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil - это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - известный sentinel (через errors.Is) - статус и код из таблицы;
//   - прочее (включая service.ErrInternal) - 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err != nil {
		for _, m := range table {
			if errors.Is(err, m.target) {
				return m.status, ErrorResponse{Error: APIError{Code: m.code, Message: m.msg}}
			}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

// WriteError - хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
