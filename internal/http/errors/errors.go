// errors стандартизирует ответы об ошибках HTTP-слоя bookshelf.
// На вход принимает ошибку сервисного слоя, на выход даёт:
//   - корректный HTTP-статус;
//   - стабильный машиночитаемый code;
//   - безопасное message без утечки деталей.
//
// Ошибки аутентификации намеренно не раскрывают причину сверх
// фиксированной строки (no token / session expired / invalid session).
// В режиме отладки (local/dev) в ответ добавляется поле debug
// с цепочкой ошибки; в prod его нет никогда.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/bookshelf/internal/pkg/log"
	"github.com/pribylovaa/bookshelf/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrRateLimited — превышен лимит запросов. HTTP 429.
	ErrRateLimited = errors.New("too many requests")
	// ErrMalformedBody — тело запроса не разбирается как ожидаемый JSON. HTTP 400.
	ErrMalformedBody = errors.New("malformed request body")
)

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id (для трассировки).
// Details — ошибки по полям для ошибок валидации.
// Debug — только в режиме отладки.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Debug     string            `json:"debug,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type debugKey struct{}

// WithDebug включает поле debug для ответов в рамках ctx.
func WithDebug(ctx context.Context) context.Context {
	return context.WithValue(ctx, debugKey{}, true)
}

func debugEnabled(ctx context.Context) bool {
	v, _ := ctx.Value(debugKey{}).(bool)
	return v
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal,
//     чтобы не послать "200 OK" с телом ошибки;
//   - *service.ValidationError — 400 с деталями по полям;
//   - известные sentinel-ошибки — по таблице baseFromError();
//   - прочее — 500/internal без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{
			Error: APIError{Code: "internal", Message: "internal error"},
		}
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{
			Error: APIError{
				Code:    "validation_failed",
				Message: "validation failed",
				Details: ve.Fields,
			},
		}
	}

	httpStatus, code, msg := baseFromError(err)
	return httpStatus, ErrorResponse{
		Error: APIError{Code: code, Message: msg},
	}
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Пишет корректный статус/тело, добавляет request_id из заголовка.
// 5xx логируются с полной цепочкой ошибки.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	ctx := r.Context()
	if status >= http.StatusInternalServerError {
		log.From(ctx).LogAttrs(ctx, slog.LevelError, "request_failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("err", err),
		)
	}

	if debugEnabled(ctx) && err != nil {
		resp.Error.Debug = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromError — маппинг ошибок сервисного слоя на HTTP/FE-код/сообщение:
//   - InvalidArgument, MalformedBody -> 400
//   - AlreadyExists -> 409
//   - InvalidCredentials, NoToken, SessionExpired, InvalidSession, OAuthFailed -> 401
//   - Forbidden -> 403
//   - NotFound -> 404
//   - RateLimited -> 429
//   - context.Canceled -> 499
//   - context.DeadlineExceeded -> 504
//   - Unavailable -> 503 (функция не сконфигурирована)
//   - прочее -> 500/internal
func baseFromError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, "invalid_argument", ErrMalformedBody.Error()
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict, "already_exists", service.ErrAlreadyExists.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrNoToken):
		return http.StatusUnauthorized, "unauthenticated", service.ErrNoToken.Error()
	case errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized, "unauthenticated", service.ErrSessionExpired.Error()
	case errors.Is(err, service.ErrInvalidSession):
		return http.StatusUnauthorized, "unauthenticated", service.ErrInvalidSession.Error()
	case errors.Is(err, service.ErrOAuthFailed):
		return http.StatusUnauthorized, "unauthenticated", service.ErrOAuthFailed.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "permission_denied", "permission denied"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "resource_exhausted", ErrRateLimited.Error()
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", service.ErrUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
