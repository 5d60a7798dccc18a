// Package handlers — тонкие REST-хендлеры поверх service.Service.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/bookshelf/internal/http/cookie"
	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
	"github.com/pribylovaa/bookshelf/internal/http/middleware"
	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/service"
)

// Тело запроса не больше 1 МБ.
const maxBodyBytes = 1 << 20

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc         *service.Service
	cookies     *cookie.Manager
	redirectURL string
}

// New создаёт хендлеры. redirectURL — адрес приложения, куда уходит
// пользователь после входа через Google; пустой — ответ JSON.
func New(svc *service.Service, cookies *cookie.Manager, redirectURL string) *Handlers {
	return &Handlers{svc: svc, cookies: cookies, redirectURL: redirectURL}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: неизвестные поля запрещены.
// Используется на публичных маршрутах.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	return decode(w, r, value, true)
}

// decodeBody — декодер защищённых маршрутов: тело может дополнительно
// нести refreshToken для прозрачного продления сессии.
func decodeBody(w http.ResponseWriter, r *http.Request, value any) error {
	return decode(w, r, value, false)
}

func decode(w http.ResponseWriter, r *http.Request, value any, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrMalformedBody, err)
	}

	return nil
}

// decodeOptional — как decodeStrict, но пустое тело не ошибка.
func decodeOptional(w http.ResponseWriter, r *http.Request, value any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", apierrors.ErrMalformedBody, err)
	}

	return nil
}

// principal достаёт субъект защищённого маршрута.
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrNoToken)
	}

	return p, ok
}

func invalid(field, msg string) error {
	return &service.ValidationError{Fields: map[string]string{field: msg}}
}
