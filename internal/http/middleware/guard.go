package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/bookshelf/internal/http/cookie"
	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/pkg/log"
)

// HeaderNewAccessToken несёт access-токен, выпущенный при прозрачном продлении.
const HeaderNewAccessToken = "New-Access-Token"

// Тело, из которого читается refreshToken, не больше 1 МБ.
const maxRefreshBody = 1 << 20

// Guard — перехватчик защищённого маршрута. Возвращает запрос (возможно,
// с дополненным контекстом) для продолжения или ошибку для отказа.
type Guard func(r *http.Request) (*http.Request, error)

// Authenticator проверяет учётные данные запроса.
type Authenticator interface {
	Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error)
}

type sessionKey struct{}

// SessionFrom возвращает сессию запроса или nil.
func SessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey{}).(*models.Session)
	return s
}

// PrincipalFrom возвращает субъект запроса; ok=false вне защищённых маршрутов.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	s := SessionFrom(ctx)
	if s == nil {
		return models.Principal{}, false
	}

	return s.Principal, true
}

// Guarded выполняет guards по порядку; первая ошибка прерывает запрос.
// Если сессия была продлена, новый access-токен уходит в заголовке
// New-Access-Token, а refresh-кука перевыпускается.
func Guarded(cookies *cookie.Manager, guards ...Guard) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, g := range guards {
				nr, err := g(r)
				if err != nil {
					apierrors.WriteError(w, r, err)
					return
				}
				r = nr
			}

			if s := SessionFrom(r.Context()); s != nil && s.Refreshed != nil {
				emitRefreshed(w, cookies, s.Refreshed)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func emitRefreshed(w http.ResponseWriter, cookies *cookie.Manager, pair *models.TokenPair) {
	h := w.Header()
	h.Set(HeaderNewAccessToken, pair.AccessToken)
	h.Add("Access-Control-Expose-Headers", HeaderNewAccessToken)

	if cookies != nil {
		cookies.SetRefresh(w, pair.RefreshToken, pair.RefreshExpiresAt)
	}
}

// Authenticate — guard аутентификации: access-токен из Authorization,
// refresh-токен из куки или поля refreshToken JSON-тела.
func Authenticate(a Authenticator, cookies *cookie.Manager) Guard {
	return func(r *http.Request) (*http.Request, error) {
		creds := models.Credentials{AccessToken: BearerToken(r)}
		if creds.AccessToken != "" {
			creds.RefreshToken = refreshFromRequest(r, cookies)
		}

		s, err := a.Authenticate(r.Context(), creds)
		if err != nil {
			log.From(r.Context()).Debug("auth_rejected", slog.String("reason", err.Error()))
			return nil, err
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, s)
		ctx = log.With(ctx, slog.String("user_id", s.Principal.UserID))
		return r.WithContext(ctx), nil
	}
}

// BearerToken извлекает токен из "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// refreshFromRequest читает refresh-токен из куки, а при её отсутствии —
// из JSON-тела. Тело восстанавливается для последующего хендлера.
func refreshFromRequest(r *http.Request, cookies *cookie.Manager) string {
	if cookies != nil {
		if v := cookies.Refresh(r); v != "" {
			return v
		}
	}

	if r.Body == nil || r.Body == http.NoBody ||
		!strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRefreshBody))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}

	return body.RefreshToken
}
