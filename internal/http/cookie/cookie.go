// Package cookie управляет HttpOnly-кукой с refresh-токеном.
package cookie

import (
	"net/http"
	"time"

	"github.com/pribylovaa/bookshelf/internal/config"
)

// Manager ставит, читает и очищает refresh-куку по настройкам auth.
type Manager struct {
	name     string
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
}

// NewManager возвращает менеджер для настроек cfg.
func NewManager(cfg config.AuthConfig) *Manager {
	name := cfg.RefreshCookie
	if name == "" {
		name = "refreshToken"
	}

	path := cfg.CookiePath
	if path == "" {
		path = "/"
	}

	return &Manager{
		name:     name,
		path:     path,
		domain:   cfg.CookieDomain,
		secure:   cfg.CookieSecure,
		sameSite: parseSameSite(cfg.CookieSameSite),
	}
}

// Name — имя куки.
func (m *Manager) Name() string { return m.name }

// SetRefresh ставит refresh-токен со сроком жизни до expires.
func (m *Manager) SetRefresh(w http.ResponseWriter, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, m.cookie(token, maxAge, expires))
}

// Refresh возвращает refresh-токен из куки запроса или "".
func (m *Manager) Refresh(r *http.Request) string {
	c, err := r.Cookie(m.name)
	if err != nil {
		return ""
	}

	return c.Value
}

// Clear удаляет куку.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1, time.Unix(0, 0)))
}

func (m *Manager) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	}
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
