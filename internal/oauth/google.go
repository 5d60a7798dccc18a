// Package oauth реализует вход через Google (authorization code flow).
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/models"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	// maxUserInfoBytes ограничивает тело ответа userinfo.
	maxUserInfoBytes = 1 << 20
)

// ErrExchange — Google отклонил код или не вернул профиль.
var ErrExchange = errors.New("oauth exchange failed")

// Provider — внешний провайдер идентичности.
type Provider interface {
	// AuthCodeURL строит URL согласия с переданным state.
	AuthCodeURL(state string) string
	// Exchange обменивает код на токен и загружает профиль пользователя.
	Exchange(ctx context.Context, code string) (*models.GoogleProfile, error)
}

// Google — Provider поверх golang.org/x/oauth2.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
}

var _ Provider = (*Google)(nil)

// NewGoogle создаёт провайдера с эндпоинтами Google.
func NewGoogle(cfg config.GoogleConfig) *Google {
	return newGoogle(cfg, google.Endpoint, googleUserInfoURL)
}

func newGoogle(cfg config.GoogleConfig, endpoint oauth2.Endpoint, userInfoURL string) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type userInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

func (g *Google) Exchange(ctx context.Context, code string) (*models.GoogleProfile, error) {
	const op = "oauth.Google.Exchange"

	if code == "" {
		return nil, fmt.Errorf("%s: empty code: %w", op, ErrExchange)
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: userinfo: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: userinfo status %d: %w", op, resp.StatusCode, ErrExchange)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("%s: decode userinfo: %w", op, err)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("%s: userinfo without sub: %w", op, ErrExchange)
	}

	return &models.GoogleProfile{
		ID:            info.Sub,
		DisplayName:   info.Name,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Picture:       info.Picture,
	}, nil
}
