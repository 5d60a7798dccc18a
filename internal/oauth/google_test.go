package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/pribylovaa/bookshelf/internal/config"
)

func testCfg() config.GoogleConfig {
	return config.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:3000/api/v1/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
	}
}

// fakeGoogle — тестовый сервер с эндпоинтами token и userinfo.
func fakeGoogle(t *testing.T, userInfoStatus int, info map[string]any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userInfoStatus)
		_ = json.NewEncoder(w).Encode(info)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newTestGoogle(srv *httptest.Server) *Google {
	return newGoogle(testCfg(), oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}, srv.URL+"/userinfo")
}

func TestNewGoogle_UsesGoogleEndpoint(t *testing.T) {
	t.Parallel()

	g := NewGoogle(testCfg())
	require.Equal(t, google.Endpoint, g.oauth.Endpoint)
	require.Equal(t, googleUserInfoURL, g.userInfoURL)

	u, err := url.Parse(g.AuthCodeURL("st"))
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", u.Host)
	require.Equal(t, "st", u.Query().Get("state"))
}

func TestAuthCodeURL_ContainsStateAndScopes(t *testing.T) {
	t.Parallel()

	g := NewGoogle(testCfg())
	raw := g.AuthCodeURL("state-123")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	require.Equal(t, "state-123", q.Get("state"))
	require.Equal(t, "client-id", q.Get("client_id"))
	require.Equal(t, "openid email profile", q.Get("scope"))
	require.Equal(t, testCfg().CallbackURL, q.Get("redirect_uri"))
}

func TestExchange_OK(t *testing.T) {
	t.Parallel()

	srv := fakeGoogle(t, http.StatusOK, map[string]any{
		"sub":            "g-42",
		"name":           "Jane Reader",
		"email":          "jane@example.com",
		"email_verified": true,
		"picture":        "https://lh3.example.com/photo.jpg",
	})

	p, err := newTestGoogle(srv).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "g-42", p.ID)
	require.Equal(t, "Jane Reader", p.DisplayName)
	require.Equal(t, "jane@example.com", p.Email)
	require.True(t, p.EmailVerified)
}

func TestExchange_Errors(t *testing.T) {
	t.Parallel()

	srv := fakeGoogle(t, http.StatusOK, map[string]any{"name": "no sub"})
	g := newTestGoogle(srv)

	_, err := g.Exchange(context.Background(), "")
	require.ErrorIs(t, err, ErrExchange)

	_, err = g.Exchange(context.Background(), "bad-code")
	require.ErrorIs(t, err, ErrExchange)

	_, err = g.Exchange(context.Background(), "good-code")
	require.ErrorIs(t, err, ErrExchange)

	failing := fakeGoogle(t, http.StatusInternalServerError, map[string]any{})
	_, err = newTestGoogle(failing).Exchange(context.Background(), "good-code")
	require.ErrorIs(t, err, ErrExchange)
}
