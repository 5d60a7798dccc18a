package handlers

import (
	"net/http"
	"net/url"

	"github.com/pribylovaa/bookshelf/internal/http/dto"
	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
	"github.com/pribylovaa/bookshelf/internal/http/middleware"
	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/service"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in dto.RegisterRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), in.ToInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.Tokens)
	writeJSON(w, http.StatusCreated, dto.AuthFromResult("User registered successfully", res))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in dto.LoginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.Tokens)
	writeJSON(w, http.StatusOK, dto.AuthFromResult("Login successful", res))
}

// Verify сообщает, действителен ли access-токен из Authorization.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	valid := h.svc.Verify(r.Context(), middleware.BearerToken(r))
	writeJSON(w, http.StatusOK, dto.VerifyResponse{Valid: valid})
}

// Refresh принимает refresh-токен из тела или из куки.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in dto.RefreshRequest
	if err := decodeOptional(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	token := in.RefreshToken
	if token == "" {
		token = h.cookies.Refresh(r)
	}

	res, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.Tokens)
	writeJSON(w, http.StatusOK, dto.TokensResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.svc.Logout(r.Context(), p.UserID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully", Success: true})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	u, err := h.svc.Me(r.Context(), p.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromModel(u))
}

// GoogleStart перенаправляет на страницу согласия Google.
func (h *Handlers) GoogleStart(w http.ResponseWriter, r *http.Request) {
	target, err := h.svc.GoogleAuthURL(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// GoogleCallback завершает вход и уводит клиента в приложение
// с токенами в query-параметрах.
func (h *Handlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("error") != "" {
		apierrors.WriteError(w, r, service.ErrOAuthFailed)
		return
	}

	if q.Get("code") == "" {
		apierrors.WriteError(w, r, invalid("code", "is required"))
		return
	}

	res, err := h.svc.GoogleCallback(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.Tokens)

	if h.redirectURL == "" {
		writeJSON(w, http.StatusOK, dto.AuthFromResult("Login successful", res))
		return
	}

	target, err := withTokens(h.redirectURL, res.Tokens)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

func withTokens(base string, pair *models.TokenPair) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("accessToken", pair.AccessToken)
	q.Set("refreshToken", pair.RefreshToken)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, pair *models.TokenPair) {
	h.cookies.SetRefresh(w, pair.RefreshToken, pair.RefreshExpiresAt)
}

// Health — совместимый с мобильным клиентом health-check.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "OK"})
}
