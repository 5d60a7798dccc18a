package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/pkg/log"
	"github.com/pribylovaa/bookshelf/internal/pkg/redact"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// GoogleAuthURL создаёт одноразовый state и возвращает URL согласия Google.
func (s *Service) GoogleAuthURL(ctx context.Context) (string, error) {
	const op = "service.oauth.GoogleAuthURL"

	if !s.GoogleEnabled() {
		return "", fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	if err := s.states.Save(ctx, state, s.cfg.Google.StateTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.google.AuthCodeURL(state), nil
}

// GoogleCallback завершает вход: проверяет state, обменивает код,
// находит или создаёт пользователя и выпускает пару токенов.
func (s *Service) GoogleCallback(ctx context.Context, state, code string) (*models.AuthResult, error) {
	const op = "service.oauth.GoogleCallback"

	if !s.GoogleEnabled() {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, invalidField("state", "is unknown or expired"))
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		log.From(ctx).Warn("google_exchange_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrOAuthFailed)
	}

	user, err := s.FindOrCreateGoogleUser(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuer.Issue(user, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AuthResult{User: user, Tokens: pair}, nil
}

// FindOrCreateGoogleUser возвращает пользователя по googleId, создавая его
// при первом входе. Повторный вызов с тем же профилем возвращает того же
// пользователя; гонку двух первых входов разрешает уникальный индекс.
func (s *Service) FindOrCreateGoogleUser(ctx context.Context, p *models.GoogleProfile) (*models.User, error) {
	const op = "service.oauth.FindOrCreateGoogleUser"

	if p == nil || strings.TrimSpace(p.ID) == "" {
		return nil, fmt.Errorf("%s: %w", op, invalidField("googleId", "is required"))
	}

	email := normalizeEmail(p.Email)
	if email == "" {
		return nil, fmt.Errorf("%s: %w", op, invalidField("email", "google profile has no email address"))
	}

	user, err := s.storage.UserByGoogleID(ctx, p.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	image := p.Picture
	if image == "" {
		image = models.DefaultUserImage
	}

	now := s.now()
	user = &models.User{
		ID:        uuid.NewString(),
		Username:  usernameFromProfile(p.DisplayName, p.ID),
		Email:     email,
		Role:      models.RoleUser,
		UserImage: image,
		GoogleID:  p.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		// Параллельный первый вход уже создал пользователя.
		existing, getErr := s.storage.UserByGoogleID(ctx, p.ID)
		if getErr == nil {
			return existing, nil
		}

		// Email или username заняты локальным аккаунтом.
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}

	log.From(ctx).Info("google_user_created",
		slog.String("user_id", user.ID),
		slog.String("email", redact.Email(email)),
	)

	return user, nil
}

// usernameFromProfile строит username из отображаемого имени:
// только буквы/цифры/подчёркивание, с хвостом googleId для уникальности.
func usernameFromProfile(displayName, googleID string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(displayName) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_' || r == '-' || r == '.':
			b.WriteRune('_')
		}
	}

	base := strings.Trim(b.String(), "_")
	if base == "" {
		base = "reader"
	}

	suffix := googleID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}

	// 30 — предел длины username.
	if limit := 30 - len(suffix) - 1; len(base) > limit {
		base = base[:limit]
	}

	return base + "_" + suffix
}
