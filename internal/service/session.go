package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/pkg/log"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// Authenticate проверяет учётные данные запроса.
//
// Порядок:
//  1. нет access-токена — ErrNoToken;
//  2. access-токен действителен — сессия без продления;
//  3. иначе нужен refresh-токен: его нет — ErrSessionExpired;
//  4. refresh-токен недействителен/отозван — ErrInvalidSession;
//  5. иначе выпускается новая пара и возвращается в Session.Refreshed.
func (s *Service) Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	const op = "service.session.Authenticate"

	if creds.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	if p, err := s.issuer.ParseAccess(creds.AccessToken); err == nil {
		return &models.Session{Principal: *p}, nil
	}

	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	user, pair, err := s.refreshSession(ctx, creds.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Debug("session_refreshed", slog.String("user_id", user.ID))

	return &models.Session{
		Principal: models.PrincipalOf(user),
		Refreshed: pair,
	}, nil
}

// refreshSession проверяет refresh-токен и версию пользователя
// и выпускает новую пару.
func (s *Service) refreshSession(ctx context.Context, refreshToken string) (*models.User, *models.TokenPair, error) {
	lg := log.From(ctx)

	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		lg.Debug("refresh_rejected", slog.String("reason", err.Error()))
		return nil, nil, ErrInvalidSession
	}

	user, err := s.storage.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_unknown_user", slog.String("user_id", claims.UserID))
			return nil, nil, ErrInvalidSession
		}

		return nil, nil, err
	}

	if user.TokenVersion != claims.TokenVersion {
		lg.Warn("refresh_version_mismatch",
			slog.String("user_id", user.ID),
			slog.Int64("token_version", claims.TokenVersion),
			slog.Int64("current_version", user.TokenVersion),
		)
		return nil, nil, ErrInvalidSession
	}

	pair, err := s.issuer.Issue(user, s.now())
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}
