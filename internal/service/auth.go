package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/pkg/log"
	"github.com/pribylovaa/bookshelf/internal/pkg/redact"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Username  string      `validate:"required,username"`
	Email     string      `validate:"required,email"`
	Password  string      `validate:"required,password"`
	Role      models.Role `validate:"omitempty,oneof=USER ADMIN"`
	UserImage string      `validate:"omitempty,url"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.UserImage = strings.TrimSpace(in.UserImage)
	in.Role = models.Role(strings.ToUpper(strings.TrimSpace(string(in.Role))))
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Register создаёт учётную запись и сразу выпускает пару токенов.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Role == "" {
		in.Role = models.RoleUser
	}

	if in.UserImage == "" {
		in.UserImage = models.DefaultUserImage
	}

	_, err := s.storage.UserByEmail(ctx, in.Email)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		UserImage:    in.UserImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuer.Issue(user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("email", redact.Email(user.Email)),
		slog.String("role", string(user.Role)),
	)

	return &models.AuthResult{User: user, Tokens: pair}, nil
}

// Login выполняет вход по email и паролю.
// Неизвестный email, аккаунт без пароля и неверный пароль неразличимы.
func (s *Service) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)
	email = normalizeEmail(email)

	if email == "" || password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.CompareDummy(ctx, password)
			lg.Info("login_failed", slog.String("email", redact.Email(email)))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.HasPassword() {
		s.hasher.CompareDummy(ctx, password)
		lg.Info("login_failed", slog.String("email", redact.Email(email)))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		lg.Info("login_failed", slog.String("email", redact.Email(email)))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issuer.Issue(user, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_logged_in", slog.String("user_id", user.ID))

	return &models.AuthResult{User: user, Tokens: pair}, nil
}

// Refresh выпускает новую пару по refresh-токену.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	const op = "service.auth.Refresh"

	if refreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	user, pair, err := s.refreshSession(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AuthResult{User: user, Tokens: pair}, nil
}

// Logout отзывает все refresh-токены пользователя увеличением версии.
// Уже выданные access-токены доживают свой короткий срок.
func (s *Service) Logout(ctx context.Context, userID string) error {
	const op = "service.auth.Logout"

	v, err := s.storage.IncrementTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_logged_out",
		slog.String("user_id", userID),
		slog.Int64("token_version", v),
	)

	return nil
}

// Verify сообщает, действителен ли access-токен прямо сейчас.
func (s *Service) Verify(_ context.Context, accessToken string) bool {
	_, err := s.issuer.ParseAccess(accessToken)
	return err == nil
}

// Me возвращает учётную запись текущего пользователя.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	const op = "service.auth.Me"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
