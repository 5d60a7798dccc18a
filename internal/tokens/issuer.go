// Package tokens выпускает и проверяет пары JWT (access + refresh).
//
// Access и refresh подписываются HS256 разными секретами, поэтому токен
// одного вида никогда не проходит проверку как токен другого вида.
// Refresh-токен несёт версию (tv), сверяемую с User.TokenVersion:
// увеличение версии отзывает все ранее выданные refresh-токены.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/models"
)

var (
	// ErrConfiguration — секреты не заданы или совпадают.
	ErrConfiguration = errors.New("token issuer misconfigured")
	// ErrInvalidToken — подпись, формат или обязательные claims не прошли проверку.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — токен корректен, но срок его действия истёк.
	ErrTokenExpired = errors.New("token expired")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type accessClaims struct {
	UserID   string `json:"uid"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID       string `json:"uid"`
	TokenVersion int64  `json:"tv"`
	Type         string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims — проверенное содержимое refresh-токена.
type RefreshClaims struct {
	UserID       string
	TokenVersion int64
	ExpiresAt    time.Time
}

// Issuer выпускает и проверяет токены. Безопасен для конкурентного использования.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      []string
	now           func() time.Time
}

// NewIssuer проверяет секреты и возвращает Issuer.
// Пустой или совпадающий секрет — ErrConfiguration.
func NewIssuer(cfg config.AuthConfig) (*Issuer, error) {
	const op = "tokens.NewIssuer"

	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("%s: access secret is empty: %w", op, ErrConfiguration)
	}

	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%s: refresh secret is empty: %w", op, ErrConfiguration)
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%s: access and refresh secrets must differ: %w", op, ErrConfiguration)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttls must be > 0: %w", op, ErrConfiguration)
	}

	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		now:           time.Now,
	}, nil
}

// Issue выпускает пару токенов для пользователя на момент now.
// Каждый токен получает уникальный jti, так что два вызова в одну
// секунду всё равно дают разные строки.
func (i *Issuer) Issue(user *models.User, now time.Time) (*models.TokenPair, error) {
	const op = "tokens.Issue"

	now = now.UTC()
	accessExp := now.Add(i.accessTTL)
	refreshExp := now.Add(i.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID:           user.ID,
		Role:             string(user.Role),
		Username:         user.Username,
		Email:            user.Email,
		Type:             typeAccess,
		RegisteredClaims: i.registered(user.ID, now, accessExp),
	})

	accessStr, err := access.SignedString(i.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("%s: sign access: %w", op, err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		UserID:           user.ID,
		TokenVersion:     user.TokenVersion,
		Type:             typeRefresh,
		RegisteredClaims: i.registered(user.ID, now, refreshExp),
	})

	refreshStr, err := refresh.SignedString(i.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%s: sign refresh: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      accessStr,
		RefreshToken:     refreshStr,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) registered(subject string, now, exp time.Time) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	if len(i.audience) > 0 {
		rc.Audience = jwt.ClaimStrings(i.audience)
	}

	return rc
}

// ParseAccess проверяет access-токен без допуска по времени.
func (i *Issuer) ParseAccess(token string) (*models.Principal, error) {
	const op = "tokens.ParseAccess"

	var claims accessClaims
	if err := i.parse(token, &claims, i.accessSecret); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	role := models.Role(claims.Role)
	if claims.Type != typeAccess || claims.UserID == "" || !role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &models.Principal{
		UserID:   claims.UserID,
		Role:     role,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

// ParseRefresh проверяет refresh-токен. Сверку версии выполняет вызывающий.
func (i *Issuer) ParseRefresh(token string) (*RefreshClaims, error) {
	const op = "tokens.ParseRefresh"

	var claims refreshClaims
	if err := i.parse(token, &claims, i.refreshSecret); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Type != typeRefresh || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &RefreshClaims{
		UserID:       claims.UserID,
		TokenVersion: claims.TokenVersion,
		ExpiresAt:    claims.ExpiresAt.Time.UTC(),
	}, nil
}

func (i *Issuer) parse(token string, claims jwt.Claims, secret []byte) error {
	if token == "" {
		return ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	}

	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	if len(i.audience) > 0 {
		opts = append(opts, jwt.WithAudience(i.audience...))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}

		return ErrInvalidToken
	}

	return nil
}
