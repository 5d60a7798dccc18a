package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/tokens"
	"github.com/pribylovaa/bookshelf/mocks"
)

func testCfg() *config.Config {
	return &config.Config{
		Env: config.EnvLocal,
		Auth: config.AuthConfig{
			AccessSecret:    "unit-access-secret",
			RefreshSecret:   "unit-refresh-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			Issuer:          "bookshelf",
			Audience:        []string{"bookshelf-app"},
			BcryptCost:      bcrypt.MinCost,
			HashConcurrency: 2,
		},
		Google: config.GoogleConfig{StateTTL: 10 * time.Minute},
		Limits: config.LimitsConfig{Default: 20, Max: 100},
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	cfg := testCfg()
	iss, err := tokens.NewIssuer(cfg.Auth)
	require.NoError(t, err)

	return New(st, iss, cfg), st, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func testUser(t *testing.T) *models.User {
	t.Helper()
	return &models.User{
		ID:           "u-1",
		Username:     "alice123",
		Email:        "alice@example.com",
		PasswordHash: mustHashPW(t, "Str0ng!Pass"),
		Role:         models.RoleUser,
		UserImage:    models.DefaultUserImage,
	}
}

func ctx() context.Context { return context.Background() }

// validationFields достаёт детали ValidationError.
func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}
