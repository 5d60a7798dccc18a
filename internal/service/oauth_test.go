package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/storage"
	"github.com/pribylovaa/bookshelf/mocks"
)

func googleProfile() *models.GoogleProfile {
	return &models.GoogleProfile{
		ID:            "109876543210",
		DisplayName:   "Jane Doe",
		Email:         "Jane@Gmail.com",
		EmailVerified: true,
		Picture:       "https://lh3.googleusercontent.com/a/pic",
	}
}

func TestGoogle_Unavailable(t *testing.T) {
	svc, _, _ := newSvc(t)

	require.False(t, svc.GoogleEnabled())

	_, err := svc.GoogleAuthURL(ctx())
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.GoogleCallback(ctx(), "s", "c")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGoogleAuthURL_SavesState(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	prov := mocks.NewMockProvider(ctrl)
	states := mocks.NewMockStateStore(ctrl)
	svc.SetGoogle(prov, states)

	var saved string
	states.EXPECT().Save(gomock.Any(), gomock.Any(), 10*time.Minute).
		DoAndReturn(func(_ context.Context, state string, _ time.Duration) error {
			saved = state
			return nil
		})
	prov.EXPECT().AuthCodeURL(gomock.Any()).DoAndReturn(func(state string) string {
		return "https://accounts.example/auth?state=" + state
	})

	url, err := svc.GoogleAuthURL(ctx())
	require.NoError(t, err)
	require.NotEmpty(t, saved)
	require.True(t, strings.HasSuffix(url, "state="+saved))
}

func TestGoogleCallback_UnknownState(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	states := mocks.NewMockStateStore(ctrl)
	svc.SetGoogle(mocks.NewMockProvider(ctrl), states)

	states.EXPECT().Consume(gomock.Any(), "forged").Return(false, nil)

	_, err := svc.GoogleCallback(ctx(), "forged", "code")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Contains(t, validationFields(t, err), "state")
}

func TestGoogleCallback_ExchangeFails(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	prov := mocks.NewMockProvider(ctrl)
	states := mocks.NewMockStateStore(ctrl)
	svc.SetGoogle(prov, states)

	states.EXPECT().Consume(gomock.Any(), "st").Return(true, nil)
	prov.EXPECT().Exchange(gomock.Any(), "bad").Return(nil, errors.New("invalid_grant"))

	_, err := svc.GoogleCallback(ctx(), "st", "bad")
	require.ErrorIs(t, err, ErrOAuthFailed)
}

func TestGoogleCallback_CreatesUserAndIssuesTokens(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	prov := mocks.NewMockProvider(ctrl)
	states := mocks.NewMockStateStore(ctrl)
	svc.SetGoogle(prov, states)

	states.EXPECT().Consume(gomock.Any(), "st").Return(true, nil)
	prov.EXPECT().Exchange(gomock.Any(), "code").Return(googleProfile(), nil)
	st.EXPECT().UserByGoogleID(gomock.Any(), "109876543210").Return(nil, storage.ErrNotFound)
	st.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)

	res, err := svc.GoogleCallback(ctx(), "st", "code")
	require.NoError(t, err)
	require.Equal(t, "jane@gmail.com", res.User.Email)
	require.Equal(t, "109876543210", res.User.GoogleID)
	require.Equal(t, "Jane_Doe_543210", res.User.Username)
	require.Equal(t, "https://lh3.googleusercontent.com/a/pic", res.User.UserImage)
	require.False(t, res.User.HasPassword())
	require.NotEmpty(t, res.Tokens.AccessToken)
}

func TestFindOrCreateGoogleUser_Existing(t *testing.T) {
	svc, st, _ := newSvc(t)
	existing := &models.User{ID: "u-g", GoogleID: "109876543210", Role: models.RoleUser}

	st.EXPECT().UserByGoogleID(gomock.Any(), "109876543210").Return(existing, nil).Times(2)

	a, err := svc.FindOrCreateGoogleUser(ctx(), googleProfile())
	require.NoError(t, err)
	b, err := svc.FindOrCreateGoogleUser(ctx(), googleProfile())
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)
}

func TestFindOrCreateGoogleUser_ConcurrentFirstLogin(t *testing.T) {
	svc, st, _ := newSvc(t)
	winner := &models.User{ID: "u-winner", GoogleID: "109876543210", Role: models.RoleUser}

	gomock.InOrder(
		st.EXPECT().UserByGoogleID(gomock.Any(), "109876543210").Return(nil, storage.ErrNotFound),
		st.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists),
		st.EXPECT().UserByGoogleID(gomock.Any(), "109876543210").Return(winner, nil),
	)

	u, err := svc.FindOrCreateGoogleUser(ctx(), googleProfile())
	require.NoError(t, err)
	require.Equal(t, "u-winner", u.ID)
}

func TestFindOrCreateGoogleUser_EmailTakenByLocalAccount(t *testing.T) {
	svc, st, _ := newSvc(t)

	gomock.InOrder(
		st.EXPECT().UserByGoogleID(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound),
		st.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists),
		st.EXPECT().UserByGoogleID(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound),
	)

	_, err := svc.FindOrCreateGoogleUser(ctx(), googleProfile())
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestFindOrCreateGoogleUser_InvalidProfile(t *testing.T) {
	svc, _, _ := newSvc(t)

	_, err := svc.FindOrCreateGoogleUser(ctx(), nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	p := googleProfile()
	p.Email = ""
	_, err = svc.FindOrCreateGoogleUser(ctx(), p)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUsernameFromProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, display, id, want string
	}{
		{"spaces", "Jane Doe", "109876543210", "Jane_Doe_543210"},
		{"punctuation", "  j.r.r. tolkien! ", "42", "j_r_r__tolkien_42"},
		{"non_ascii", "Иван", "abcdefgh", "reader_cdefgh"},
		{"empty", "", "777", "reader_777"},
		{"long", strings.Repeat("a", 40), "123456", strings.Repeat("a", 23) + "_123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := usernameFromProfile(tt.display, tt.id)
			require.Equal(t, tt.want, got)
			require.LessOrEqual(t, len(got), 30)
			require.Regexp(t, usernameRe, got)
		})
	}
}
