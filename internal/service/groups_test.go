package service

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

func ownedGroup() *models.ReadingGroup {
	return &models.ReadingGroup{
		ID:      "g-1",
		Name:    "Dune club",
		BookID:  "b-1",
		OwnerID: owner.UserID,
		Members: []string{owner.UserID, "u-member"},
	}
}

func TestCreateGroup_OK(t *testing.T) {
	svc, st, _ := newSvc(t)

	st.EXPECT().BookByID(gomock.Any(), "b-1").Return(ownedBook(), nil)
	st.EXPECT().CreateGroup(gomock.Any(), gomock.Any()).Return(nil)

	g, err := svc.CreateGroup(ctx(), stranger, CreateGroupInput{
		Name:     " Dune club ",
		BookID:   "b-1",
		Schedule: []ScheduleInput{{Day: "Friday", Time: "19:30", Reminder: true}},
	})
	require.NoError(t, err)
	require.Equal(t, "Dune club", g.Name)
	require.Equal(t, stranger.UserID, g.OwnerID)
	require.Equal(t, []string{stranger.UserID}, g.Members)
	require.Equal(t, []models.ScheduleEntry{{Day: "friday", Time: "19:30", Reminder: true}}, g.Schedule)
}

func TestCreateGroup_Validation(t *testing.T) {
	svc, st, _ := newSvc(t)

	_, err := svc.CreateGroup(ctx(), owner, CreateGroupInput{Name: "x"})
	require.Contains(t, validationFields(t, err), "bookId")

	_, err = svc.CreateGroup(ctx(), owner, CreateGroupInput{
		Name:     "x",
		BookID:   "b-1",
		Schedule: []ScheduleInput{{Day: "someday", Time: "25:00"}},
	})
	fields := validationFields(t, err)
	require.Contains(t, fields, "schedule[0].day")
	require.Contains(t, fields, "schedule[0].time")

	st.EXPECT().BookByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)
	_, err = svc.CreateGroup(ctx(), owner, CreateGroupInput{Name: "x", BookID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJoinGroup(t *testing.T) {
	svc, st, _ := newSvc(t)

	joined := ownedGroup()
	joined.Members = append(joined.Members, stranger.UserID)
	st.EXPECT().AddMember(gomock.Any(), "g-1", stranger.UserID).Return(joined, nil)

	g, err := svc.JoinGroup(ctx(), stranger, "g-1")
	require.NoError(t, err)
	require.True(t, g.HasMember(stranger.UserID))

	st.EXPECT().AddMember(gomock.Any(), "missing", stranger.UserID).Return(nil, storage.ErrNotFound)
	_, err = svc.JoinGroup(ctx(), stranger, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveGroup(t *testing.T) {
	t.Run("owner_cannot_leave", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		st.EXPECT().GroupByID(gomock.Any(), "g-1").Return(ownedGroup(), nil)

		_, err := svc.LeaveGroup(ctx(), owner, "g-1")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("non_member_noop", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		st.EXPECT().GroupByID(gomock.Any(), "g-1").Return(ownedGroup(), nil)

		g, err := svc.LeaveGroup(ctx(), stranger, "g-1")
		require.NoError(t, err)
		require.Len(t, g.Members, 2)
	})

	t.Run("member_leaves", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		member := models.Principal{UserID: "u-member", Role: models.RoleUser}
		left := ownedGroup()
		left.Members = []string{owner.UserID}

		st.EXPECT().GroupByID(gomock.Any(), "g-1").Return(ownedGroup(), nil)
		st.EXPECT().RemoveMember(gomock.Any(), "g-1", "u-member").Return(left, nil)

		g, err := svc.LeaveGroup(ctx(), member, "g-1")
		require.NoError(t, err)
		require.False(t, g.HasMember("u-member"))
	})
}

func TestDeleteGroup(t *testing.T) {
	svc, st, _ := newSvc(t)

	st.EXPECT().GroupByID(gomock.Any(), "g-1").Return(ownedGroup(), nil)
	require.ErrorIs(t, svc.DeleteGroup(ctx(), stranger, "g-1"), ErrForbidden)

	st.EXPECT().GroupByID(gomock.Any(), "g-1").Return(ownedGroup(), nil)
	st.EXPECT().DeleteGroup(gomock.Any(), "g-1").Return(nil)
	require.NoError(t, svc.DeleteGroup(ctx(), admin, "g-1"))
}

func TestMyGroups(t *testing.T) {
	svc, st, _ := newSvc(t)

	st.EXPECT().GroupsByMember(gomock.Any(), owner.UserID).Return([]models.ReadingGroup{*ownedGroup()}, nil)

	groups, err := svc.MyGroups(ctx(), owner)
	require.NoError(t, err)
	require.Len(t, groups, 1)
}
