package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на пакет.
// Без GO_TEST_INTEGRATION выполняются только unit-тесты.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("DATABASE_URL", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// mustNewMongo подключается к отдельной тестовой БД и регистрирует её удаление.
func mustNewMongo(t *testing.T) *Mongo {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	cfg := &config.Config{
		DB:     config.DBConfig{URL: os.Getenv("DATABASE_URL") + "/bookshelf_test_" + uuid.NewString()},
		Limits: config.LimitsConfig{Default: 2, Max: 100},
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

func newUser(name string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.NewString(),
		Username:     name,
		Email:        name + "@Example.com",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleUser,
		UserImage:    models.DefaultUserImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newBook(title, owner string, createdAt time.Time) *models.Book {
	return &models.Book{
		ID:          uuid.NewString(),
		Title:       title,
		Author:      "Author",
		Genre:       []string{"fiction"},
		Description: "desc",
		CoverImage:  models.DefaultCoverImage,
		AddedBy:     owner,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestEncodeDecodeCursor(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.NewString()

	gotT, gotID, err := decodeCursor(encodeCursor(now, id))
	require.NoError(t, err)
	require.True(t, gotT.Equal(now))
	require.Equal(t, id, gotID)

	_, _, err = decodeCursor("%%%")
	require.Error(t, err)

	_, _, err = decodeCursor(encodeCursor(now, ""))
	require.Error(t, err)
}

func TestLimitOrDefault(t *testing.T) {
	cfg := &config.Config{Limits: config.LimitsConfig{Default: 10, Max: 50}}

	tests := []struct {
		name string
		in   int32
		want int64
	}{
		{"zero->default", 0, 10},
		{"negative->default", -5, 10},
		{"less-than-max", 25, 25},
		{"more-than-max->cap", 200, 50},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, limitOrDefault(cfg, tt.in), tt.name)
	}
}

func TestDatabaseFromURI(t *testing.T) {
	require.Equal(t, "books", databaseFromURI("mongodb://localhost:27017/books"))
	require.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017"))
	require.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017/"))
}

func TestUsers_CreateAndLookup(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := newUser("alice123")
	require.NoError(t, m.CreateUser(ctx, u))

	byEmail, err := m.UserByEmail(ctx, "ALICE123@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, "alice123@example.com", byEmail.Email)

	byID, err := m.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, byID.Role)
	require.Equal(t, int64(0), byID.TokenVersion)

	_, err = m.UserByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = m.UserByGoogleID(ctx, "")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUsers_UniqueConstraints(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	require.NoError(t, m.CreateUser(ctx, newUser("bob_1")))

	sameEmail := newUser("bob_2")
	sameEmail.Email = "bob_1@example.com"
	require.ErrorIs(t, m.CreateUser(ctx, sameEmail), storage.ErrAlreadyExists)

	sameName := newUser("bob_1")
	sameName.Email = "other@example.com"
	require.ErrorIs(t, m.CreateUser(ctx, sameName), storage.ErrAlreadyExists)

	// Несколько пользователей без googleId допустимы (разреженный индекс).
	require.NoError(t, m.CreateUser(ctx, newUser("carol")))

	g1 := newUser("google_1")
	g1.GoogleID = "g-1"
	require.NoError(t, m.CreateUser(ctx, g1))

	g2 := newUser("google_2")
	g2.GoogleID = "g-1"
	require.ErrorIs(t, m.CreateUser(ctx, g2), storage.ErrAlreadyExists)

	found, err := m.UserByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	require.Equal(t, g1.ID, found.ID)
}

func TestUsers_IncrementTokenVersion(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := newUser("dave")
	require.NoError(t, m.CreateUser(ctx, u))

	v, err := m.IncrementTokenVersion(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	v, err = m.IncrementTokenVersion(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), v)

	_, err = m.IncrementTokenVersion(ctx, uuid.NewString())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUsers_SetCurrentBookAndImage(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := newUser("erin")
	require.NoError(t, m.CreateUser(ctx, u))

	out, err := m.SetCurrentBook(ctx, u.ID, "book-1")
	require.NoError(t, err)
	require.Equal(t, "book-1", out.CurrentBook)

	out, err = m.SetUserImage(ctx, u.ID, "http://cdn.local/a.png")
	require.NoError(t, err)
	require.Equal(t, "http://cdn.local/a.png", out.UserImage)

	_, err = m.SetCurrentBook(ctx, uuid.NewString(), "book-1")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBooks_CRUD(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	b := newBook("Dune", "owner-1", time.Now())
	require.NoError(t, m.CreateBook(ctx, b))

	got, err := m.BookByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "Dune", got.Title)
	require.Empty(t, got.ReadingPartners)

	title := "Dune Messiah"
	pages := int32(256)
	upd, err := m.UpdateBook(ctx, b.ID, models.BookUpdate{Title: &title, Pages: &pages})
	require.NoError(t, err)
	require.Equal(t, title, upd.Title)
	require.Equal(t, pages, upd.Pages)
	require.Equal(t, "Author", upd.Author)

	same, err := m.UpdateBook(ctx, b.ID, models.BookUpdate{})
	require.NoError(t, err)
	require.Equal(t, title, same.Title)

	withPartner, err := m.AddReadingPartner(ctx, b.ID, "p-1")
	require.NoError(t, err)
	withPartner, err = m.AddReadingPartner(ctx, b.ID, "p-1")
	require.NoError(t, err)
	require.Equal(t, []string{"p-1"}, withPartner.ReadingPartners)

	progressed, err := m.UpdateProgress(ctx, b.ID, 42)
	require.NoError(t, err)
	require.Equal(t, float64(42), progressed.Progress)

	require.NoError(t, m.DeleteBook(ctx, b.ID))
	require.ErrorIs(t, m.DeleteBook(ctx, b.ID), storage.ErrNotFound)

	_, err = m.BookByID(ctx, b.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = m.UpdateProgress(ctx, b.ID, 1)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBooks_ListPaginationAndOrder(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		b := newBook(fmt.Sprintf("book-%d", i), "owner", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, m.CreateBook(ctx, b))
		ids = append(ids, b.ID)
	}

	var seen []string
	token := ""
	for {
		page, err := m.ListBooks(ctx, models.ListParams{PageToken: token})
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), 2)

		for _, b := range page.Items {
			seen = append(seen, b.ID)
		}

		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	// Новые первыми.
	require.Equal(t, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}, seen)

	_, err := m.ListBooks(ctx, models.ListParams{PageToken: "not-a-cursor"})
	require.ErrorIs(t, err, storage.ErrInvalidCursor)
}

func TestGroups_Membership(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	now := time.Now()
	g := &models.ReadingGroup{
		ID:        uuid.NewString(),
		Name:      "Sci-fi club",
		BookID:    "book-1",
		OwnerID:   "u-1",
		Members:   []string{"u-1"},
		Schedule:  []models.ScheduleEntry{{Day: "monday", Time: "19:00", Reminder: true}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, m.CreateGroup(ctx, g))

	joined, err := m.AddMember(ctx, g.ID, "u-2")
	require.NoError(t, err)
	joined, err = m.AddMember(ctx, g.ID, "u-2")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"u-1", "u-2"}, joined.Members)

	mine, err := m.GroupsByMember(ctx, "u-2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "monday", mine[0].Schedule[0].Day)

	left, err := m.RemoveMember(ctx, g.ID, "u-2")
	require.NoError(t, err)
	require.Equal(t, []string{"u-1"}, left.Members)

	none, err := m.GroupsByMember(ctx, "u-2")
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, m.DeleteGroup(ctx, g.ID))
	_, err = m.GroupByID(ctx, g.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, m.DeleteGroup(ctx, g.ID), storage.ErrNotFound)
}

func TestEnsureIndexes_Created(t *testing.T) {
	m := mustNewMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	cur, err := m.users.Indexes().List(ctx)
	require.NoError(t, err)

	var idx []struct {
		Name string `bson:"name"`
	}
	require.NoError(t, cur.All(ctx, &idx))

	names := map[string]bool{}
	for _, i := range idx {
		names[i.Name] = true
	}

	require.True(t, names["uniq_email"])
	require.True(t, names["uniq_username"])
	require.True(t, names["uniq_google_id"])
}
