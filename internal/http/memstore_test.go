package http

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// memStore — storage.Storage в памяти для сквозных тестов роутера.
type memStore struct {
	mu     sync.Mutex
	users  map[string]models.User
	books  map[string]models.Book
	groups map[string]models.ReadingGroup
}

var _ storage.Storage = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]models.User{},
		books:  map[string]models.Book{},
		groups: map[string]models.ReadingGroup{},
	}
}

func (s *memStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.users {
		if e.Email == u.Email || e.Username == u.Username || (u.GoogleID != "" && e.GoogleID == u.GoogleID) {
			return storage.ErrAlreadyExists
		}
	}

	s.users[u.ID] = *u
	return nil
}

func (s *memStore) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *memStore) UserByID(_ context.Context, id string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

func (s *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *memStore) UserByGoogleID(_ context.Context, gid string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.GoogleID != "" && u.GoogleID == gid })
}

func (s *memStore) updateUser(id string, fn func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	fn(&u)
	s.users[id] = u
	return &u, nil
}

func (s *memStore) IncrementTokenVersion(_ context.Context, id string) (int64, error) {
	u, err := s.updateUser(id, func(u *models.User) { u.TokenVersion++ })
	if err != nil {
		return 0, err
	}

	return u.TokenVersion, nil
}

func (s *memStore) SetCurrentBook(_ context.Context, userID, bookID string) (*models.User, error) {
	return s.updateUser(userID, func(u *models.User) { u.CurrentBook = bookID })
}

func (s *memStore) SetUserImage(_ context.Context, userID, image string) (*models.User, error) {
	return s.updateUser(userID, func(u *models.User) { u.UserImage = image })
}

func (s *memStore) CreateBook(_ context.Context, b *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books[b.ID] = *b
	return nil
}

func (s *memStore) BookByID(_ context.Context, id string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &b, nil
}

func (s *memStore) ListBooks(_ context.Context, p models.ListParams) (*models.BookPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.PageToken != "" {
		return nil, storage.ErrInvalidCursor
	}

	items := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		items = append(items, b)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	return &models.BookPage{Items: items}, nil
}

func (s *memStore) updateBook(id string, fn func(*models.Book)) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	fn(&b)
	s.books[id] = b
	return &b, nil
}

func (s *memStore) UpdateBook(_ context.Context, id string, upd models.BookUpdate) (*models.Book, error) {
	return s.updateBook(id, func(b *models.Book) {
		if upd.Title != nil {
			b.Title = *upd.Title
		}
		if upd.Author != nil {
			b.Author = *upd.Author
		}
		if upd.Pages != nil {
			b.Pages = *upd.Pages
		}
	})
}

func (s *memStore) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return storage.ErrNotFound
	}

	delete(s.books, id)
	return nil
}

func (s *memStore) AddReadingPartner(_ context.Context, bookID, partnerID string) (*models.Book, error) {
	return s.updateBook(bookID, func(b *models.Book) {
		if !slices.Contains(b.ReadingPartners, partnerID) {
			b.ReadingPartners = append(b.ReadingPartners, partnerID)
		}
	})
}

func (s *memStore) UpdateProgress(_ context.Context, bookID string, progress float64) (*models.Book, error) {
	return s.updateBook(bookID, func(b *models.Book) { b.Progress = progress })
}

func (s *memStore) CreateGroup(_ context.Context, g *models.ReadingGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[g.ID] = *g
	return nil
}

func (s *memStore) GroupByID(_ context.Context, id string) (*models.ReadingGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &g, nil
}

func (s *memStore) GroupsByMember(_ context.Context, userID string) ([]models.ReadingGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ReadingGroup
	for _, g := range s.groups {
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}

	return out, nil
}

func (s *memStore) updateGroup(id string, fn func(*models.ReadingGroup)) (*models.ReadingGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	fn(&g)
	s.groups[id] = g
	return &g, nil
}

func (s *memStore) AddMember(_ context.Context, groupID, userID string) (*models.ReadingGroup, error) {
	return s.updateGroup(groupID, func(g *models.ReadingGroup) {
		if !g.HasMember(userID) {
			g.Members = append(g.Members, userID)
		}
	})
}

func (s *memStore) RemoveMember(_ context.Context, groupID, userID string) (*models.ReadingGroup, error) {
	return s.updateGroup(groupID, func(g *models.ReadingGroup) {
		g.Members = slices.DeleteFunc(slices.Clone(g.Members), func(m string) bool { return m == userID })
	})
}

func (s *memStore) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return storage.ErrNotFound
	}

	delete(s.groups, id)
	return nil
}

func (s *memStore) Ping(context.Context) error  { return nil }
func (s *memStore) Close(context.Context) error { return nil }

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users)
}
