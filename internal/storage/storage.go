// Package storage описывает контракты хранилищ bookshelf и их ошибки.
// Реализации: mongo (пользователи, книги, группы) и minio (аватары).
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/bookshelf/internal/models"
)

var (
	// ErrNotFound — запись отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушена уникальность (email, username, googleId).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCursor — некорректный page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// UserStorage — хранилище учётных записей.
type UserStorage interface {
	// CreateUser сохраняет нового пользователя.
	// При конфликте уникальных полей — ErrAlreadyExists.
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	// UserByEmail ищет по email в нижнем регистре.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	// IncrementTokenVersion атомарно увеличивает tokenVersion и возвращает новое значение.
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
	SetCurrentBook(ctx context.Context, userID, bookID string) (*models.User, error)
	SetUserImage(ctx context.Context, userID, image string) (*models.User, error)
}

// BookStorage — хранилище книг.
type BookStorage interface {
	CreateBook(ctx context.Context, book *models.Book) error
	BookByID(ctx context.Context, id string) (*models.Book, error)
	// ListBooks возвращает страницу книг, новые первыми.
	// При некорректном page_token — ErrInvalidCursor.
	ListBooks(ctx context.Context, params models.ListParams) (*models.BookPage, error)
	UpdateBook(ctx context.Context, id string, upd models.BookUpdate) (*models.Book, error)
	DeleteBook(ctx context.Context, id string) error
	// AddReadingPartner добавляет партнёра без дублей.
	AddReadingPartner(ctx context.Context, bookID, partnerID string) (*models.Book, error)
	UpdateProgress(ctx context.Context, bookID string, progress float64) (*models.Book, error)
}

// GroupStorage — хранилище групп чтения.
type GroupStorage interface {
	CreateGroup(ctx context.Context, group *models.ReadingGroup) error
	GroupByID(ctx context.Context, id string) (*models.ReadingGroup, error)
	GroupsByMember(ctx context.Context, userID string) ([]models.ReadingGroup, error)
	AddMember(ctx context.Context, groupID, userID string) (*models.ReadingGroup, error)
	RemoveMember(ctx context.Context, groupID, userID string) (*models.ReadingGroup, error)
	DeleteGroup(ctx context.Context, id string) error
}

// Storage — объединённый контракт основной базы данных.
type Storage interface {
	UserStorage
	BookStorage
	GroupStorage
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
