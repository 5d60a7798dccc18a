package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/pkg/log"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// CreateBookInput — данные новой книги.
type CreateBookInput struct {
	Title          string   `validate:"required,max=300"`
	Author         string   `validate:"required,max=200"`
	Genre          []string `validate:"required,min=1,dive,required,max=50"`
	Description    string   `validate:"required,max=5000"`
	CoverImage     string   `validate:"omitempty,url"`
	Pages          int32    `validate:"gte=0"`
	IsAudiobook    bool
	AudiobookURL   string  `field:"audiobookUrl" validate:"omitempty,url"`
	Progress       float64 `validate:"gte=0"`
	PublishedDate  *time.Time
	ReadingGroupID string `field:"readingGroupId"`
}

// UpdateBookInput — частичное обновление; nil — не менять.
type UpdateBookInput struct {
	Title          *string  `validate:"omitempty,min=1,max=300"`
	Author         *string  `validate:"omitempty,min=1,max=200"`
	Genre          []string `validate:"omitempty,min=1,dive,required,max=50"`
	Description    *string  `validate:"omitempty,min=1,max=5000"`
	CoverImage     *string  `validate:"omitempty,url"`
	Pages          *int32   `validate:"omitempty,gte=0"`
	IsAudiobook    *bool
	AudiobookURL   *string `field:"audiobookUrl" validate:"omitempty,url"`
	PublishedDate  *time.Time
	ReadingGroupID *string `field:"readingGroupId"`
}

func (in UpdateBookInput) toModel() models.BookUpdate {
	return models.BookUpdate{
		Title:          in.Title,
		Author:         in.Author,
		Genre:          in.Genre,
		Description:    in.Description,
		CoverImage:     in.CoverImage,
		Pages:          in.Pages,
		IsAudiobook:    in.IsAudiobook,
		AudiobookURL:   in.AudiobookURL,
		PublishedDate:  in.PublishedDate,
		ReadingGroupID: in.ReadingGroupID,
	}
}

// canModify — владелец книги или администратор.
func canModify(p models.Principal, b *models.Book) bool {
	return p.IsAdmin() || b.AddedBy == p.UserID
}

// CreateBook добавляет книгу от имени субъекта.
func (s *Service) CreateBook(ctx context.Context, p models.Principal, in CreateBookInput) (*models.Book, error) {
	const op = "service.books.CreateBook"

	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	for i := range in.Genre {
		in.Genre[i] = strings.TrimSpace(in.Genre[i])
	}

	if err := validateStruct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cover := in.CoverImage
	if cover == "" {
		cover = models.DefaultCoverImage
	}

	now := s.now()
	book := &models.Book{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Author:          in.Author,
		Genre:           in.Genre,
		Description:     in.Description,
		CoverImage:      cover,
		Pages:           in.Pages,
		IsAudiobook:     in.IsAudiobook,
		AudiobookURL:    in.AudiobookURL,
		Progress:        in.Progress,
		PublishedDate:   in.PublishedDate,
		AddedBy:         p.UserID,
		AddedByUsername: p.Username,
		ReadingPartners: []string{},
		ReadingGroupID:  in.ReadingGroupID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.storage.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("book_created",
		slog.String("book_id", book.ID),
		slog.String("user_id", p.UserID),
	)

	return book, nil
}

// ListBooks возвращает страницу книг, новые первыми.
func (s *Service) ListBooks(ctx context.Context, params models.ListParams) (*models.BookPage, error) {
	const op = "service.books.ListBooks"

	if params.PageSize < 0 {
		return nil, fmt.Errorf("%s: %w", op, invalidField("pageSize", "must not be negative"))
	}

	page, err := s.storage.ListBooks(ctx, params)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			return nil, fmt.Errorf("%s: %w", op, invalidField("pageToken", "is invalid"))
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// BookByID возвращает книгу.
func (s *Service) BookByID(ctx context.Context, id string) (*models.Book, error) {
	const op = "service.books.BookByID"

	book, err := s.storage.BookByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return book, nil
}

// UpdateBook изменяет книгу; разрешено владельцу и администратору.
func (s *Service) UpdateBook(ctx context.Context, p models.Principal, id string, in UpdateBookInput) (*models.Book, error) {
	const op = "service.books.UpdateBook"

	if err := validateStruct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.authorizeBook(ctx, p, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	book, err := s.storage.UpdateBook(ctx, id, in.toModel())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return book, nil
}

// DeleteBook удаляет книгу; разрешено владельцу и администратору.
func (s *Service) DeleteBook(ctx context.Context, p models.Principal, id string) error {
	const op = "service.books.DeleteBook"

	if err := s.authorizeBook(ctx, p, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	log.From(ctx).Info("book_deleted",
		slog.String("book_id", id),
		slog.String("user_id", p.UserID),
	)

	return nil
}

// SetCurrentBook отмечает книгу как читаемую сейчас.
func (s *Service) SetCurrentBook(ctx context.Context, p models.Principal, bookID string) (*models.User, error) {
	const op = "service.books.SetCurrentBook"

	if strings.TrimSpace(bookID) == "" {
		return nil, fmt.Errorf("%s: %w", op, invalidField("bookId", "is required"))
	}

	if _, err := s.storage.BookByID(ctx, bookID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	user, err := s.storage.SetCurrentBook(ctx, p.UserID, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return user, nil
}

// AddReadingPartner добавляет партнёра по чтению; повтор не создаёт дубля.
func (s *Service) AddReadingPartner(ctx context.Context, p models.Principal, bookID, partnerID string) (*models.Book, error) {
	const op = "service.books.AddReadingPartner"

	if strings.TrimSpace(partnerID) == "" {
		return nil, fmt.Errorf("%s: %w", op, invalidField("partnerId", "is required"))
	}

	if err := s.authorizeBook(ctx, p, bookID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.UserByID(ctx, partnerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	book, err := s.storage.AddReadingPartner(ctx, bookID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return book, nil
}

// UpdateProgress сохраняет прогресс чтения (страница или секунда аудиокниги).
// Разрешено владельцу, партнёрам по чтению и администратору.
func (s *Service) UpdateProgress(ctx context.Context, p models.Principal, bookID string, progress float64) (*models.Book, error) {
	const op = "service.books.UpdateProgress"

	if progress < 0 {
		return nil, fmt.Errorf("%s: %w", op, invalidField("progress", "must not be negative"))
	}

	book, err := s.storage.BookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if book.Pages > 0 && !book.IsAudiobook && progress > float64(book.Pages) {
		return nil, fmt.Errorf("%s: %w", op, invalidField("progress", "exceeds the number of pages"))
	}

	if !canModify(p, book) && !isPartner(book, p.UserID) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	out, err := s.storage.UpdateProgress(ctx, bookID, progress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return out, nil
}

func isPartner(b *models.Book, userID string) bool {
	for _, id := range b.ReadingPartners {
		if id == userID {
			return true
		}
	}

	return false
}

// authorizeBook загружает книгу и проверяет право на изменение.
func (s *Service) authorizeBook(ctx context.Context, p models.Principal, id string) error {
	book, err := s.storage.BookByID(ctx, id)
	if err != nil {
		return mapStorageErr(err)
	}

	if !canModify(p, book) {
		return ErrForbidden
	}

	return nil
}

// mapStorageErr переводит ошибки хранилища в ошибки сервиса.
func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrNotFoundAvatar):
		return ErrNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrAlreadyExists
	case errors.Is(err, storage.ErrInvalidCursor), errors.Is(err, storage.ErrInvalidArgument):
		return ErrInvalidArgument
	default:
		return err
	}
}
