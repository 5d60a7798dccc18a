package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

// CreateBook вставляет книгу; ID и временные метки проставляет вызывающий.
func (m *Mongo) CreateBook(ctx context.Context, book *models.Book) error {
	const op = "storage.mongo.CreateBook"

	book.CreatedAt = toMS(book.CreatedAt)
	book.UpdatedAt = toMS(book.UpdatedAt)
	if book.ReadingPartners == nil {
		book.ReadingPartners = []string{}
	}

	if _, err := m.books.InsertOne(ctx, book); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// BookByID возвращает книгу; при отсутствии — storage.ErrNotFound.
func (m *Mongo) BookByID(ctx context.Context, id string) (*models.Book, error) {
	const op = "storage.mongo.BookByID"

	var out models.Book
	if err := m.books.FindOne(ctx, bson.D{{Key: "_id", Value: strings.TrimSpace(id)}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeBook(&out)
	return &out, nil
}

// ListBooks возвращает страницу книг.
// Сортировка: createdAt DESC, _id DESC. Курсор — «меньше» последнего элемента.
func (m *Mongo) ListBooks(ctx context.Context, params models.ListParams) (*models.BookPage, error) {
	const op = "storage.mongo.ListBooks"

	limit := limitOrDefault(m.cfg, params.PageSize)
	filter := bson.D{}

	if strings.TrimSpace(params.PageToken) != "" {
		t, id, err := decodeCursor(params.PageToken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: t}}}},
			bson.D{
				{Key: "createdAt", Value: t},
				{Key: "_id", Value: bson.D{{Key: "$lt", Value: id}}},
			},
		}})
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		// Берём на один больше, чтобы понять, есть ли следующая страница.
		SetLimit(limit + 1)

	cur, err := m.books.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	items := make([]models.Book, 0, limit)
	for cur.Next(ctx) {
		var b models.Book
		if err := cur.Decode(&b); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		normalizeBook(&b)
		items = append(items, b)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	var next string
	if int64(len(items)) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}

	return &models.BookPage{Items: items, NextPageToken: next}, nil
}

// UpdateBook применяет частичное обновление и возвращает актуальную книгу.
func (m *Mongo) UpdateBook(ctx context.Context, id string, upd models.BookUpdate) (*models.Book, error) {
	const op = "storage.mongo.UpdateBook"

	if upd.Empty() {
		return m.BookByID(ctx, id)
	}

	set := bson.D{{Key: "updatedAt", Value: toMS(time.Now())}}
	add := func(key string, v any) { set = append(set, bson.E{Key: key, Value: v}) }

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Author != nil {
		add("author", *upd.Author)
	}
	if upd.Genre != nil {
		add("genre", upd.Genre)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.CoverImage != nil {
		add("coverImage", *upd.CoverImage)
	}
	if upd.Pages != nil {
		add("pages", *upd.Pages)
	}
	if upd.IsAudiobook != nil {
		add("isAudiobook", *upd.IsAudiobook)
	}
	if upd.AudiobookURL != nil {
		add("audiobookUrl", *upd.AudiobookURL)
	}
	if upd.PublishedDate != nil {
		add("publishedDate", toMS(*upd.PublishedDate))
	}
	if upd.ReadingGroupID != nil {
		add("readingGroupId", *upd.ReadingGroupID)
	}

	return m.updateBook(ctx, op, id, bson.D{{Key: "$set", Value: set}})
}

// DeleteBook удаляет книгу; при отсутствии — storage.ErrNotFound.
func (m *Mongo) DeleteBook(ctx context.Context, id string) error {
	const op = "storage.mongo.DeleteBook"

	res, err := m.books.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// AddReadingPartner добавляет партнёра через $addToSet: повтор не создаёт дублей.
func (m *Mongo) AddReadingPartner(ctx context.Context, bookID, partnerID string) (*models.Book, error) {
	const op = "storage.mongo.AddReadingPartner"

	return m.updateBook(ctx, op, bookID, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "readingPartners", Value: partnerID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: toMS(time.Now())}}},
	})
}

func (m *Mongo) UpdateProgress(ctx context.Context, bookID string, progress float64) (*models.Book, error) {
	const op = "storage.mongo.UpdateProgress"

	return m.updateBook(ctx, op, bookID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "progress", Value: progress},
			{Key: "updatedAt", Value: toMS(time.Now())},
		}},
	})
}

func (m *Mongo) updateBook(ctx context.Context, op, id string, update bson.D) (*models.Book, error) {
	var out models.Book

	err := m.books.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeBook(&out)
	return &out, nil
}

func normalizeBook(b *models.Book) {
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	if b.PublishedDate != nil {
		t := b.PublishedDate.UTC()
		b.PublishedDate = &t
	}
	if b.ReadingPartners == nil {
		b.ReadingPartners = []string{}
	}
}
