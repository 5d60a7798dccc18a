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

// CreateUser вставляет пользователя. Нарушение уникальных индексов — storage.ErrAlreadyExists.
func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.mongo.CreateUser"

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = toMS(user.CreatedAt)
	user.UpdatedAt = toMS(user.UpdatedAt)

	if _, err := m.users.InsertOne(ctx, user); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

func (m *Mongo) UserByID(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(ctx, "storage.mongo.UserByID", bson.D{{Key: "_id", Value: strings.TrimSpace(id)}})
}

func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, "storage.mongo.UserByEmail", bson.D{{Key: "email", Value: strings.ToLower(strings.TrimSpace(email))}})
}

func (m *Mongo) UserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	const op = "storage.mongo.UserByGoogleID"

	// Пустой googleId не должен совпасть ни с одним документом.
	if strings.TrimSpace(googleID) == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return m.findUser(ctx, op, bson.D{{Key: "googleId", Value: googleID}})
}

// IncrementTokenVersion атомарно выполняет $inc и возвращает новое значение.
func (m *Mongo) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	const op = "storage.mongo.IncrementTokenVersion"

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "tokenVersion", Value: 1}})

	var out struct {
		TokenVersion int64 `bson:"tokenVersion"`
	}

	err := m.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "tokenVersion", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: toMS(time.Now())}}},
		},
		opts,
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return out.TokenVersion, nil
}

func (m *Mongo) SetCurrentBook(ctx context.Context, userID, bookID string) (*models.User, error) {
	return m.setUserField(ctx, "storage.mongo.SetCurrentBook", userID, "currentBook", bookID)
}

func (m *Mongo) SetUserImage(ctx context.Context, userID, image string) (*models.User, error) {
	return m.setUserField(ctx, "storage.mongo.SetUserImage", userID, "userImage", image)
}

func (m *Mongo) setUserField(ctx context.Context, op, userID, field string, value any) (*models.User, error) {
	var out models.User

	err := m.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: field, Value: value},
			{Key: "updatedAt", Value: toMS(time.Now())},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeUser(&out)
	return &out, nil
}

func (m *Mongo) findUser(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	var out models.User
	if err := m.users.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeUser(&out)
	return &out, nil
}

func normalizeUser(u *models.User) {
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
}
