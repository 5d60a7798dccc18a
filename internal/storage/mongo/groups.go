package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

func (m *Mongo) CreateGroup(ctx context.Context, group *models.ReadingGroup) error {
	const op = "storage.mongo.CreateGroup"

	group.CreatedAt = toMS(group.CreatedAt)
	group.UpdatedAt = toMS(group.UpdatedAt)
	if group.Schedule == nil {
		group.Schedule = []models.ScheduleEntry{}
	}

	if _, err := m.groups.InsertOne(ctx, group); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

func (m *Mongo) GroupByID(ctx context.Context, id string) (*models.ReadingGroup, error) {
	const op = "storage.mongo.GroupByID"

	var out models.ReadingGroup
	if err := m.groups.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normalizeGroup(&out)
	return &out, nil
}

// GroupsByMember возвращает группы пользователя, новые первыми.
func (m *Mongo) GroupsByMember(ctx context.Context, userID string) ([]models.ReadingGroup, error) {
	const op = "storage.mongo.GroupsByMember"

	cur, err := m.groups.Find(ctx,
		bson.D{{Key: "members", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	out := []models.ReadingGroup{}
	for cur.Next(ctx) {
		var g models.ReadingGroup
		if err := cur.Decode(&g); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		normalizeGroup(&g)
		out = append(out, g)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}

func (m *Mongo) AddMember(ctx context.Context, groupID, userID string) (*models.ReadingGroup, error) {
	return m.updateGroup(ctx, "storage.mongo.AddMember", groupID, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "members", Value: userID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: toMS(time.Now())}}},
	})
}

func (m *Mongo) RemoveMember(ctx context.Context, groupID, userID string) (*models.ReadingGroup, error) {
	return m.updateGroup(ctx, "storage.mongo.RemoveMember", groupID, bson.D{
		{Key: "$pull", Value: bson.D{{Key: "members", Value: userID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: toMS(time.Now())}}},
	})
}

func (m *Mongo) DeleteGroup(ctx context.Context, id string) error {
	const op = "storage.mongo.DeleteGroup"

	res, err := m.groups.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (m *Mongo) updateGroup(ctx context.Context, op, id string, update bson.D) (*models.ReadingGroup, error) {
	var out models.ReadingGroup

	err := m.groups.FindOneAndUpdate(ctx,
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

	normalizeGroup(&out)
	return &out, nil
}

func normalizeGroup(g *models.ReadingGroup) {
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	if g.Members == nil {
		g.Members = []string{}
	}
	if g.Schedule == nil {
		g.Schedule = []models.ScheduleEntry{}
	}
}
