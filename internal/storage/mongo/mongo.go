// Package mongo реализует storage.Storage поверх MongoDB:
// коллекции users, books и readingGroups.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/storage"
)

const (
	usersCollection  = "users"
	booksCollection  = "books"
	groupsCollection = "readingGroups"
	defaultDBName    = "bookshelf"
)

// Mongo — тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg    *config.Config
	client *mongodriver.Client
	db     *mongodriver.Database
	users  *mongodriver.Collection
	books  *mongodriver.Collection
	groups *mongodriver.Collection
}

var _ storage.Storage = (*Mongo)(nil)

// New подключается к MongoDB, проверяет соединение и создаёт индексы.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(cfg.DB.URL))

	m := &Mongo{
		cfg:    cfg,
		client: cli,
		db:     db,
		users:  db.Collection(usersCollection),
		books:  db.Collection(booksCollection),
		groups: db.Collection(groupsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Ping проверяет доступность primary (используется readiness-пробой).
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы:
//   - users: уникальные email и username, уникальный разреженный googleId;
//   - books: лента createdAt(desc) + _id(desc), addedBy;
//   - readingGroups: members, book.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	users := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("uniq_username").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetName("uniq_google_id").SetUnique(true).SetSparse(true),
		},
	}

	if _, err := m.users.Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("mongo ensure users indexes: %w", err)
	}

	books := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		},
		{
			Keys:    bson.D{{Key: "addedBy", Value: 1}},
			Options: options.Index().SetName("added_by"),
		},
	}

	if _, err := m.books.Indexes().CreateMany(ctx, books); err != nil {
		return fmt.Errorf("mongo ensure books indexes: %w", err)
	}

	groups := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("members"),
		},
		{
			Keys:    bson.D{{Key: "book", Value: 1}},
			Options: options.Index().SetName("book"),
		},
	}

	if _, err := m.groups.Indexes().CreateMany(ctx, groups); err != nil {
		return fmt.Errorf("mongo ensure groups indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из пути mongodb URI.
// Если его нет — возвращает имя по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}
