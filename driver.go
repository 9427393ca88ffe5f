package mongodoc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database is the slice of driver surface the mapping layer depends on.
// The default implementation wraps *mongo.Database; NewMemoryDatabase provides
// an in-memory one for tests and prototyping.
type Database interface {
	Collection(name string) Collection
}

// Collection exposes the collection-level primitives documents delegate to.
// Implementations pass driver errors through unmodified.
type Collection interface {
	InsertOne(ctx context.Context, doc bson.D) (primitive.ObjectID, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (matched int64, err error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (deleted int64, err error)
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)
	UnsetField(ctx context.Context, id primitive.ObjectID, field string) error
	FindOne(ctx context.Context, filter bson.M) (bson.D, error)
	Find(ctx context.Context, filter bson.M) (Cursor, error)
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
	CreateIndex(ctx context.Context, keys []string, opts IndexOptions) error
}

// Cursor is the minimal cursor contract, satisfied by *mongo.Cursor through a
// thin adapter.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(out *bson.D) error
	Err() error
	Close(ctx context.Context) error
}

// IndexOptions configures CreateIndex.
type IndexOptions struct {
	Name       string
	Unique     bool
	Descending bool
}

// WrapDatabase adapts a driver database handle to the Database interface.
// Useful when the caller already manages its own *mongo.Client.
func WrapDatabase(db *mongo.Database) Database {
	return &mongoDatabase{db: db}
}

type mongoDatabase struct {
	db *mongo.Database
}

func (m *mongoDatabase) Collection(name string) Collection {
	return &mongoCollection{col: m.db.Collection(name)}
}

type mongoCollection struct {
	col *mongo.Collection
}

func (m *mongoCollection) InsertOne(ctx context.Context, doc bson.D) (primitive.ObjectID, error) {
	res, err := m.col.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("mongodoc: unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (m *mongoCollection) UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (int64, error) {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (m *mongoCollection) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *mongoCollection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := m.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *mongoCollection) UnsetField(ctx context.Context, id primitive.ObjectID, field string) error {
	_, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{field: ""}})
	return err
}

func (m *mongoCollection) FindOne(ctx context.Context, filter bson.M) (bson.D, error) {
	var raw bson.D
	if err := m.col.FindOne(ctx, filter).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

func (m *mongoCollection) Find(ctx context.Context, filter bson.M) (Cursor, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &mongoCursor{cur: cur}, nil
}

func (m *mongoCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	return m.col.CountDocuments(ctx, filter)
}

func (m *mongoCollection) CreateIndex(ctx context.Context, keys []string, opts IndexOptions) error {
	order := 1
	if opts.Descending {
		order = -1
	}
	doc := bson.D{}
	for _, key := range keys {
		doc = append(doc, bson.E{Key: key, Value: order})
	}
	idxOpts := options.Index().SetUnique(opts.Unique)
	if opts.Name != "" {
		idxOpts = idxOpts.SetName(opts.Name)
	}
	_, err := m.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: doc, Options: idxOpts})
	return err
}

type mongoCursor struct {
	cur *mongo.Cursor
}

func (c *mongoCursor) Next(ctx context.Context) bool   { return c.cur.Next(ctx) }
func (c *mongoCursor) Decode(out *bson.D) error        { return c.cur.Decode(out) }
func (c *mongoCursor) Err() error                      { return c.cur.Err() }
func (c *mongoCursor) Close(ctx context.Context) error { return c.cur.Close(ctx) }
