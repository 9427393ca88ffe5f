package mongodoc

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mongodoc/mongodoc/pkg/metrics"
)

// CollectionClass is a document class bound to one collection. All instances
// created through it persist there. Immutable after creation.
//
// No collision checking is done across factory calls: two classes naming the
// same collection are independent and both valid, since the schema-less model
// tolerates heterogeneous document shapes in one collection.
type CollectionClass struct {
	name           string
	collectionName string
	schema         Schema
	col            Collection
}

// CreateCollectionClass builds a schema-less document class. Instances persist
// to collectionName, or to a collection named after the class when
// collectionName is empty. Fails with ErrNotConnected when neither InitDB nor
// the environment fallback can supply a connection.
func CreateCollectionClass(name, collectionName string) (*CollectionClass, error) {
	return CreateCollectionClassWithSchema(name, collectionName, nil)
}

// CreateCollectionClassWithSchema builds a schema-bound document class whose
// instances are validated against schema on every Save.
func CreateCollectionClassWithSchema(name, collectionName string, schema Schema) (*CollectionClass, error) {
	db, err := defaultRegistry.database()
	if err != nil {
		return nil, err
	}
	if collectionName == "" {
		collectionName = name
	}
	class := &CollectionClass{
		name:           name,
		collectionName: collectionName,
		schema:         schema,
		col:            db.Collection(collectionName),
	}
	defaultRegistry.register(class)
	return class, nil
}

// Name returns the class name.
func (c *CollectionClass) Name() string { return c.name }

// CollectionName returns the name of the backing collection.
func (c *CollectionClass) CollectionName() string { return c.collectionName }

// Schema returns the schema, or nil for schema-less classes.
func (c *CollectionClass) Schema() Schema { return c.schema }

// New returns an empty unsaved document of this class.
func (c *CollectionClass) New() *Document {
	return &Document{class: c}
}

// NewFromMap returns an unsaved document holding the given fields. Keys are
// stored in sorted order so the wire shape is deterministic. Embedded
// documents are flattened to their field maps.
func (c *CollectionClass) NewFromMap(fields map[string]any) *Document {
	doc := &Document{class: c}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		doc.Set(key, fields[key])
	}
	return doc
}

// GetByID fetches a document by its hex identifier. Returns (nil, nil) when
// the identifier is malformed or no document holds it.
func (c *CollectionClass) GetByID(ctx context.Context, hexID string) (*Document, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, nil
	}
	raw, err := c.col.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		metrics.OperationErrors.WithLabelValues("find").Inc()
		return nil, err
	}
	metrics.Operations.WithLabelValues("find").Inc()
	return c.fromRaw(raw), nil
}

// Find returns a query matching documents whose fields equal the filter
// values. A nil filter matches everything.
func (c *CollectionClass) Find(filter map[string]any) *Query {
	f := bson.M{}
	for key, value := range filter {
		f[key] = value
	}
	return &Query{class: c, filter: f}
}

// FindIn returns a query matching documents whose field holds any of values.
func (c *CollectionClass) FindIn(field string, values []any) *Query {
	return &Query{class: c, filter: bson.M{field: bson.M{"$in": values}}}
}

// All returns a query over every document in the collection.
func (c *CollectionClass) All() *Query {
	return &Query{class: c, filter: bson.M{}}
}

// InsertMany saves one document per field map, in order. Each document goes
// through the normal Save path, so schema validation applies.
func (c *CollectionClass) InsertMany(ctx context.Context, items []map[string]any) error {
	for i, item := range items {
		if err := c.NewFromMap(item).Save(ctx); err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return nil
}

// Count returns the total number of documents in the collection.
func (c *CollectionClass) Count(ctx context.Context) (int64, error) {
	return c.col.CountDocuments(ctx, bson.M{})
}

// DeleteMany removes every document matching the filter and reports how many
// were deleted.
func (c *CollectionClass) DeleteMany(ctx context.Context, filter map[string]any) (int64, error) {
	f := bson.M{}
	for key, value := range filter {
		f[key] = value
	}
	deleted, err := c.col.DeleteMany(ctx, f)
	if err != nil {
		metrics.OperationErrors.WithLabelValues("delete").Inc()
		return 0, err
	}
	metrics.Operations.WithLabelValues("delete").Inc()
	return deleted, nil
}

// CreateIndex creates an index over keys on the backing collection. When
// opts.Name is empty the driver derives one.
func (c *CollectionClass) CreateIndex(ctx context.Context, keys []string, opts IndexOptions) error {
	return c.col.CreateIndex(ctx, keys, opts)
}

// fromRaw rebuilds a document instance from the driver's wire representation.
func (c *CollectionClass) fromRaw(raw bson.D) *Document {
	doc := &Document{class: c}
	for _, e := range raw {
		if e.Key == "_id" {
			if id, ok := e.Value.(primitive.ObjectID); ok {
				doc.id = id
			}
			continue
		}
		doc.fields = append(doc.fields, e)
	}
	return doc
}
