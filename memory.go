package mongodoc

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryDatabase is a simple in-memory Database used for unit tests and
// prototyping without a running server. Filters support exact field matches
// plus the $in operator, which covers everything this layer issues.
type MemoryDatabase struct {
	mu   sync.Mutex
	cols map[string]*memoryCollection
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{cols: make(map[string]*memoryCollection)}
}

func (m *MemoryDatabase) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if col, ok := m.cols[name]; ok {
		return col
	}
	col := &memoryCollection{docs: make(map[primitive.ObjectID]bson.D)}
	m.cols[name] = col
	return col
}

type memoryCollection struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID]bson.D
	order []primitive.ObjectID
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc bson.D) (primitive.ObjectID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := primitive.NewObjectID()
	stored := append(bson.D{{Key: "_id", Value: id}}, cloneD(doc)...)
	c.docs[id] = stored
	c.order = append(c.order, id)
	return id, nil
}

func (c *memoryCollection) UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	if !ok {
		return 0, nil
	}
	for key, value := range set {
		doc = upsertField(doc, key, value)
	}
	c.docs[id] = doc
	return 1, nil
}

func (c *memoryCollection) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return 0, nil
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (c *memoryCollection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var deleted int64
	kept := c.order[:0]
	for _, id := range c.order {
		if matchesFilter(c.docs[id], filter) {
			delete(c.docs, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return deleted, nil
}

func (c *memoryCollection) UnsetField(ctx context.Context, id primitive.ObjectID, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	if !ok {
		return nil
	}
	for i, e := range doc {
		if e.Key == field {
			c.docs[id] = append(doc[:i], doc[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memoryCollection) FindOne(ctx context.Context, filter bson.M) (bson.D, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.order {
		if matchesFilter(c.docs[id], filter) {
			return cloneD(c.docs[id]), nil
		}
	}
	return nil, ErrNotFound
}

func (c *memoryCollection) Find(ctx context.Context, filter bson.M) (Cursor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []bson.D
	for _, id := range c.order {
		if matchesFilter(c.docs[id], filter) {
			out = append(out, cloneD(c.docs[id]))
		}
	}
	return &memoryCursor{docs: out}, nil
}

func (c *memoryCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, doc := range c.docs {
		if matchesFilter(doc, filter) {
			n++
		}
	}
	return n, nil
}

// CreateIndex is a no-op; the memory driver enforces no indexes.
func (c *memoryCollection) CreateIndex(ctx context.Context, keys []string, opts IndexOptions) error {
	return nil
}

type memoryCursor struct {
	docs []bson.D
	pos  int
}

func (c *memoryCursor) Next(ctx context.Context) bool {
	if c.pos >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

func (c *memoryCursor) Decode(out *bson.D) error {
	*out = c.docs[c.pos-1]
	return nil
}

func (c *memoryCursor) Err() error                      { return nil }
func (c *memoryCursor) Close(ctx context.Context) error { return nil }

func cloneD(doc bson.D) bson.D {
	out := make(bson.D, len(doc))
	copy(out, doc)
	return out
}

func upsertField(doc bson.D, key string, value any) bson.D {
	for i, e := range doc {
		if e.Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

func matchesFilter(doc bson.D, filter bson.M) bool {
	for key, want := range filter {
		got, ok := lookupField(doc, key)
		if !ok {
			return false
		}
		switch cond := want.(type) {
		case bson.M:
			if !matchesCondition(got, cond) {
				return false
			}
		case map[string]any:
			if !matchesCondition(got, cond) {
				return false
			}
		default:
			if !valuesEqual(got, want) {
				return false
			}
		}
	}
	return true
}

func matchesCondition(got any, cond bson.M) bool {
	for op, arg := range cond {
		switch op {
		case "$in":
			values := reflect.ValueOf(arg)
			if values.Kind() != reflect.Slice {
				return false
			}
			found := false
			for i := 0; i < values.Len(); i++ {
				if valuesEqual(got, values.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func lookupField(doc bson.D, key string) (any, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}
