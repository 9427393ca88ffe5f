package mongodoc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mongodoc/mongodoc/pkg/metrics"
)

// Document is a single document of a collection class. Fields are held as an
// ordered list of name/value pairs, matching the driver's wire representation,
// so schema-less documents of any shape round-trip unchanged.
type Document struct {
	class  *CollectionClass
	id     primitive.ObjectID
	fields bson.D
}

// Class returns the collection class this document belongs to.
func (d *Document) Class() *CollectionClass { return d.class }

// ID returns the hex identifier assigned by the database on first save, or ""
// for an unsaved document. The identifier is immutable once assigned.
func (d *Document) ID() string {
	if d.id.IsZero() {
		return ""
	}
	return d.id.Hex()
}

// Saved reports whether the document has been stored at least once.
func (d *Document) Saved() bool { return !d.id.IsZero() }

// Get returns a field value and whether the field is set.
func (d *Document) Get(name string) (any, bool) {
	return lookupField(d.fields, name)
}

// Set assigns a field. Embedded documents are flattened to their field lists,
// as the database has no notion of a class inside a stored value.
func (d *Document) Set(name string, value any) {
	if sub, ok := value.(*Document); ok {
		value = sub.Fields()
	}
	d.fields = upsertField(d.fields, name, value)
}

// Unset removes a field from the in-memory document only. Use DeleteField to
// also remove it from storage.
func (d *Document) Unset(name string) {
	for i, e := range d.fields {
		if e.Key == name {
			d.fields = append(d.fields[:i], d.fields[i+1:]...)
			return
		}
	}
}

// Fields returns a copy of the field list, without the identifier.
func (d *Document) Fields() bson.D {
	return cloneD(d.fields)
}

// Map returns the fields as a plain map.
func (d *Document) Map() map[string]any {
	out := make(map[string]any, len(d.fields))
	for _, e := range d.fields {
		out[e.Key] = e.Value
	}
	return out
}

// Save stores the document: an insert on first save, with the database
// assigning the identifier, and an update of the full field set afterwards.
// Schema-bound documents are validated first.
func (d *Document) Save(ctx context.Context) error {
	if d.class == nil || d.class.col == nil {
		return ErrNoCollection
	}
	if d.class.schema != nil {
		if err := d.class.schema.validate(d); err != nil {
			return err
		}
	}

	if d.id.IsZero() {
		id, err := d.class.col.InsertOne(ctx, d.fields)
		if err != nil {
			metrics.OperationErrors.WithLabelValues("insert").Inc()
			return err
		}
		d.id = id
		metrics.Operations.WithLabelValues("insert").Inc()
		return nil
	}

	set := bson.M{}
	for _, e := range d.fields {
		set[e.Key] = e.Value
	}
	matched, err := d.class.col.UpdateByID(ctx, d.id, set)
	if err != nil {
		metrics.OperationErrors.WithLabelValues("update").Inc()
		return err
	}
	if matched == 0 {
		return fmt.Errorf("%w: _id %s", ErrNotFound, d.id.Hex())
	}
	metrics.Operations.WithLabelValues("update").Inc()
	return nil
}

// Delete removes the document from storage by identifier. Returns ErrNotSaved
// for a document that was never saved, and ErrNotFound when the database no
// longer holds it. The in-memory instance is left untouched.
func (d *Document) Delete(ctx context.Context) error {
	if d.class == nil || d.class.col == nil {
		return ErrNoCollection
	}
	if d.id.IsZero() {
		return ErrNotSaved
	}
	deleted, err := d.class.col.DeleteByID(ctx, d.id)
	if err != nil {
		metrics.OperationErrors.WithLabelValues("delete").Inc()
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("%w: _id %s", ErrNotFound, d.id.Hex())
	}
	metrics.Operations.WithLabelValues("delete").Inc()
	return nil
}

// DeleteField removes a field from both the stored document and the in-memory
// instance. Returns ErrNotSaved for a document that was never saved.
func (d *Document) DeleteField(ctx context.Context, name string) error {
	if d.class == nil || d.class.col == nil {
		return ErrNoCollection
	}
	if d.id.IsZero() {
		return ErrNotSaved
	}
	if err := d.class.col.UnsetField(ctx, d.id, name); err != nil {
		metrics.OperationErrors.WithLabelValues("update").Inc()
		return err
	}
	d.Unset(name)
	metrics.Operations.WithLabelValues("update").Inc()
	return nil
}
