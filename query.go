package mongodoc

import (
	"context"
	"iter"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongodoc/mongodoc/pkg/metrics"
)

// Query is a lazy, restartable find over one collection class. Nothing is
// sent to the driver until the query is iterated; every iteration re-executes
// the find, so a later pass observes later writes.
type Query struct {
	class  *CollectionClass
	filter bson.M
}

// Documents iterates the matching documents. Yields (nil, err) once and stops
// if the driver fails.
func (q *Query) Documents(ctx context.Context) iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		cur, err := q.class.col.Find(ctx, q.filter)
		if err != nil {
			metrics.OperationErrors.WithLabelValues("find").Inc()
			yield(nil, err)
			return
		}
		defer cur.Close(ctx)
		metrics.Operations.WithLabelValues("find").Inc()
		for cur.Next(ctx) {
			var raw bson.D
			if err := cur.Decode(&raw); err != nil {
				yield(nil, err)
				return
			}
			if !yield(q.class.fromRaw(raw), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// All materializes the matching documents.
func (q *Query) All(ctx context.Context) (ResultList, error) {
	var out ResultList
	for doc, err := range q.Documents(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// First returns the first matching document, or nil when nothing matches.
func (q *Query) First(ctx context.Context) (*Document, error) {
	for doc, err := range q.Documents(ctx) {
		return doc, err
	}
	return nil, nil
}

// Count returns the number of matching documents without fetching them.
func (q *Query) Count(ctx context.Context) (int64, error) {
	return q.class.col.CountDocuments(ctx, q.filter)
}

// ResultList is a materialized query result.
type ResultList []*Document

// FirstOrNone returns the first document, or nil when the list is empty.
func (l ResultList) FirstOrNone() *Document {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// LastOrNone returns the last document, or nil when the list is empty.
func (l ResultList) LastOrNone() *Document {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}
