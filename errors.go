package mongodoc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when no connection was initialized via InitDB,
	// UseDatabase, or the MONGO_DB_CONNECTION_STRING / MONGO_DB_NAME environment
	// variables.
	ErrNotConnected = errors.New("mongodoc: not connected; call InitDB or set MONGO_DB_CONNECTION_STRING and MONGO_DB_NAME")

	// ErrNoCollection is returned when a document has no backing collection.
	ErrNoCollection = errors.New("mongodoc: collection does not exist")

	// ErrNotSaved is returned by Delete and DeleteField on a document that was
	// never saved, so no identifier exists to address it by.
	ErrNotSaved = errors.New("mongodoc: document has not been saved")

	// ErrNotFound is returned when an operation addresses a document by
	// identifier and the database no longer holds it.
	ErrNotFound = errors.New("mongodoc: document not found")
)

// FieldError reports a schema violation for a single field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("mongodoc: field %q %s", e.Field, e.Reason)
}
