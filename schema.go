package mongodoc

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// FieldType is the kind a schema field accepts.
type FieldType int

const (
	// Any accepts every value.
	Any FieldType = iota
	String
	Int
	Float
	Bool
	Time
	// List accepts slices of any element type.
	List
	// Map accepts nested field maps.
	Map
)

// FieldSpec declares one schema field. A nil Validator means no custom check.
type FieldSpec struct {
	Type      FieldType
	Required  bool
	Validator func(value any) bool
}

// Schema declares the allowed fields of a schema-bound class. Documents may
// omit optional fields but may not carry fields outside the schema.
type Schema map[string]FieldSpec

func (s Schema) validate(d *Document) error {
	for name, spec := range s {
		value, present := d.Get(name)
		if spec.Validator != nil && present && !spec.Validator(value) {
			return &FieldError{Field: name, Reason: "is invalid"}
		}
		if spec.Required && !present {
			return &FieldError{Field: name, Reason: "is required"}
		}
		if present && !spec.Type.accepts(value) {
			return &FieldError{Field: name, Reason: "has invalid type"}
		}
	}
	for _, e := range d.fields {
		if e.Key == "_id" {
			continue
		}
		if _, ok := s[e.Key]; !ok {
			return &FieldError{Field: e.Key, Reason: "is not in the schema"}
		}
	}
	return nil
}

func (t FieldType) accepts(value any) bool {
	if value == nil {
		return true
	}
	switch t {
	case Any:
		return true
	case String:
		_, ok := value.(string)
		return ok
	case Int:
		switch value.(type) {
		case int, int32, int64:
			return true
		}
		return false
	case Float:
		switch value.(type) {
		case float32, float64:
			return true
		}
		return false
	case Bool:
		_, ok := value.(bool)
		return ok
	case Time:
		_, ok := value.(time.Time)
		return ok
	case List:
		switch value.(type) {
		case bson.A, []any, []string, []int, []float64:
			return true
		}
		return false
	case Map:
		switch value.(type) {
		case bson.D, bson.M, map[string]any:
			return true
		}
		return false
	}
	return false
}
