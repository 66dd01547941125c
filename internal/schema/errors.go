package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every *NotFoundError
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is matched by every *DuplicateError
	ErrDuplicate = errors.New("duplicate identifier")
	// ErrInvalidRelation is matched by every *RelationError
	ErrInvalidRelation = errors.New("invalid relation")
)

// NotFoundError reports a lookup with no match in an Index
type NotFoundError struct {
	Kind string // "model", "model name", "field", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no match %q in %ss", e.Key, e.Kind)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateError reports an identifier seen twice while building an Index
type DuplicateError struct {
	Kind string
	Key  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s %q", e.Kind, e.Key)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// RelationError reports a relation that does not resolve inside its schema
type RelationError struct {
	Index    int
	Relation Relation
	Reason   string
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("relation %d: %s", e.Index, e.Reason)
}

func (e *RelationError) Unwrap() error { return ErrInvalidRelation }
