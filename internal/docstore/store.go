// Package docstore is a small document database on top of a relational
// table. Each document lives in a named collection and carries a JSON body.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("docstore: document not found")
	ErrInvalidField = errors.New("docstore: invalid field name")
)

// Data is a document body.
type Data map[string]any

type Document struct {
	Collection string
	ID         string
	Data       Data
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Cond is an equality condition on a top level field.
type Cond struct {
	Field string
	Value any
}

type Query struct {
	Where []Cond
	// OrderBy is a field name; createdAt and updatedAt use the server times.
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

func Where(field string, value any) Cond { return Cond{Field: field, Value: value} }

type Store interface {
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Add stores data under a generated id and returns it.
	Add(ctx context.Context, collection string, data Data) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, data Data) error
	// Update merges patch into the existing document.
	Update(ctx context.Context, collection, id string, patch Data) error
	// Modify rewrites the body under a row lock.
	Modify(ctx context.Context, collection, id string, fn func(Data) (Data, error)) error
	Delete(ctx context.Context, collection, id string) error
}
