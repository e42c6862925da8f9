// Package repository is the document-store boundary used by the pipeline and
// the admin surface. Documents are addressed by collection name and string id.
package repository

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Filter matches documents by field equality. A field holding an array
// matches when any element equals the value. Use In for membership.
type Filter map[string]any

// In matches when the field equals any of the listed values.
type In []any

type FindOptions struct {
	SortField string
	SortDesc  bool
	Limit     int
}

// Store is implemented by MongoStore and MemoryStore.
type Store interface {
	// Get decodes the document with the given id into out.
	Get(ctx context.Context, collection, id string, out any) error
	// Find decodes matching documents into out, a pointer to a slice.
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions, out any) error
	// Upsert merges the fields of doc into the document with the given id,
	// creating it when missing.
	Upsert(ctx context.Context, collection, id string, doc any) error
	// Update sets fields on an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Create inserts doc under id and fails with ErrAlreadyExists when the
	// id is taken.
	Create(ctx context.Context, collection, id string, doc any) error
}
