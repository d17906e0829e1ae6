package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	// ErrStoreUnavailable: a connection to the store could not be opened.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSchemaMissing: the posts table is absent from the store's catalog.
	ErrSchemaMissing = errors.New("schema missing")
	// ErrQuery: a query was malformed or failed during execution.
	ErrQuery = errors.New("query failed")
	// ErrValidation: a required field was empty on creation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidArgument: a request could not be decoded.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Post is a single blog article.
// Invariants: ID is assigned by the store and never changes; Title is non-empty.
// Created is zero for stores provisioned without a created column.
type Post struct {
	ID      int64     `json:"id"`
	Created time.Time `json:"created"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
}

// PostRepository is the query port over the posts table.
// Each call acquires and releases its own store connection.
type PostRepository interface {
	List(ctx Context) ([]Post, error)
	// Get reports found=false, with a nil error, when no row matches id.
	Get(ctx Context, id int64) (post Post, found bool, err error)
	Count(ctx Context) (int64, error)
	Insert(ctx Context, title, content string) (int64, error)
	// Check verifies the posts table exists and can be read.
	Check(ctx Context) error
}

// ConnectionCounter exposes the number of store connections opened since start.
type ConnectionCounter interface {
	Load() int64
}

// Context is an alias so adapters and usecases can pass context.Context
// without the domain package depending on more than the stdlib.
type Context = context.Context
