package storage

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage defines the interface for keyed object storage
type Storage interface {
	// Put stores data under key, replacing any previous object
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object stored under key or ErrObjectNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error
}
