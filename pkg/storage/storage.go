package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage provides an abstraction over key-value style blob storage.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
	// Apply performs a group of writes and deletes. Backends apply the group
	// as atomically as they can; see each implementation.
	Apply(ctx context.Context, ops []Op) error
}

type OpKind int

const (
	OpWrite OpKind = iota + 1
	OpDelete
)

type Op struct {
	Kind OpKind
	Path string
	Data []byte
}
