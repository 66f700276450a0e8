package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type batchKey struct{}

// Batch buffers the writes and deletes issued under a batch context so they
// can be applied in one Apply call.
type Batch struct {
	mu  sync.Mutex
	ops []Op
	// staged holds the latest op per path so reads inside the batch see
	// the batch's own writes.
	staged map[string]Op
}

func newBatch() *Batch {
	return &Batch{staged: make(map[string]Op)}
}

func (b *Batch) add(op Op) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, op)
	b.staged[op.Path] = op
}

func (b *Batch) lookup(path string) (Op, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	op, ok := b.staged[path]
	return op, ok
}

func (b *Batch) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Op(nil), b.ops...)
}

func batchFromContext(ctx context.Context) *Batch {
	b, _ := ctx.Value(batchKey{}).(*Batch)
	return b
}

// Batching wraps a Storage so that calls made with a context from RunBatch
// are staged instead of applied.
type Batching struct {
	inner Storage
}

func NewBatching(inner Storage) *Batching {
	return &Batching{inner: inner}
}

// RunBatch runs fn with a batch context and applies everything fn staged in
// a single Apply. Nothing is applied if fn fails.
func (s *Batching) RunBatch(ctx context.Context, fn func(ctx context.Context) error) error {
	if batchFromContext(ctx) != nil {
		return fn(ctx)
	}
	b := newBatch()
	if err := fn(context.WithValue(ctx, batchKey{}, b)); err != nil {
		return err
	}
	ops := b.Ops()
	if len(ops) == 0 {
		return nil
	}
	if err := s.inner.Apply(ctx, ops); err != nil {
		return fmt.Errorf("failed to apply batch of %d ops: %w", len(ops), err)
	}
	return nil
}

func (s *Batching) Read(ctx context.Context, path string) ([]byte, error) {
	if b := batchFromContext(ctx); b != nil {
		if op, ok := b.lookup(path); ok {
			if op.Kind == OpDelete {
				return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
			}
			return op.Data, nil
		}
	}
	return s.inner.Read(ctx, path)
}

func (s *Batching) Write(ctx context.Context, path string, data []byte) error {
	if b := batchFromContext(ctx); b != nil {
		b.add(Op{Kind: OpWrite, Path: path, Data: append([]byte(nil), data...)})
		return nil
	}
	return s.inner.Write(ctx, path, data)
}

func (s *Batching) Delete(ctx context.Context, path string) error {
	if b := batchFromContext(ctx); b != nil {
		exists, err := s.Exists(ctx, path)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		b.add(Op{Kind: OpDelete, Path: path})
		return nil
	}
	return s.inner.Delete(ctx, path)
}

func (s *Batching) List(ctx context.Context, prefix string) ([]string, error) {
	paths, err := s.inner.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	b := batchFromContext(ctx)
	if b == nil {
		return paths, nil
	}
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		seen[p] = true
		if op, ok := b.lookup(p); ok && op.Kind == OpDelete {
			continue
		}
		out = append(out, p)
	}
	dir := strings.TrimSuffix(prefix, "/") + "/"
	for _, op := range b.Ops() {
		if op.Kind != OpWrite || seen[op.Path] || !strings.HasPrefix(op.Path, dir) {
			continue
		}
		if strings.Contains(strings.TrimPrefix(op.Path, dir), "/") {
			continue
		}
		seen[op.Path] = true
		out = append(out, op.Path)
	}
	return out, nil
}

func (s *Batching) Exists(ctx context.Context, path string) (bool, error) {
	if b := batchFromContext(ctx); b != nil {
		if op, ok := b.lookup(path); ok {
			return op.Kind == OpWrite, nil
		}
	}
	return s.inner.Exists(ctx, path)
}

func (s *Batching) Apply(ctx context.Context, ops []Op) error {
	return s.inner.Apply(ctx, ops)
}
