// Package yamlstore keeps one YAML document per record under a storage
// directory. Repositories embed a Collection and add their own filtering
// and ordering on top of Scan.
package yamlstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/damwatch/taskdesk/pkg/cerr"
	"github.com/damwatch/taskdesk/pkg/storage"
)

type Collection[T any] struct {
	store storage.Storage
	dir   string
	kind  string
	id    func(*T) string
}

// New returns the collection of kind records stored as dir/<id>.yaml.
func New[T any](store storage.Storage, dir, kind string, id func(*T) string) *Collection[T] {
	return &Collection[T]{store: store, dir: dir, kind: kind, id: id}
}

func (c *Collection[T]) path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", c.dir, id)
}

func (c *Collection[T]) exists(ctx context.Context, id string) (bool, error) {
	ok, err := c.store.Exists(ctx, c.path(id))
	if err != nil {
		return false, cerr.WrapStorageReadError(c.kind, err)
	}
	return ok, nil
}

// Put writes v whether or not its id exists.
func (c *Collection[T]) Put(ctx context.Context, v *T) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return cerr.WrapMarshalError(c.kind, err)
	}
	if err := c.store.Write(ctx, c.path(c.id(v)), data); err != nil {
		return cerr.WrapStorageWriteError(c.kind, err)
	}
	return nil
}

// Create fails with AlreadyExists when the id is taken.
func (c *Collection[T]) Create(ctx context.Context, v *T) error {
	ok, err := c.exists(ctx, c.id(v))
	if err != nil {
		return err
	}
	if ok {
		return cerr.NewError(cerr.AlreadyExists, c.kind+" already exists", nil)
	}
	return c.Put(ctx, v)
}

// Update fails with NotFound when there is nothing to replace.
func (c *Collection[T]) Update(ctx context.Context, v *T) error {
	ok, err := c.exists(ctx, c.id(v))
	if err != nil {
		return err
	}
	if !ok {
		return cerr.NewError(cerr.NotFound, c.kind+" not found", nil)
	}
	return c.Put(ctx, v)
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	data, err := c.store.Read(ctx, c.path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError(c.kind, err)
	}
	v := new(T)
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, cerr.WrapUnmarshalError(c.kind, err)
	}
	return v, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, c.path(id)); err != nil {
		return cerr.WrapStorageDeleteError(c.kind, err)
	}
	return nil
}

// Scan decodes every document that keep accepts, in path order. A nil keep
// accepts everything. Documents that vanish or fail to decode mid-scan are
// skipped so one bad file cannot hide the rest.
func (c *Collection[T]) Scan(ctx context.Context, keep func(*T) bool) ([]*T, error) {
	paths, err := c.store.List(ctx, c.dir)
	if err != nil {
		return nil, cerr.WrapStorageReadError(c.kind, err)
	}
	sort.Strings(paths)
	var out []*T
	for _, p := range paths {
		data, err := c.store.Read(ctx, p)
		if err != nil {
			continue
		}
		v := new(T)
		if err := yaml.Unmarshal(data, v); err != nil {
			continue
		}
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// SortNewest orders items by descending time, then descending id so equal
// timestamps keep a stable order.
func SortNewest[T any](items []*T, at func(*T) time.Time, id func(*T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := at(items[i]), at(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return id(items[i]) > id(items[j])
	})
}

// Page applies offset and limit and returns the page together with the
// total before paging. A limit of 0 or less is unlimited and a negative
// offset counts as 0.
func Page[T any](items []*T, offset, limit int) ([]*T, int) {
	total := len(items)
	offset = max(offset, 0)
	if offset >= total {
		return nil, total
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, total
}
