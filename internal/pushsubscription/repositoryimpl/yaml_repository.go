package repositoryimpl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/damwatch/taskdesk/internal/pushsubscription"
	"github.com/damwatch/taskdesk/pkg/cerr"
	"github.com/damwatch/taskdesk/pkg/storage"
	"github.com/damwatch/taskdesk/pkg/yamlstore"
)

// YAMLRepository keys each document by a digest of its endpoint, so a
// browser that registers twice overwrites its own entry.
type YAMLRepository struct {
	subs *yamlstore.Collection[pushsubscription.Subscription]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{subs: yamlstore.New(s, "push_subscriptions", "push subscription",
		func(s *pushsubscription.Subscription) string { return endpointKey(s.Endpoint) })}
}

func endpointKey(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:16])
}

func (r *YAMLRepository) Save(ctx context.Context, s *pushsubscription.Subscription) error {
	if s.Endpoint == "" {
		return cerr.NewViolation("endpoint", "endpoint is required", nil)
	}
	return r.subs.Put(ctx, s)
}

func (r *YAMLRepository) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	return r.subs.Get(ctx, endpointKey(endpoint))
}

func (r *YAMLRepository) List(ctx context.Context, userID string) ([]*pushsubscription.Subscription, error) {
	out, err := r.subs.Scan(ctx, func(s *pushsubscription.Subscription) bool {
		return userID == "" || s.UserID == userID
	})
	if err != nil {
		return nil, err
	}
	// Oldest first, the order browsers registered in.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *YAMLRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := r.FindByEndpoint(ctx, endpoint); err != nil {
		return err
	}
	return r.subs.Delete(ctx, endpointKey(endpoint))
}
