package pushsubscription

import "context"

// Repository stores at most one subscription per endpoint.
type Repository interface {
	// Save inserts s, or replaces the subscription with the same endpoint.
	Save(ctx context.Context, s *Subscription) error
	FindByEndpoint(ctx context.Context, endpoint string) (*Subscription, error)
	// List returns userID's subscriptions, or every subscription when
	// userID is empty.
	List(ctx context.Context, userID string) ([]*Subscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
