package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	// FindByUsername matches case-insensitively across active and inactive
	// users.
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, includeInactive bool) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
