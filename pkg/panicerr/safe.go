package panicerr

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/panics"
)

func try(fn func() error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() { err = fn() })
	if err != nil {
		return err
	}
	return catcher.Recovered().AsError()
}

// Safe wraps fn so that a panic is returned as an error.
func Safe(fn func() error) func() error {
	return func() error { return try(fn) }
}

// SafeContext is Safe for functions taking a context.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return try(func() error { return fn(ctx) })
	}
}

// Loop runs a background worker until it returns. Panics and errors other
// than context cancellation are logged under name.
func Loop(ctx context.Context, name string, fn func(context.Context) error) {
	err := try(func() error { return fn(ctx) })
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "background worker stopped", "worker", name, "error", err)
	}
}
