package runtime

import (
	"context"
)

type (
	// StartFunc is a closure that triggers session start hook.
	StartFunc func(context.Context) error
	// FlushFunc is a closure that triggers session flush hook.
	FlushFunc func(context.Context) error
)

// Start calls the start hook.
func (fn StartFunc) Start(ctx context.Context) error {
	return callHook(ctx, fn)
}

// Flush calls the flush hook.
func (fn FlushFunc) Flush(ctx context.Context) error {
	return callHook(ctx, fn)
}

func callHook(ctx context.Context, hook func(context.Context) error) error {
	if hook == nil {
		return nil
	}
	return hook(ctx)
}
