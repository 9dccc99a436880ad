package runtime

import (
	"context"
	"fmt"
	"io"
)

type (
	// Executor executes a single step of the session.
	Executor interface {
		Execute(context.Context) error
		Start(context.Context) error
		Flush(context.Context) error
	}
)

// Run the executor. Flush is called on every exit path once Start has
// succeeded. Returned channel is closed when executor is done. io.EOF
// returned by Start or Execute means that the executor is done without
// errors.
func Run(ctx context.Context, e Executor) <-chan error {
	errc := make(chan error, 1)
	go run(ctx, e, errc)
	return errc
}

func run(ctx context.Context, e Executor, errc chan<- error) {
	defer close(errc)
	if err := e.Start(ctx); err != nil {
		if err != io.EOF {
			errc <- fmt.Errorf("error starting session: %w", err)
		}
		return
	}
	defer func() {
		if err := e.Flush(ctx); err != nil {
			errc <- fmt.Errorf("error flushing session: %w", err)
		}
	}()

	var err error
	for err == nil {
		err = e.Execute(ctx)
	}
	if err != io.EOF {
		errc <- fmt.Errorf("error running session: %w", err)
	}
}
