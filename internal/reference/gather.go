package reference

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Gather runs independent fetches concurrently and waits for all of them.
// It returns the first error; the context passed to the remaining fetches
// is cancelled when one fails. Each fetch must write only to state it owns.
func Gather(ctx context.Context, fetches ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fetch := range fetches {
		g.Go(func() error {
			return fetch(gctx)
		})
	}
	return g.Wait()
}
