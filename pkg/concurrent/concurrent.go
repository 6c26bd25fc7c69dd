package concurrent

import (
	"context"
	"fmt"

	"github.com/zeusync/scenery/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Limited runs action for each element with at most workers goroutines at a time.
// A non-positive workers value means no limit. The context passed to action is
// cancelled once any action fails; Limited returns the first error.
// A panic inside action is recovered and returned as an error.
func Limited[T any](ctx context.Context, i *sequence.Iterator[T], workers int, action func(context.Context, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrPanicked, r)
				}
			}()
			return action(gctx, value)
		})
	}

	return g.Wait()
}
