package suite

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rhuss/groovycheck/pkg/client"
)

// call is one unit of work for the pool.
type call func(ctx context.Context) (*client.StatusResponse, error)

// runPool runs calls on at most workers goroutines and waits for all of
// them. Results are stored by index. A failing call does not cancel the
// others; their errors are joined, prefixed with the call index.
func runPool(ctx context.Context, workers int, calls []call) ([]*client.StatusResponse, error) {
	results := make([]*client.StatusResponse, len(calls))
	errs := make([]error, len(calls))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range calls {
		g.Go(func() error {
			resp, err := c(ctx)
			results[i] = resp
			if err != nil {
				errs[i] = fmt.Errorf("request %d: %w", i, err)
			}
			return nil
		})
	}
	g.Wait()

	return results, errors.Join(errs...)
}
