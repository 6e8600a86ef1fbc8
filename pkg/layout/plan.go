package layout

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

// defaultStream separates the shared sequential stream from the
// per-fragment streams used by PlanParallel.
const defaultStream = 0x9e3779b97f4a7c15

// Result is the outcome of placing one fragment. Err is non-nil when the
// fragment could not be placed; Placement then carries the index and the
// attempted position only.
type Result struct {
	Placement Placement
	Err       error
}

// NewSource returns the seeded random stream used for a sequential layout.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, defaultStream))
}

// FragmentSource returns the independent random stream of one fragment.
// The stream depends only on seed and localIndex.
func FragmentSource(seed uint64, localIndex int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(localIndex)))
}

// Plan places every fragment of req in index order, drawing from a single
// shared stream.
func Plan(req Request, rng Source) ([]Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	total := req.Total()
	params := req.Params()
	results := make([]Result, total)
	for i := range total {
		pl, err := Compute(i, total, params, rng)
		results[i] = Result{Placement: pl, Err: err}
	}
	return results, nil
}

// PlanParallel places every fragment of req using up to workers goroutines.
// Each fragment draws from FragmentSource(seed, localIndex), so the result
// does not depend on the worker count or on scheduling.
func PlanParallel(ctx context.Context, req Request, seed uint64, workers int) ([]Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	total := req.Total()
	params := req.Params()
	results := make([]Result, total)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range total {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pl, err := Compute(i, total, params, FragmentSource(seed, i))
			results[i] = Result{Placement: pl, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
