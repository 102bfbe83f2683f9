package simulation

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

// Call is one invocation for InvokeAll.
type Call struct {
	Hash   vm.Hash
	Params []interface{}
}

// Result is the outcome of one Call. Err is the fault, if any.
type Result struct {
	Item vm.Item
	Err  error
}

// InvokeAll runs calls concurrently, at most GOMAXPROCS at a time,
// and returns their results in order. A faulting call does not stop
// the others; InvokeAll itself fails only when ctx is done before
// every call has started.
func (s *Simulation) InvokeAll(ctx context.Context, calls []Call) ([]Result, error) {
	results := make([]Result, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range calls {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			it, err := s.Invoke(gctx, calls[i].Hash, calls[i].Params...)
			results[i] = Result{Item: it, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
