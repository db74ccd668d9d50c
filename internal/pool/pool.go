// Package pool runs homogeneous probe batches under a fixed concurrency
// bound, keeping only the results that succeeded.
package pool

import (
	"sync"

	"github.com/projectdiscovery/gologger"
	"golang.org/x/sync/errgroup"
)

const progressEvery = 25

// Map executes n tasks at most limit at a time and returns the successful
// results in completion order. A task that reports ok=false, or panics,
// contributes nothing; its siblings are unaffected.
func Map[T any](n, limit int, label string, task func(i int) (T, bool)) []T {
	if n == 0 {
		return nil
	}
	var (
		mu   sync.Mutex
		out  []T
		done int
	)
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			res, ok := runOne(label, i, task)
			mu.Lock()
			if ok {
				out = append(out, res)
			}
			done++
			if done%progressEvery == 0 || done == n {
				gologger.Info().Msgf("%s: %d/%d done, %d kept", label, done, n, len(out))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func runOne[T any](label string, i int, task func(int) (T, bool)) (res T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			gologger.Error().Msgf("%s: task %d panicked: %v", label, i, r)
			ok = false
		}
	}()
	return task(i)
}
