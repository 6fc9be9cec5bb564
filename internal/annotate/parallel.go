package annotate

import (
	"context"
	"runtime"
	"sync"
)

// WorkResult is the analysis of the input at position Seq of a batch.
type WorkResult struct {
	Seq    int
	Result *VariantAnalysisResult
	Err    error
}

// ParallelAnalyze analyzes a batch of inputs on a pool of workers.
// Results arrive on the returned channel in completion order; use
// OrderedCollect to consume them in batch order. Once ctx is done no
// further inputs are dispatched and the channel closes after the in-flight
// ones finish. If workers is 0, runtime.NumCPU() is used.
func (a *Analyzer) ParallelAnalyze(ctx context.Context, inputs []*VariantInput, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(inputs), 1))

	seqs := make(chan int)
	results := make(chan WorkResult, 2*workers)

	go func() {
		defer close(seqs)
		for i := range inputs {
			select {
			case seqs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for seq := range seqs {
				r, err := a.Analyze(inputs[seq])
				results <- WorkResult{Seq: seq, Result: r, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence order, holding back
// early arrivals until their predecessors are in. It returns the first error
// from fn, draining the channel so workers can exit.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	next := 0

	for r := range results {
		pending[r.Seq] = r
		for {
			rr, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}
	return nil
}
