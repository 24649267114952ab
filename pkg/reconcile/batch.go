package reconcile

import (
	"context"
	"sort"
	"sync"

	"github.com/robinjoseph08/golib/logger"
)

// SeriesError pairs a series name with the failure that stopped its pass.
type SeriesError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BatchResult summarizes a full-catalog sweep.
type BatchResult struct {
	SeriesProcessed int           `json:"series_processed"`
	TotalChanges    int           `json:"total_changes"`
	Errors          []SeriesError `json:"errors"`
}

// ReconcileAll sweeps every series, bounded to the given worker count. One
// series' failure is recorded and skipped; it never aborts the sweep.
// Series are dispatched in lexical name order. Cancelling the context stops
// scheduling new series; passes already in flight finish or fail on their
// own.
func (r *Reconciler) ReconcileAll(ctx context.Context, workers int) (*BatchResult, error) {
	names, err := r.series.ListSeriesNames(ctx)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	log := logger.FromContext(ctx)

	var mu sync.Mutex
	result := &BatchResult{Errors: []SeriesError{}}

	queue := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range queue {
				res, err := r.Reconcile(ctx, name, true)

				mu.Lock()
				if err != nil {
					result.Errors = append(result.Errors, SeriesError{Name: name, Error: err.Error()})
				} else {
					result.SeriesProcessed++
					result.TotalChanges += len(res.Changes)
				}
				mu.Unlock()

				if err != nil {
					log.Err(err).Data(logger.Data{"series": name}).Warn("series reconciliation failed")
				}
			}
		}()
	}

dispatch:
	for _, name := range names {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- name:
		}
	}
	close(queue)
	wg.Wait()

	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Name < result.Errors[j].Name
	})

	return result, nil
}

// ValidateAll runs the validator over every series without mutating
// anything.
func (r *Reconciler) ValidateAll(ctx context.Context) (map[string]*Report, error) {
	names, err := r.series.ListSeriesNames(ctx)
	if err != nil {
		return nil, err
	}

	reports := make(map[string]*Report, len(names))
	for _, name := range names {
		report, err := r.ValidateSeries(ctx, name)
		if err != nil {
			return nil, err
		}
		reports[name] = report
	}
	return reports, nil
}
