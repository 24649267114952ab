package worker

import (
	"context"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfmark/shelfmark/pkg/jobs"
	"github.com/shelfmark/shelfmark/pkg/models"
)

var jobUpdateProgress = jobs.UpdateJobOptions{Columns: []string{"progress"}}

// ProcessReconcileAllJob sweeps every series through the reconciler. Failed
// series are logged and counted, never fatal to the sweep.
func (w *Worker) ProcessReconcileAllJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)

	result, err := w.reconciler.ReconcileAll(ctx, w.config.ReconcileWorkers)
	if err != nil {
		return err
	}

	log.Data(logger.Data{
		"series_processed": result.SeriesProcessed,
		"total_changes":    result.TotalChanges,
		"failed":           len(result.Errors),
	}).Info("reconciliation sweep finished")

	for _, seriesErr := range result.Errors {
		log.Data(logger.Data{"series": seriesErr.Name, "error": seriesErr.Error}).Warn("series skipped during sweep")
	}

	job.Progress = 100
	return w.jobService.UpdateJob(ctx, job, jobUpdateProgress)
}
