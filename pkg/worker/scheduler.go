package worker

import (
	"context"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfmark/shelfmark/pkg/models"
)

// scheduleSweeps periodically enqueues a full-catalog reconciliation sweep.
// A sweep already pending or in progress is left alone; the next tick will
// try again.
func (w *Worker) scheduleSweeps() {
	interval := time.Duration(w.config.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		w.doneScheduling <- struct{}{}
		return
	}
	timer := time.NewTimer(interval)

	for {
		select {
		case <-w.shutdown:
			w.doneScheduling <- struct{}{}
			return
		case <-timer.C:
			if err := w.enqueueSweep(context.Background()); err != nil {
				w.log.Err(err).Error("schedule sweep error")
			}
			timer.Reset(interval)
		}
	}
}

func (w *Worker) enqueueSweep(ctx context.Context) error {
	hasActive, err := w.jobService.HasActiveJobByType(ctx, models.JobTypeReconcileAll)
	if err != nil {
		return err
	}
	if hasActive {
		return nil
	}

	job := &models.Job{
		Type:       models.JobTypeReconcileAll,
		Status:     models.JobStatusPending,
		DataParsed: &models.JobReconcileAllData{},
	}
	err = w.jobService.CreateJob(ctx, job)
	if err != nil {
		return err
	}
	w.log.Data(logger.Data{"job_id": job.ID}).Info("scheduled reconciliation sweep")
	return nil
}
