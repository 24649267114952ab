package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	// JobTypeReconcileAll sweeps the whole catalog through the reconciler.
	JobTypeReconcileAll = "reconcile_all"
	// JobTypeSeriesSync rebuilds one series' volume list from provider
	// metadata, then reconciles it.
	JobTypeSeriesSync = "series_sync"
)

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID         int         `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	Progress   int         `json:"progress"`
	ProcessID  *string     `json:"process_id,omitempty"`
}

func (job *Job) UnmarshalData() error {
	switch job.Type {
	case JobTypeReconcileAll:
		job.DataParsed = &JobReconcileAllData{}
	case JobTypeSeriesSync:
		job.DataParsed = &JobSeriesSyncData{}
	}
	if job.Data == "" {
		return nil
	}

	err := json.Unmarshal([]byte(job.Data), job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

type JobReconcileAllData struct{}

type JobSeriesSyncData struct {
	SeriesName string  `json:"series_name"`
	Author     *string `json:"author,omitempty"`
}
