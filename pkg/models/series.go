package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SeriesStatusOngoing   = "ongoing"
	SeriesStatusCompleted = "completed"
	SeriesStatusUnknown   = "unknown"
)

type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID               int        `bun:",pk,nullzero" json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `bun:",soft_delete" json:"-"`
	Name             string     `bun:",nullzero" json:"name"`
	SortName         string     `bun:",nullzero" json:"sort_name"`
	PrimaryAuthor    *string    `json:"primary_author,omitempty"`
	Total            *int       `json:"total,omitempty"`
	Status           string     `bun:",nullzero" json:"status"`
	Description      *string    `json:"description,omitempty"`
	Publisher        *string    `json:"publisher,omitempty"`
	Genres           []string   `json:"genres"`
	Tags             []string   `json:"tags"`
	FirstPublished   *time.Time `json:"first_published,omitempty"`
	LastPublished    *time.Time `json:"last_published,omitempty"`
	LastReconciledAt *time.Time `json:"last_reconciled_at,omitempty"`
	CoverURL         *string    `json:"cover_url,omitempty"`
	Volumes          []*Volume  `bun:"rel:has-many,join:id=series_id" json:"volumes,omitempty"`
	VolumeCount      int        `bun:",scanonly" json:"volume_count"`
}
