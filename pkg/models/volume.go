package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	VolumeStatusOwned   = "owned"
	VolumeStatusWanted  = "wanted"
	VolumeStatusMissing = "missing"
)

const (
	// StatusSourceManual marks a status set by the user. The reconciler
	// never overwrites a manual status.
	StatusSourceManual = "manual"
	// StatusSourceSystem marks a status derived from owned-item evidence.
	StatusSourceSystem = "system"
)

// Volume is one entry in a series' canonical ordered list, whether or not
// the user owns it. Position is its natural ordering within the series and
// is not guaranteed to be contiguous; NULL means the position is unknown.
type Volume struct {
	bun.BaseModel `bun:"table:volumes,alias:v"`

	ID           int        `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `bun:",soft_delete" json:"-"`
	SeriesID     int        `bun:",nullzero" json:"series_id"`
	Series       *Series    `bun:"rel:belongs-to,join:series_id=id" json:"series,omitempty"`
	Position     *int       `json:"position,omitempty"`
	Title        string     `bun:",nullzero" json:"title"`
	ISBN13       *string    `bun:"isbn_13" json:"isbn_13,omitempty"`
	ISBN10       *string    `bun:"isbn_10" json:"isbn_10,omitempty"`
	Publisher    *string    `json:"publisher,omitempty"`
	Published    *time.Time `json:"published,omitempty"`
	PageCount    *int       `json:"page_count,omitempty"`
	CoverURL     *string    `json:"cover_url,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       string     `bun:",nullzero" json:"status"`
	StatusSource string     `bun:",nullzero" json:"status_source"`
	Notes        *string    `json:"notes,omitempty"`
	AcquiredAt   *time.Time `json:"acquired_at,omitempty"`
}

// HasISBN reports whether the volume carries any ISBN.
func (v *Volume) HasISBN() bool {
	return (v.ISBN13 != nil && *v.ISBN13 != "") || (v.ISBN10 != nil && *v.ISBN10 != "")
}
