package models

import (
	"time"

	"github.com/uptrace/bun"
)

// OwnedItem is something the user actually possesses. It declares series
// membership by free-text name only; nothing constrains that name to an
// existing Series row at write time, which is the drift the reconciler
// corrects.
type OwnedItem struct {
	bun.BaseModel `bun:"table:owned_items,alias:oi"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `bun:",soft_delete" json:"-"`
	Title      string     `bun:",nullzero" json:"title"`
	Authors    []string   `json:"authors"`
	SeriesName *string    `json:"series_name,omitempty"`
	Position   *int       `json:"position,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
	Editions   []*Edition `bun:"rel:has-many,join:id=owned_item_id" json:"editions,omitempty"`
}

// PrimaryEdition returns the edition flagged primary, falling back to the
// first edition when none is flagged.
func (oi *OwnedItem) PrimaryEdition() *Edition {
	for _, e := range oi.Editions {
		if e.IsPrimary {
			return e
		}
	}
	if len(oi.Editions) > 0 {
		return oi.Editions[0]
	}
	return nil
}

type Edition struct {
	bun.BaseModel `bun:"table:editions,alias:e"`

	ID          int        `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	OwnedItemID int        `bun:",nullzero" json:"owned_item_id"`
	ISBN        *string    `json:"isbn,omitempty"`
	Format      *string    `json:"format,omitempty"`
	Publisher   *string    `json:"publisher,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	IsPrimary   bool       `json:"is_primary"`
}
