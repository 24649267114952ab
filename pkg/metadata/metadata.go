// Package metadata defines the external metadata provider capability the
// detection and aggregation engines consume. Implementations must keep "no
// results" (empty slice, nil error) distinct from "provider failure"
// (ErrUnavailable): callers degrade differently on each.
package metadata

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrUnavailable indicates the provider could not be reached or returned a
// server error. Callers check for it with errors.Is and fall back to a
// lower-confidence strategy instead of failing the request.
var ErrUnavailable = errors.New("metadata provider unavailable")

// Work is one result from a provider search.
type Work struct {
	Title       string
	Authors     []string
	ISBN13      *string
	ISBN10      *string
	Publisher   *string
	Published   *time.Time
	PageCount   *int
	Categories  []string
	CoverURL    *string
	Description *string
}

type Provider interface {
	// SearchByAuthor returns every work the provider knows for an author.
	SearchByAuthor(ctx context.Context, author string) ([]Work, error)

	// SearchBySeriesName returns works matching a series name, optionally
	// scoped to an author.
	SearchBySeriesName(ctx context.Context, name string, author *string) ([]Work, error)
}
