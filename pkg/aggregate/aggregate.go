// Package aggregate builds a series' canonical volume list from provider
// works, the canonical override table, and (as a last resort) the user's own
// items. It never mutates storage; the reconciler decides what to do with a
// snapshot.
package aggregate

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfmark/shelfmark/pkg/isbn"
	"github.com/shelfmark/shelfmark/pkg/metadata"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/titlepattern"
)

// VolumeDraft is one candidate volume in a snapshot. Pointer fields
// distinguish "unknown" from present-but-empty, which the fill-forward merge
// depends on.
type VolumeDraft struct {
	Position    *int       `json:"position,omitempty"`
	Title       string     `json:"title"`
	ISBN13      *string    `json:"isbn_13,omitempty"`
	ISBN10      *string    `json:"isbn_10,omitempty"`
	Publisher   *string    `json:"publisher,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
	PageCount   *int       `json:"page_count,omitempty"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	Description *string    `json:"description,omitempty"`
	// Owned is set when the draft came from an owned item rather than
	// provider data.
	Owned bool `json:"owned"`
}

// Snapshot is the aggregator's view of a series: canonical volumes plus
// derived series-level metadata.
type Snapshot struct {
	Name           string        `json:"name"`
	Author         *string       `json:"author,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Publisher      *string       `json:"publisher,omitempty"`
	Genres         []string      `json:"genres"`
	FirstPublished *time.Time    `json:"first_published,omitempty"`
	LastPublished  *time.Time    `json:"last_published,omitempty"`
	Total          *int          `json:"total,omitempty"`
	Volumes        []VolumeDraft `json:"volumes"`
}

// OwnedSource supplies the owned items that back the provider-less fallback.
type OwnedSource interface {
	ItemsForSeriesName(ctx context.Context, name string) ([]*models.OwnedItem, error)
}

type Aggregator struct {
	provider metadata.Provider
	patterns *titlepattern.Library
	owned    OwnedSource
}

func New(provider metadata.Provider, patterns *titlepattern.Library, owned OwnedSource) *Aggregator {
	return &Aggregator{provider: provider, patterns: patterns, owned: owned}
}

// BuildSnapshot assembles the canonical volume list for a series. Override
// entries are seeded first so lower-priority provider data can only fill
// their gaps. A provider outage or empty result degrades to an
// owned-items-only snapshot; it never fails the call.
func (a *Aggregator) BuildSnapshot(ctx context.Context, name string, author *string) (*Snapshot, error) {
	snapshot := &Snapshot{Name: name, Author: author, Genres: []string{}}

	positioned := map[int]*VolumeDraft{}
	var unpositioned []*VolumeDraft

	if overrides := a.patterns.Overrides(); overrides != nil {
		if entry, ok := overrides.LookupSeries(name); ok {
			snapshot.Total = entry.Total
			for _, vol := range entry.Volumes {
				pos := vol.Position
				draft := &VolumeDraft{
					Position:  &pos,
					Title:     vol.Title,
					Published: vol.PublishedTime(),
				}
				if vol.ISBN13 != "" {
					normalized := isbn.Normalize(vol.ISBN13)
					draft.ISBN13 = &normalized
				}
				mergeDraft(positioned, &unpositioned, draft)
			}
		}
	}

	works, err := a.provider.SearchBySeriesName(ctx, name, author)
	if err != nil {
		if !errors.Is(err, metadata.ErrUnavailable) {
			return nil, err
		}
		logger.FromContext(ctx).Err(err).Warn("metadata provider unavailable, building snapshot from owned items")
		works = nil
	}

	genres := map[string]struct{}{}
	for i := range works {
		work := &works[i]
		if !workBelongsToSeries(work, name) {
			continue
		}
		for _, category := range work.Categories {
			genres[category] = struct{}{}
		}
		mergeDraft(positioned, &unpositioned, draftFromWork(work, a.patterns))
	}

	if len(positioned) == 0 && len(unpositioned) == 0 {
		if err := a.fillFromOwnedItems(ctx, name, positioned, &unpositioned); err != nil {
			return nil, err
		}
	}

	snapshot.Volumes = sortedDrafts(positioned, unpositioned)
	deriveAggregates(snapshot, genres)

	return snapshot, nil
}

// workBelongsToSeries filters loose provider search results: the work's
// extracted series name must match, or its title must start with the series
// name.
func workBelongsToSeries(work *metadata.Work, name string) bool {
	normalized := normalizeName(name)
	if ext := titlepattern.Extract(work.Title); ext.SeriesName != nil {
		return normalizeName(*ext.SeriesName) == normalized
	}
	return strings.HasPrefix(normalizeName(work.Title), normalized)
}

func draftFromWork(work *metadata.Work, patterns *titlepattern.Library) *VolumeDraft {
	return &VolumeDraft{
		Position:    patterns.Extract(work.Title).Position,
		Title:       work.Title,
		ISBN13:      work.ISBN13,
		ISBN10:      work.ISBN10,
		Publisher:   work.Publisher,
		Published:   work.Published,
		PageCount:   work.PageCount,
		CoverURL:    work.CoverURL,
		Description: work.Description,
	}
}

// mergeDraft merges a draft into the positioned index with fill-forward
// semantics: a field is written only when the existing value is absent.
// Present values are never replaced by lower-priority sources. Drafts
// without a position accumulate separately; there is nothing to merge them
// on.
func mergeDraft(positioned map[int]*VolumeDraft, unpositioned *[]*VolumeDraft, draft *VolumeDraft) {
	if draft.Position == nil {
		*unpositioned = append(*unpositioned, draft)
		return
	}

	existing, ok := positioned[*draft.Position]
	if !ok {
		positioned[*draft.Position] = draft
		return
	}

	if existing.Title == "" {
		existing.Title = draft.Title
	}
	if existing.ISBN13 == nil {
		existing.ISBN13 = draft.ISBN13
	}
	if existing.ISBN10 == nil {
		existing.ISBN10 = draft.ISBN10
	}
	if existing.Publisher == nil {
		existing.Publisher = draft.Publisher
	}
	if existing.Published == nil {
		existing.Published = draft.Published
	}
	if existing.PageCount == nil {
		existing.PageCount = draft.PageCount
	}
	if existing.CoverURL == nil {
		existing.CoverURL = draft.CoverURL
	}
	if existing.Description == nil {
		existing.Description = draft.Description
	}
	existing.Owned = existing.Owned || draft.Owned
}

// fillFromOwnedItems builds drafts from the user's own items when neither
// the provider nor the override table produced anything.
func (a *Aggregator) fillFromOwnedItems(ctx context.Context, name string, positioned map[int]*VolumeDraft, unpositioned *[]*VolumeDraft) error {
	items, err := a.owned.ItemsForSeriesName(ctx, name)
	if err != nil {
		return err
	}

	for _, item := range items {
		draft := &VolumeDraft{
			Position: item.Position,
			Title:    item.Title,
			Owned:    true,
		}
		if edition := item.PrimaryEdition(); edition != nil {
			if edition.ISBN != nil {
				normalized := isbn.Normalize(*edition.ISBN)
				switch len(normalized) {
				case 13:
					draft.ISBN13 = &normalized
				case 10:
					isbn10 := normalized
					draft.ISBN10 = &isbn10
				}
			}
			draft.Publisher = edition.Publisher
			draft.Published = edition.Published
			draft.CoverURL = edition.CoverURL
		}
		mergeDraft(positioned, unpositioned, draft)
	}
	return nil
}

// sortedDrafts orders positioned drafts ascending, then unknown positions by
// title.
func sortedDrafts(positioned map[int]*VolumeDraft, unpositioned []*VolumeDraft) []VolumeDraft {
	drafts := make([]VolumeDraft, 0, len(positioned)+len(unpositioned))

	positions := make([]int, 0, len(positioned))
	for pos := range positioned {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	for _, pos := range positions {
		drafts = append(drafts, *positioned[pos])
	}

	sort.Slice(unpositioned, func(i, j int) bool {
		return unpositioned[i].Title < unpositioned[j].Title
	})
	for _, draft := range unpositioned {
		drafts = append(drafts, *draft)
	}

	return drafts
}

// deriveAggregates computes series-level metadata from the volume list:
// genre union, min/max publish dates, and the most frequent non-null
// publisher.
func deriveAggregates(snapshot *Snapshot, genres map[string]struct{}) {
	for genre := range genres {
		snapshot.Genres = append(snapshot.Genres, genre)
	}
	sort.Strings(snapshot.Genres)

	publisherCounts := map[string]int{}
	for i := range snapshot.Volumes {
		vol := &snapshot.Volumes[i]
		if vol.Published != nil {
			if snapshot.FirstPublished == nil || vol.Published.Before(*snapshot.FirstPublished) {
				snapshot.FirstPublished = vol.Published
			}
			if snapshot.LastPublished == nil || vol.Published.After(*snapshot.LastPublished) {
				snapshot.LastPublished = vol.Published
			}
		}
		if vol.Publisher != nil && *vol.Publisher != "" {
			publisherCounts[*vol.Publisher]++
		}
	}

	best := ""
	bestCount := 0
	for publisher, count := range publisherCounts {
		if count > bestCount || (count == bestCount && publisher < best) {
			best = publisher
			bestCount = count
		}
	}
	if best != "" {
		snapshot.Publisher = &best
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
