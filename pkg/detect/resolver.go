package detect

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfmark/shelfmark/pkg/metadata"
	"github.com/shelfmark/shelfmark/pkg/titlepattern"
)

type Source string

const (
	// SourceDirect means the item declared its series name itself.
	SourceDirect Source = "direct"
	// SourceCrossReference means the series emerged from grouping the
	// author's other works.
	SourceCrossReference Source = "cross_reference"
	// SourcePattern means the series name was extracted from the single
	// title alone.
	SourcePattern Source = "pattern"
)

// Detection is a resolved series identity tagged with how it was found.
// Strategies are tried in a fixed priority order and each one yields a fixed
// confidence, so callers can rank detections from different passes.
type Detection struct {
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence"`
	SeriesName string  `json:"series_name"`
	Position   *int    `json:"position,omitempty"`
}

const (
	confidenceDirect         = 1.0
	confidenceCrossReference = 0.9
	confidencePattern        = 0.5
)

// minNameLength guards the pattern-only strategy: series names this short
// are nearly always false positives from the rule ladder.
const minNameLength = 3

// stopwords that disqualify a pattern-extracted name when they end it.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"of": {}, "and": {}, "or": {},
	"in": {}, "on": {}, "at": {}, "to": {},
}

type Resolver struct {
	patterns *titlepattern.Library
	provider metadata.Provider
}

func NewResolver(patterns *titlepattern.Library, provider metadata.Provider) *Resolver {
	return &Resolver{patterns: patterns, provider: provider}
}

// Resolve finds the series an item belongs to. Strategies run in priority
// order and the first success wins. A provider outage degrades to the
// pattern-only strategy; it never fails the call. Returns nil when no series
// is detected.
func (r *Resolver) Resolve(ctx context.Context, title string, authors []string, declaredSeriesName *string) (*Detection, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}

	if d := r.resolveDirect(title, declaredSeriesName); d != nil {
		return d, nil
	}

	d, err := r.resolveCrossReference(ctx, title, authors)
	if err != nil {
		if !errors.Is(err, metadata.ErrUnavailable) {
			return nil, err
		}
		logger.FromContext(ctx).Err(err).Warn("metadata provider unavailable, degrading to pattern detection")
	}
	if d != nil {
		return d, nil
	}

	return r.resolvePattern(title), nil
}

// resolveDirect trusts a declared series name verbatim. Highest confidence.
func (r *Resolver) resolveDirect(title string, declaredSeriesName *string) *Detection {
	if declaredSeriesName == nil {
		return nil
	}
	name := strings.TrimSpace(*declaredSeriesName)
	if name == "" {
		return nil
	}

	return &Detection{
		Source:     SourceDirect,
		Confidence: confidenceDirect,
		SeriesName: name,
		Position:   r.patterns.Extract(title).Position,
	}
}

// resolveCrossReference queries every work by the item's first author and
// groups the returned titles through the pattern library. A group counts
// only when it contains the original title and has at least two members;
// one ambiguous title is not enough evidence for a series.
func (r *Resolver) resolveCrossReference(ctx context.Context, title string, authors []string) (*Detection, error) {
	if len(authors) == 0 {
		return nil, nil
	}

	works, err := r.provider.SearchByAuthor(ctx, authors[0])
	if err != nil {
		return nil, err
	}

	type group struct {
		seriesName    string
		members       int
		containsTitle bool
		position      *int
	}
	groups := map[string]*group{}

	normalizedTitle := normalizeTitle(title)
	for _, work := range works {
		ext := r.patterns.Extract(work.Title)
		if ext.SeriesName == nil {
			continue
		}
		key := normalizeTitle(*ext.SeriesName)
		g, ok := groups[key]
		if !ok {
			g = &group{seriesName: *ext.SeriesName}
			groups[key] = g
		}
		g.members++
		if normalizeTitle(work.Title) == normalizedTitle {
			g.containsTitle = true
			g.position = ext.Position
		}
	}

	for _, g := range groups {
		if g.containsTitle && g.members >= 2 {
			return &Detection{
				Source:     SourceCrossReference,
				Confidence: confidenceCrossReference,
				SeriesName: g.seriesName,
				Position:   g.position,
			}, nil
		}
	}
	return nil, nil
}

// resolvePattern applies the rule ladder to the single title. Lowest
// confidence: only plausible name segments are accepted.
func (r *Resolver) resolvePattern(title string) *Detection {
	ext := r.patterns.Extract(title)
	if ext.SeriesName == nil {
		return nil
	}

	name := *ext.SeriesName
	if len(name) <= minNameLength {
		return nil
	}
	words := strings.Fields(strings.ToLower(name))
	if len(words) > 0 {
		if _, stop := stopwords[words[len(words)-1]]; stop {
			return nil
		}
	}

	return &Detection{
		Source:     SourcePattern,
		Confidence: confidencePattern,
		SeriesName: name,
		Position:   ext.Position,
	}
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
