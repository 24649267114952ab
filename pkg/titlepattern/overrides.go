package titlepattern

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/isbn"
)

// Overrides is the canonical override table: an externally supplied dataset
// of known-correct series data (declared totals, exact volume titles, ISBNs,
// publish dates) for series where rule-based extraction or provider data
// falls short. It is injected wherever it's needed; nothing in this dataset
// is compiled in.
type Overrides struct {
	series  map[string]*SeriesOverride
	byTitle map[string]overrideKey
	byISBN  map[string]overrideKey
}

type overrideKey struct {
	seriesName string
	position   int
}

type SeriesOverride struct {
	Name    string           `koanf:"name"`
	Total   *int             `koanf:"total"`
	Status  string           `koanf:"status"`
	Volumes []VolumeOverride `koanf:"volumes"`
}

type VolumeOverride struct {
	Position  int    `koanf:"position"`
	Title     string `koanf:"title"`
	ISBN13    string `koanf:"isbn_13"`
	Published string `koanf:"published"`
}

// PublishedTime parses the override's publish date (YYYY-MM-DD).
func (v *VolumeOverride) PublishedTime() *time.Time {
	if v.Published == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", v.Published)
	if err != nil {
		return nil
	}
	return &t
}

// LoadOverrides reads an override table from a YAML file. An empty path
// yields an empty table, so callers don't have to special-case "no overrides
// configured".
func LoadOverrides(path string) (*Overrides, error) {
	if path == "" {
		return NewOverrides(nil), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, "failed to load overrides file")
	}

	var entries []SeriesOverride
	if err := k.Unmarshal("series", &entries); err != nil {
		return nil, errors.Wrap(err, "failed to parse overrides file")
	}

	return NewOverrides(entries), nil
}

// NewOverrides builds the lookup indexes over the given entries.
func NewOverrides(entries []SeriesOverride) *Overrides {
	o := &Overrides{
		series:  map[string]*SeriesOverride{},
		byTitle: map[string]overrideKey{},
		byISBN:  map[string]overrideKey{},
	}
	for i := range entries {
		entry := entries[i]
		o.series[normalizeKey(entry.Name)] = &entry
		for _, vol := range entry.Volumes {
			key := overrideKey{seriesName: entry.Name, position: vol.Position}
			if vol.Title != "" {
				o.byTitle[normalizeKey(vol.Title)] = key
			}
			if vol.ISBN13 != "" {
				o.byISBN[isbn.Normalize(vol.ISBN13)] = key
			}
		}
	}
	return o
}

// Extract resolves an exact (case-insensitive) title match against the
// table's canonical volume titles.
func (o *Overrides) Extract(title string) (Extraction, bool) {
	key, ok := o.byTitle[normalizeKey(title)]
	if !ok {
		return Extraction{}, false
	}
	name := key.seriesName
	pos := key.position
	return Extraction{SeriesName: &name, Position: &pos}, true
}

// ExtractISBN resolves an ISBN against the table's canonical volume ISBNs.
func (o *Overrides) ExtractISBN(value string) (Extraction, bool) {
	key, ok := o.byISBN[isbn.Normalize(value)]
	if !ok {
		return Extraction{}, false
	}
	name := key.seriesName
	pos := key.position
	return Extraction{SeriesName: &name, Position: &pos}, true
}

// LookupSeries returns the override entry for a series name, if any.
func (o *Overrides) LookupSeries(name string) (*SeriesOverride, bool) {
	entry, ok := o.series[normalizeKey(name)]
	return entry, ok
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
