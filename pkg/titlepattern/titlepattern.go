// Package titlepattern extracts a series name and volume position from an
// item title. Extraction is an ordered table of (matcher, extractor) pairs:
// the first rule whose regexp matches and whose extractor accepts wins.
// Everything here is pure; editorial knowledge about specific series lives in
// the injected override table, never in code.
package titlepattern

import (
	"regexp"
	"strconv"
	"strings"
)

// Extraction is the result of running a title through the rule table. Both
// fields are optional: the trailing-number fallback yields a position with no
// name, and an unmatched title yields neither.
type Extraction struct {
	SeriesName *string
	Position   *int
}

type rule struct {
	name    string
	re      *regexp.Regexp
	extract func(match []string) (Extraction, bool)
}

// The table is evaluated in order. Rules that capture a name reject
// bracket-prefixed titles so the dedicated bracket rule below can claim them.
var rules = []rule{
	{
		// "Bleach, Vol. 5" / "Bleach, Volume 5"
		name:    "comma_volume",
		re:      regexp.MustCompile(`^(.+?),\s*(?:Vol\.?|Volume)\s*(\d+)\b`),
		extract: namedExtraction,
	},
	{
		// "Mistborn #1"
		name:    "hash",
		re:      regexp.MustCompile(`^(.+?)\s*#(\d+)\s*$`),
		extract: namedExtraction,
	},
	{
		// "Berserk: 3" (the colon is a separator, not part of the name)
		name:    "colon",
		re:      regexp.MustCompile(`^(.+?):\s*(\d+)\s*$`),
		extract: namedExtraction,
	},
	{
		// "The Expanse (Book 2)" / "Dune (Vol 2)"
		name:    "parenthesized",
		re:      regexp.MustCompile(`^(.+?)\s*\((?:Book|Vol\.?)\s*(\d+)\)\s*$`),
		extract: namedExtraction,
	},
	{
		// "One Piece Vol. 12" without the comma
		name:    "bare_volume",
		re:      regexp.MustCompile(`^(.+?)\s+(?:Vol\.?|Volume)\s*(\d+)\b`),
		extract: namedExtraction,
	},
	{
		// "[Vagabond] VIZBIG Edition Vol. 3" / "[Akira] #4"
		name: "bracketed",
		re:   regexp.MustCompile(`^\[(.+?)\].*?(?:Vol\.?|Volume|#)\s*(\d+)\b`),
		extract: func(match []string) (Extraction, bool) {
			name := cleanName(match[1])
			pos, ok := parsePosition(match[2])
			if name == "" || !ok {
				return Extraction{}, false
			}
			return Extraction{SeriesName: &name, Position: &pos}, true
		},
	},
	{
		// Bare trailing "#3" or a number at the end of the title. No name:
		// a trailing number alone is not enough evidence for one.
		name: "trailing_number",
		re:   regexp.MustCompile(`(?:#|\s)(\d+)\s*$`),
		extract: func(match []string) (Extraction, bool) {
			pos, ok := parsePosition(match[1])
			if !ok {
				return Extraction{}, false
			}
			return Extraction{Position: &pos}, true
		},
	},
}

// Extract runs the title through the rule table.
func Extract(title string) Extraction {
	title = strings.TrimSpace(title)
	if title == "" {
		return Extraction{}
	}

	for _, r := range rules {
		match := r.re.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		if ext, ok := r.extract(match); ok {
			return ext
		}
	}
	return Extraction{}
}

// namedExtraction is the extractor shared by the rules that capture a name in
// group 1 and a position in group 2. It defers bracket-prefixed titles to the
// bracketed rule.
func namedExtraction(match []string) (Extraction, bool) {
	if strings.HasPrefix(strings.TrimSpace(match[1]), "[") {
		return Extraction{}, false
	}
	name := cleanName(match[1])
	pos, ok := parsePosition(match[2])
	if name == "" || !ok {
		return Extraction{}, false
	}
	return Extraction{SeriesName: &name, Position: &pos}, true
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ":,-")
	return strings.TrimSpace(name)
}

func parsePosition(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Library is the pattern library with its injected canonical override table.
// The override table is consulted before the rule ladder so known-correct
// editorial data beats heuristics.
type Library struct {
	overrides *Overrides
}

func New(overrides *Overrides) *Library {
	return &Library{overrides: overrides}
}

func (l *Library) Extract(title string) Extraction {
	if l.overrides != nil {
		if ext, ok := l.overrides.Extract(title); ok {
			return ext
		}
	}
	return Extract(title)
}

// Overrides returns the injected override table, which may be nil.
func (l *Library) Overrides() *Overrides {
	return l.overrides
}
