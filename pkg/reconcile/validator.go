package reconcile

import (
	"fmt"
	"sort"

	"github.com/shelfmark/shelfmark/pkg/models"
)

// maxFlaggedGap is the largest position gap worth warning about. Bigger gaps
// usually mean the catalog only knows a handful of scattered volumes, and a
// warning would be noise.
const maxFlaggedGap = 5

// Report is the validator's output. Errors are invariant violations the
// reconciler can usually repair; warnings are suspicious but not provably
// wrong.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate inspects a series, its volumes, and the owned items claiming
// membership in it. It is a pure function: no storage access, no mutation.
func Validate(series *models.Series, volumes []*models.Volume, items []*models.OwnedItem) *Report {
	report := &Report{Errors: []string{}, Warnings: []string{}}
	idx := indexOwnedItems(items)

	checkDuplicatePositions(report, volumes)
	checkOwnedCounts(report, idx, volumes)
	checkTotal(report, series, volumes, items)
	checkPositionGaps(report, volumes)

	report.Valid = len(report.Errors) == 0
	return report
}

func checkDuplicatePositions(report *Report, volumes []*models.Volume) {
	counts := map[int]int{}
	for _, vol := range volumes {
		if vol.Position != nil {
			counts[*vol.Position]++
		}
	}

	var duplicated []int
	for pos, count := range counts {
		if count > 1 {
			duplicated = append(duplicated, pos)
		}
	}
	sort.Ints(duplicated)

	for _, pos := range duplicated {
		report.Errors = append(report.Errors, fmt.Sprintf("position %d has %d volumes", pos, counts[pos]))
	}
}

func checkOwnedCounts(report *Report, idx *ownedIndex, volumes []*models.Volume) {
	ownedVolumes := 0
	for _, vol := range volumes {
		if vol.Status != models.VolumeStatusOwned {
			continue
		}
		ownedVolumes++
		if idx.match(vol) == nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("volume %q is marked owned but no owned item matches it", vol.Title))
		}
	}

	matched := idx.matchedItemCount(volumes)
	if ownedVolumes != matched {
		report.Errors = append(report.Errors, fmt.Sprintf("%d volumes are marked owned but %d owned items match", ownedVolumes, matched))
	}
}

func checkTotal(report *Report, series *models.Series, volumes []*models.Volume, items []*models.OwnedItem) {
	if series.Total == nil {
		return
	}

	positions := distinctPositions(volumes)
	evidence := len(positions)
	if len(items) > evidence {
		evidence = len(items)
	}

	if *series.Total < evidence {
		report.Errors = append(report.Errors, fmt.Sprintf("declared total %d is below the %d volumes in evidence", *series.Total, evidence))
	}
	if len(positions) > 0 && *series.Total > 2*len(positions) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("declared total %d is more than twice the %d known volumes", *series.Total, len(positions)))
	}
}

func checkPositionGaps(report *Report, volumes []*models.Volume) {
	positions := distinctPositions(volumes)
	if len(positions) == 0 {
		return
	}

	prev := 0
	for _, pos := range positions {
		gap := pos - prev - 1
		if gap >= 1 && gap <= maxFlaggedGap {
			report.Warnings = append(report.Warnings, fmt.Sprintf("positions %d through %d are absent", prev+1, pos-1))
		}
		prev = pos
	}
}

func distinctPositions(volumes []*models.Volume) []int {
	seen := map[int]struct{}{}
	for _, vol := range volumes {
		if vol.Position != nil {
			seen[*vol.Position] = struct{}{}
		}
	}

	positions := make([]int, 0, len(seen))
	for pos := range seen {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}
