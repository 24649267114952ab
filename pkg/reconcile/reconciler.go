// Package reconcile keeps a series' canonical volume list consistent with
// the owned items that claim membership in it. The validator reports
// problems; the reconciler repairs the repairable ones. Every pass is
// idempotent: running it twice without new evidence yields an empty change
// list the second time.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/isbn"
	"github.com/shelfmark/shelfmark/pkg/items"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/series"
)

const (
	ChangeKindStatus        = "status"
	ChangeKindTotal         = "total"
	ChangeKindVolumeCreated = "volume_created"
	ChangeKindVolumeDeleted = "volume_deleted"
)

// ChangeEntry records one applied (or would-be, in dry-run) fix, in terms a
// human auditing the pass can read.
type ChangeEntry struct {
	Position *int   `json:"position,omitempty"`
	Kind     string `json:"kind"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
	Reason   string `json:"reason"`
}

// Result is the outcome of a single-series pass.
type Result struct {
	Success bool          `json:"success"`
	Changes []ChangeEntry `json:"changes"`
}

type Reconciler struct {
	series *series.Service
	items  *items.Service
}

func NewReconciler(seriesSvc *series.Service, itemsSvc *items.Service) *Reconciler {
	return &Reconciler{series: seriesSvc, items: itemsSvc}
}

// ValidateSeries loads a series' state and runs the validator over it.
func (r *Reconciler) ValidateSeries(ctx context.Context, name string) (*Report, error) {
	s, volumes, ownedItems, err := r.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return Validate(s, volumes, ownedItems), nil
}

// Reconcile runs the four corrective steps over one series: deduplication,
// backfill, status sync, and total recompute. With applyFixes false it is a
// dry run: the change list is computed against in-memory state and nothing
// is written.
//
// The pass holds the series' advisory lock for its duration; contention is a
// storage conflict the caller may retry.
func (r *Reconciler) Reconcile(ctx context.Context, name string, applyFixes bool) (*Result, error) {
	if !r.series.TryLockSeries(name) {
		return nil, errcodes.StorageConflict("Series")
	}
	defer r.series.UnlockSeries(name)

	s, volumes, ownedItems, err := r.load(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &Result{Changes: []ChangeEntry{}}
	idx := indexOwnedItems(ownedItems)

	volumes, err = r.dedupVolumes(ctx, result, volumes, applyFixes)
	if err != nil {
		return nil, err
	}
	volumes, err = r.backfillVolumes(ctx, result, s, volumes, ownedItems, applyFixes)
	if err != nil {
		return nil, err
	}
	if err := r.syncStatuses(ctx, result, idx, volumes, applyFixes); err != nil {
		return nil, err
	}
	if err := r.recomputeTotal(ctx, result, s, volumes, ownedItems, applyFixes); err != nil {
		return nil, err
	}

	if applyFixes {
		now := time.Now()
		s.LastReconciledAt = &now
		err := r.series.UpdateSeries(ctx, s, series.UpdateSeriesOptions{Columns: []string{"last_reconciled_at"}})
		if err != nil {
			return nil, err
		}
	}

	result.Success = true
	return result, nil
}

func (r *Reconciler) load(ctx context.Context, name string) (*models.Series, []*models.Volume, []*models.OwnedItem, error) {
	s, err := r.series.RetrieveSeries(ctx, series.RetrieveSeriesOptions{Name: &name})
	if err != nil {
		return nil, nil, nil, err
	}
	volumes, err := r.series.VolumesForSeries(ctx, s.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	ownedItems, err := r.items.ItemsForSeriesName(ctx, s.Name)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, volumes, ownedItems, nil
}

// dedupVolumes collapses positions holding more than one volume down to the
// strongest candidate. Scoring favors ownership over bibliographic
// completeness; ties keep the oldest record.
func (r *Reconciler) dedupVolumes(ctx context.Context, result *Result, volumes []*models.Volume, applyFixes bool) ([]*models.Volume, error) {
	byPosition := map[int][]*models.Volume{}
	for _, vol := range volumes {
		if vol.Position != nil {
			byPosition[*vol.Position] = append(byPosition[*vol.Position], vol)
		}
	}

	doomed := map[int]struct{}{}
	positions := make([]int, 0, len(byPosition))
	for pos := range byPosition {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	for _, pos := range positions {
		group := byPosition[pos]
		if len(group) < 2 {
			continue
		}

		keeper := group[0]
		for _, candidate := range group[1:] {
			score, best := dedupScore(candidate), dedupScore(keeper)
			if score > best || (score == best && candidate.ID < keeper.ID) {
				keeper = candidate
			}
		}

		for _, vol := range group {
			if vol == keeper {
				continue
			}
			doomed[vol.ID] = struct{}{}
			position := pos
			result.Changes = append(result.Changes, ChangeEntry{
				Position: &position,
				Kind:     ChangeKindVolumeDeleted,
				OldValue: vol.Title,
				Reason:   fmt.Sprintf("duplicate of %q at position %d", keeper.Title, pos),
			})
			if applyFixes {
				if err := r.series.DeleteVolume(ctx, vol.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	kept := volumes[:0]
	for _, vol := range volumes {
		if _, gone := doomed[vol.ID]; !gone {
			kept = append(kept, vol)
		}
	}
	return kept, nil
}

func dedupScore(vol *models.Volume) int {
	score := 0
	if vol.Status == models.VolumeStatusOwned {
		score += 3
	}
	if vol.HasISBN() {
		score++
	}
	if vol.CoverURL != nil && *vol.CoverURL != "" {
		score++
	}
	return score
}

// backfillVolumes synthesizes a volume for every owned item whose declared
// position has no counterpart, copying metadata from the item's primary
// edition.
func (r *Reconciler) backfillVolumes(ctx context.Context, result *Result, s *models.Series, volumes []*models.Volume, ownedItems []*models.OwnedItem, applyFixes bool) ([]*models.Volume, error) {
	occupied := map[int]struct{}{}
	for _, vol := range volumes {
		if vol.Position != nil {
			occupied[*vol.Position] = struct{}{}
		}
	}

	for _, item := range ownedItems {
		if item.Position == nil {
			continue
		}
		if _, ok := occupied[*item.Position]; ok {
			continue
		}
		occupied[*item.Position] = struct{}{}

		vol := volumeFromOwnedItem(s.ID, item)
		position := *item.Position
		result.Changes = append(result.Changes, ChangeEntry{
			Position: &position,
			Kind:     ChangeKindVolumeCreated,
			NewValue: vol.Title,
			Reason:   fmt.Sprintf("owned item %q has no volume at position %d", item.Title, position),
		})
		if applyFixes {
			if err := r.series.CreateVolume(ctx, vol); err != nil {
				return nil, err
			}
		}
		volumes = append(volumes, vol)
	}

	return volumes, nil
}

func volumeFromOwnedItem(seriesID int, item *models.OwnedItem) *models.Volume {
	vol := &models.Volume{
		SeriesID:     seriesID,
		Position:     item.Position,
		Title:        item.Title,
		Status:       models.VolumeStatusOwned,
		StatusSource: models.StatusSourceSystem,
		AcquiredAt:   item.AcquiredAt,
	}
	if edition := item.PrimaryEdition(); edition != nil {
		if edition.ISBN != nil {
			normalized := isbn.Normalize(*edition.ISBN)
			switch len(normalized) {
			case 13:
				vol.ISBN13 = &normalized
			case 10:
				isbn10 := normalized
				vol.ISBN10 = &isbn10
			}
		}
		vol.Publisher = edition.Publisher
		vol.Published = edition.Published
		vol.CoverURL = edition.CoverURL
	}
	return vol
}

// syncStatuses aligns each volume's ownership status with the owned-item
// evidence. A volume with a manually set status is never touched. Absent a
// match, an existing "wanted" stands; everything else becomes "missing".
func (r *Reconciler) syncStatuses(ctx context.Context, result *Result, idx *ownedIndex, volumes []*models.Volume, applyFixes bool) error {
	for _, vol := range volumes {
		if vol.StatusSource == models.StatusSourceManual {
			continue
		}

		desired := vol.Status
		reason := ""
		if item := idx.match(vol); item != nil {
			desired = models.VolumeStatusOwned
			reason = fmt.Sprintf("matches owned item %q", item.Title)
		} else if vol.Status != models.VolumeStatusWanted {
			desired = models.VolumeStatusMissing
			reason = "no owned item matches"
		}

		if desired == vol.Status {
			continue
		}

		result.Changes = append(result.Changes, ChangeEntry{
			Position: vol.Position,
			Kind:     ChangeKindStatus,
			OldValue: vol.Status,
			NewValue: desired,
			Reason:   reason,
		})
		vol.Status = desired
		vol.StatusSource = models.StatusSourceSystem
		if applyFixes && vol.ID != 0 {
			err := r.series.UpdateVolume(ctx, vol, series.UpdateVolumeOptions{Columns: []string{"status", "status_source"}})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// recomputeTotal raises the declared total to match the evidence. It never
// lowers a total: a user-declared count larger than the known volumes is
// information, not an error.
func (r *Reconciler) recomputeTotal(ctx context.Context, result *Result, s *models.Series, volumes []*models.Volume, ownedItems []*models.OwnedItem, applyFixes bool) error {
	evidence := len(distinctPositions(volumes))
	if len(ownedItems) > evidence {
		evidence = len(ownedItems)
	}

	current := 0
	if s.Total != nil {
		current = *s.Total
	}
	if evidence <= current {
		return nil
	}

	result.Changes = append(result.Changes, ChangeEntry{
		Kind:     ChangeKindTotal,
		OldValue: fmt.Sprintf("%d", current),
		NewValue: fmt.Sprintf("%d", evidence),
		Reason:   "total below volume and owned item evidence",
	})
	s.Total = &evidence
	if applyFixes {
		err := r.series.UpdateSeries(ctx, s, series.UpdateSeriesOptions{Columns: []string{"total"}})
		if err != nil {
			return err
		}
	}
	return nil
}
