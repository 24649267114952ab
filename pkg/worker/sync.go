package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfmark/shelfmark/pkg/aggregate"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/isbn"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/series"
)

// ProcessSeriesSyncJob rebuilds one series' canonical volume list from
// provider metadata and then reconciles it against the owned items. Existing
// volume fields are only filled, never overwritten, so user edits survive a
// resync.
func (w *Worker) ProcessSeriesSyncJob(ctx context.Context, job *models.Job) error {
	data, ok := job.DataParsed.(*models.JobSeriesSyncData)
	if !ok || data.SeriesName == "" {
		return errors.New("series sync job has no series name")
	}
	log := logger.FromContext(ctx).Data(logger.Data{"series": data.SeriesName})

	s, err := w.seriesService.FindOrCreateSeries(ctx, data.SeriesName)
	if err != nil {
		return err
	}

	author := data.Author
	if author == nil {
		author = s.PrimaryAuthor
	}
	snapshot, err := w.aggregator.BuildSnapshot(ctx, s.Name, author)
	if err != nil {
		return err
	}

	if err := w.applySnapshot(ctx, s, snapshot); err != nil {
		return err
	}

	job.Progress = 50
	err = w.jobService.UpdateJob(ctx, job, jobUpdateProgress)
	if err != nil {
		return err
	}

	result, err := w.reconciler.Reconcile(ctx, s.Name, true)
	if err != nil {
		return err
	}
	log.Data(logger.Data{"volumes": len(snapshot.Volumes), "changes": len(result.Changes)}).Info("series sync finished")

	job.Progress = 100
	return w.jobService.UpdateJob(ctx, job, jobUpdateProgress)
}

// applySnapshot writes a snapshot into storage under the series lock.
// Positioned drafts create missing volumes and fill gaps in existing ones;
// unknown-position drafts are only persisted when they carry an ISBN, since
// nothing else identifies them across syncs.
func (w *Worker) applySnapshot(ctx context.Context, s *models.Series, snapshot *aggregate.Snapshot) error {
	if !w.seriesService.TryLockSeries(s.Name) {
		return errcodes.StorageConflict("Series")
	}
	defer w.seriesService.UnlockSeries(s.Name)

	volumes, err := w.seriesService.VolumesForSeries(ctx, s.ID)
	if err != nil {
		return err
	}

	byPosition := map[int]*models.Volume{}
	byISBN := map[string]*models.Volume{}
	indexISBN := func(value *string, vol *models.Volume) {
		if value == nil {
			return
		}
		normalized := isbn.Normalize(*value)
		if normalized == "" {
			return
		}
		byISBN[normalized] = vol
		// Index the ISBN-13 form too so a draft carrying only the 10-digit
		// number still finds a volume stored under the 13-digit one.
		if equivalent := isbn.To13(normalized); equivalent != "" {
			byISBN[equivalent] = vol
		}
	}
	lookupISBN := func(value *string) *models.Volume {
		if value == nil {
			return nil
		}
		normalized := isbn.Normalize(*value)
		if vol, ok := byISBN[normalized]; ok {
			return vol
		}
		if equivalent := isbn.To13(normalized); equivalent != "" {
			return byISBN[equivalent]
		}
		return nil
	}
	for _, vol := range volumes {
		if vol.Position != nil {
			byPosition[*vol.Position] = vol
		}
		indexISBN(vol.ISBN13, vol)
		indexISBN(vol.ISBN10, vol)
	}

	for i := range snapshot.Volumes {
		draft := &snapshot.Volumes[i]

		var existing *models.Volume
		if draft.Position != nil {
			existing = byPosition[*draft.Position]
		} else {
			if draft.ISBN13 == nil && draft.ISBN10 == nil {
				continue
			}
			existing = lookupISBN(draft.ISBN13)
			if existing == nil {
				existing = lookupISBN(draft.ISBN10)
			}
		}

		if existing == nil {
			vol := volumeFromDraft(s.ID, draft)
			if err := w.seriesService.CreateVolume(ctx, vol); err != nil {
				return err
			}
			if vol.Position != nil {
				byPosition[*vol.Position] = vol
			}
			indexISBN(vol.ISBN13, vol)
			indexISBN(vol.ISBN10, vol)
			continue
		}

		columns := fillVolume(existing, draft)
		if len(columns) == 0 {
			continue
		}
		err := w.seriesService.UpdateVolume(ctx, existing, series.UpdateVolumeOptions{Columns: columns})
		if err != nil {
			return err
		}
	}

	return w.fillSeriesAggregates(ctx, s, snapshot)
}

func volumeFromDraft(seriesID int, draft *aggregate.VolumeDraft) *models.Volume {
	status := models.VolumeStatusMissing
	if draft.Owned {
		status = models.VolumeStatusOwned
	}
	return &models.Volume{
		SeriesID:     seriesID,
		Position:     draft.Position,
		Title:        draft.Title,
		ISBN13:       draft.ISBN13,
		ISBN10:       draft.ISBN10,
		Publisher:    draft.Publisher,
		Published:    draft.Published,
		PageCount:    draft.PageCount,
		CoverURL:     draft.CoverURL,
		Description:  draft.Description,
		Status:       status,
		StatusSource: models.StatusSourceSystem,
	}
}

// fillVolume copies draft fields into the volume's empty slots and reports
// which columns changed.
func fillVolume(vol *models.Volume, draft *aggregate.VolumeDraft) []string {
	var columns []string
	if vol.Title == "" && draft.Title != "" {
		vol.Title = draft.Title
		columns = append(columns, "title")
	}
	if vol.ISBN13 == nil && draft.ISBN13 != nil {
		vol.ISBN13 = draft.ISBN13
		columns = append(columns, "isbn_13")
	}
	if vol.ISBN10 == nil && draft.ISBN10 != nil {
		vol.ISBN10 = draft.ISBN10
		columns = append(columns, "isbn_10")
	}
	if vol.Publisher == nil && draft.Publisher != nil {
		vol.Publisher = draft.Publisher
		columns = append(columns, "publisher")
	}
	if vol.Published == nil && draft.Published != nil {
		vol.Published = draft.Published
		columns = append(columns, "published")
	}
	if vol.PageCount == nil && draft.PageCount != nil {
		vol.PageCount = draft.PageCount
		columns = append(columns, "page_count")
	}
	if vol.CoverURL == nil && draft.CoverURL != nil {
		vol.CoverURL = draft.CoverURL
		columns = append(columns, "cover_url")
	}
	if vol.Description == nil && draft.Description != nil {
		vol.Description = draft.Description
		columns = append(columns, "description")
	}
	return columns
}

func (w *Worker) fillSeriesAggregates(ctx context.Context, s *models.Series, snapshot *aggregate.Snapshot) error {
	var columns []string
	if s.Description == nil && snapshot.Description != nil {
		s.Description = snapshot.Description
		columns = append(columns, "description")
	}
	if s.Publisher == nil && snapshot.Publisher != nil {
		s.Publisher = snapshot.Publisher
		columns = append(columns, "publisher")
	}
	if len(s.Genres) == 0 && len(snapshot.Genres) > 0 {
		s.Genres = snapshot.Genres
		columns = append(columns, "genres")
	}
	if s.FirstPublished == nil && snapshot.FirstPublished != nil {
		s.FirstPublished = snapshot.FirstPublished
		columns = append(columns, "first_published")
	}
	if s.LastPublished == nil || (snapshot.LastPublished != nil && snapshot.LastPublished.After(*s.LastPublished)) {
		if snapshot.LastPublished != nil {
			s.LastPublished = snapshot.LastPublished
			columns = append(columns, "last_published")
		}
	}
	if snapshot.Total != nil && (s.Total == nil || *snapshot.Total > *s.Total) {
		s.Total = snapshot.Total
		columns = append(columns, "total")
	}

	if len(columns) == 0 {
		return nil
	}
	return w.seriesService.UpdateSeries(ctx, s, series.UpdateSeriesOptions{Columns: columns})
}
