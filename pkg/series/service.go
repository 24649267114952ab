package series

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/sortname"
	"github.com/uptrace/bun"
)

type RetrieveSeriesOptions struct {
	ID   *int
	Name *string
}

type ListSeriesOptions struct {
	Limit  *int
	Offset *int
	Status *string

	includeTotal bool
}

type UpdateSeriesOptions struct {
	Columns []string
}

type UpdateVolumeOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// DB exposes the underlying handle for callers that need to compose
// transactions across services.
func (svc *Service) DB() *bun.DB {
	return svc.db
}

func (svc *Service) CreateSeries(ctx context.Context, series *models.Series) error {
	now := time.Now()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = series.CreatedAt

	if series.SortName == "" {
		series.SortName = sortname.ForTitle(series.Name)
	}
	if series.Status == "" {
		series.Status = models.SeriesStatusUnknown
	}

	_, err := svc.db.
		NewInsert().
		Model(series).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := svc.db.
		NewSelect().
		Model(series)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		// Case-insensitive match on the natural key
		q = q.Where("LOWER(s.name) = LOWER(?)", strings.TrimSpace(*opts.Name))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}

	return series, nil
}

// FindOrCreateSeries finds an existing series or creates a new one
// (case-insensitive match on name).
func (svc *Service) FindOrCreateSeries(ctx context.Context, name string) (*models.Series, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("series name cannot be empty")
	}

	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{Name: &name})
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, errcodes.NotFound("Series")) {
		return nil, err
	}

	series = &models.Series{
		Name:     name,
		SortName: sortname.ForTitle(name),
		Status:   models.SeriesStatusUnknown,
	}
	err = svc.CreateSeries(ctx, series)
	if err != nil {
		// Handle race condition: if another goroutine created the same series
		// between our retrieve and create, retry the retrieve
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return svc.RetrieveSeries(ctx, RetrieveSeriesOptions{Name: &name})
		}
		return nil, err
	}
	return series, nil
}

func (svc *Service) ListSeries(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, error) {
	s, _, err := svc.listSeriesWithTotal(ctx, opts)
	return s, errors.WithStack(err)
}

func (svc *Service) ListSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	opts.includeTotal = true
	return svc.listSeriesWithTotal(ctx, opts)
}

func (svc *Service) listSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	var series []*models.Series
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&series).
		ColumnExpr("s.*").
		ColumnExpr("(SELECT COUNT(*) FROM volumes WHERE volumes.series_id = s.id AND volumes.deleted_at IS NULL) AS volume_count").
		Order("s.sort_name ASC")

	if opts.Status != nil {
		q = q.Where("s.status = ?", *opts.Status)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return series, total, nil
}

// ListSeriesNames returns every series name in ascending lexical order. The
// batch orchestrator relies on this ordering being deterministic.
func (svc *Service) ListSeriesNames(ctx context.Context) ([]string, error) {
	var names []string
	err := svc.db.
		NewSelect().
		Model((*models.Series)(nil)).
		Column("name").
		Order("name ASC").
		Scan(ctx, &names)
	return names, errors.WithStack(err)
}

func (svc *Service) UpdateSeries(ctx context.Context, series *models.Series, opts UpdateSeriesOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	series.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(series).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Series")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteSeries soft-deletes a series and its volumes.
func (svc *Service) DeleteSeries(ctx context.Context, seriesID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Volume)(nil)).
			Where("series_id = ?", seriesID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Series)(nil)).
			Where("id = ?", seriesID).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) CreateVolume(ctx context.Context, volume *models.Volume) error {
	now := time.Now()
	if volume.CreatedAt.IsZero() {
		volume.CreatedAt = now
	}
	volume.UpdatedAt = volume.CreatedAt

	if volume.Status == "" {
		volume.Status = models.VolumeStatusMissing
	}
	if volume.StatusSource == "" {
		volume.StatusSource = models.StatusSourceSystem
	}

	_, err := svc.db.
		NewInsert().
		Model(volume).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveVolume(ctx context.Context, id int) (*models.Volume, error) {
	volume := &models.Volume{}

	err := svc.db.
		NewSelect().
		Model(volume).
		Where("v.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Volume")
		}
		return nil, errors.WithStack(err)
	}

	return volume, nil
}

// VolumesForSeries returns a series' volumes ordered by position, with
// unknown positions sorted last.
func (svc *Service) VolumesForSeries(ctx context.Context, seriesID int) ([]*models.Volume, error) {
	var volumes []*models.Volume

	err := svc.db.
		NewSelect().
		Model(&volumes).
		Where("v.series_id = ?", seriesID).
		OrderExpr("v.position IS NULL, v.position ASC, v.title ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return volumes, nil
}

func (svc *Service) UpdateVolume(ctx context.Context, volume *models.Volume, opts UpdateVolumeOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	volume.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(volume).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Volume")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteVolume soft-deletes a volume.
func (svc *Service) DeleteVolume(ctx context.Context, volumeID int) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.Volume)(nil)).
		Where("id = ?", volumeID).
		Exec(ctx)
	return errors.WithStack(err)
}
