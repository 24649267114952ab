package worker

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shelfmark/shelfmark/pkg/aggregate"
	"github.com/shelfmark/shelfmark/pkg/config"
	"github.com/shelfmark/shelfmark/pkg/items"
	"github.com/shelfmark/shelfmark/pkg/jobs"
	"github.com/shelfmark/shelfmark/pkg/metadata"
	"github.com/shelfmark/shelfmark/pkg/migrations"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/series"
	"github.com/shelfmark/shelfmark/pkg/titlepattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type fakeProvider struct {
	works []metadata.Work
	err   error
}

func (f *fakeProvider) SearchByAuthor(_ context.Context, _ string) ([]metadata.Work, error) {
	return nil, nil
}

func (f *fakeProvider) SearchBySeriesName(_ context.Context, _ string, _ *string) ([]metadata.Work, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.works, nil
}

type testContext struct {
	ctx           context.Context
	worker        *Worker
	jobService    *jobs.Service
	seriesService *series.Service
	itemService   *items.Service
}

func newTestContext(t *testing.T, provider metadata.Provider) *testContext {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	cfg := config.NewForTest()
	w := New(cfg, db, provider, titlepattern.New(nil))

	return &testContext{
		ctx:           context.Background(),
		worker:        w,
		jobService:    jobs.NewService(db),
		seriesService: series.NewService(db),
		itemService:   items.NewService(db),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestProcessSeriesSyncJob(t *testing.T) {
	provider := &fakeProvider{
		works: []metadata.Work{
			{Title: "Pluto, Vol. 1", ISBN13: strPtr("9781421519180")},
			{Title: "Pluto, Vol. 2", ISBN13: strPtr("9781421519197")},
		},
	}
	tc := newTestContext(t, provider)

	require.NoError(t, tc.itemService.CreateOwnedItem(tc.ctx, &models.OwnedItem{
		Title:      "Pluto, Vol. 1",
		SeriesName: strPtr("Pluto"),
		Position:   intPtr(1),
	}))

	job := &models.Job{
		Type:       models.JobTypeSeriesSync,
		Status:     models.JobStatusInProgress,
		DataParsed: &models.JobSeriesSyncData{SeriesName: "Pluto"},
	}
	require.NoError(t, tc.jobService.CreateJob(tc.ctx, job))

	require.NoError(t, tc.worker.ProcessSeriesSyncJob(tc.ctx, job))
	assert.Equal(t, 100, job.Progress)

	s, err := tc.seriesService.RetrieveSeries(tc.ctx, series.RetrieveSeriesOptions{Name: strPtr("Pluto")})
	require.NoError(t, err)

	volumes, err := tc.seriesService.VolumesForSeries(tc.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 2)
	assert.Equal(t, models.VolumeStatusOwned, volumes[0].Status)
	assert.Equal(t, models.VolumeStatusMissing, volumes[1].Status)
	require.NotNil(t, s.Total)
	assert.Equal(t, 2, *s.Total)
}

func TestProcessSeriesSyncJob_ProviderDown(t *testing.T) {
	tc := newTestContext(t, &fakeProvider{err: metadata.ErrUnavailable})

	require.NoError(t, tc.itemService.CreateOwnedItem(tc.ctx, &models.OwnedItem{
		Title:      "Pluto, Vol. 1",
		SeriesName: strPtr("Pluto"),
		Position:   intPtr(1),
	}))

	job := &models.Job{
		Type:       models.JobTypeSeriesSync,
		Status:     models.JobStatusInProgress,
		DataParsed: &models.JobSeriesSyncData{SeriesName: "Pluto"},
	}
	require.NoError(t, tc.jobService.CreateJob(tc.ctx, job))

	require.NoError(t, tc.worker.ProcessSeriesSyncJob(tc.ctx, job))

	s, err := tc.seriesService.RetrieveSeries(tc.ctx, series.RetrieveSeriesOptions{Name: strPtr("Pluto")})
	require.NoError(t, err)
	volumes, err := tc.seriesService.VolumesForSeries(tc.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 1)
	assert.Equal(t, models.VolumeStatusOwned, volumes[0].Status)
}

func TestProcessSeriesSyncJob_MissingName(t *testing.T) {
	tc := newTestContext(t, &fakeProvider{})

	job := &models.Job{
		Type:       models.JobTypeSeriesSync,
		DataParsed: &models.JobSeriesSyncData{},
	}
	err := tc.worker.ProcessSeriesSyncJob(tc.ctx, job)
	require.Error(t, err)
}

func TestApplySnapshot_ISBN10FindsVolumeStoredUnderISBN13(t *testing.T) {
	tc := newTestContext(t, &fakeProvider{})

	s := &models.Series{Name: "Berserk"}
	require.NoError(t, tc.seriesService.CreateSeries(tc.ctx, s))
	require.NoError(t, tc.seriesService.CreateVolume(tc.ctx, &models.Volume{
		SeriesID: s.ID,
		Title:    "Berserk Guidebook",
		ISBN13:   strPtr("9781593070205"),
	}))

	// The draft carries only the 10-digit form of the same number and no
	// position; it must fill the existing volume, not create a second one.
	snapshot := &aggregate.Snapshot{
		Name: "Berserk",
		Volumes: []aggregate.VolumeDraft{
			{Title: "Berserk Guidebook", ISBN10: strPtr("1593070209")},
		},
	}
	require.NoError(t, tc.worker.applySnapshot(tc.ctx, s, snapshot))

	volumes, err := tc.seriesService.VolumesForSeries(tc.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 1)
	require.NotNil(t, volumes[0].ISBN10)
	assert.Equal(t, "1593070209", *volumes[0].ISBN10)
}

func TestProcessReconcileAllJob(t *testing.T) {
	tc := newTestContext(t, &fakeProvider{})

	s := &models.Series{Name: "Foo"}
	require.NoError(t, tc.seriesService.CreateSeries(tc.ctx, s))
	require.NoError(t, tc.seriesService.CreateVolume(tc.ctx, &models.Volume{
		SeriesID: s.ID,
		Position: intPtr(1),
		Title:    "Foo, Vol. 1",
		Status:   models.VolumeStatusMissing,
	}))
	require.NoError(t, tc.itemService.CreateOwnedItem(tc.ctx, &models.OwnedItem{
		Title:      "Foo, Vol. 1",
		SeriesName: strPtr("Foo"),
		Position:   intPtr(1),
	}))

	job := &models.Job{
		Type:       models.JobTypeReconcileAll,
		Status:     models.JobStatusInProgress,
		DataParsed: &models.JobReconcileAllData{},
	}
	require.NoError(t, tc.jobService.CreateJob(tc.ctx, job))

	require.NoError(t, tc.worker.ProcessReconcileAllJob(tc.ctx, job))
	assert.Equal(t, 100, job.Progress)

	volumes, err := tc.seriesService.VolumesForSeries(tc.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 1)
	assert.Equal(t, models.VolumeStatusOwned, volumes[0].Status)
}

func TestEnqueueSweep_SkipsWhenActive(t *testing.T) {
	tc := newTestContext(t, &fakeProvider{})

	require.NoError(t, tc.worker.enqueueSweep(tc.ctx))
	require.NoError(t, tc.worker.enqueueSweep(tc.ctx))

	allJobs, err := tc.jobService.ListJobs(tc.ctx, jobs.ListJobsOptions{})
	require.NoError(t, err)
	assert.Len(t, allJobs, 1)
}
