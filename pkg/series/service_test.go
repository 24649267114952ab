package series

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/migrations"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestCreateSeries_Defaults(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	s := &models.Series{Name: "The Expanse"}
	require.NoError(t, svc.CreateSeries(ctx, s))

	assert.NotZero(t, s.ID)
	assert.Equal(t, "Expanse, The", s.SortName)
	assert.Equal(t, models.SeriesStatusUnknown, s.Status)
}

func TestRetrieveSeries_ByNameCaseInsensitive(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.CreateSeries(ctx, &models.Series{Name: "Berserk"}))

	s, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{Name: strPtr("  berserk ")})
	require.NoError(t, err)
	assert.Equal(t, "Berserk", s.Name)

	_, err = svc.RetrieveSeries(ctx, RetrieveSeriesOptions{Name: strPtr("Vinland Saga")})
	assert.ErrorIs(t, err, errcodes.NotFound("Series"))
}

func TestFindOrCreateSeries(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	first, err := svc.FindOrCreateSeries(ctx, "Dune")
	require.NoError(t, err)

	second, err := svc.FindOrCreateSeries(ctx, "dune")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.FindOrCreateSeries(ctx, "   ")
	require.Error(t, err)
}

func TestListSeries_CountsVolumes(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	s := &models.Series{Name: "Akira"}
	require.NoError(t, svc.CreateSeries(ctx, s))
	for i := 1; i <= 3; i++ {
		require.NoError(t, svc.CreateVolume(ctx, &models.Volume{
			SeriesID: s.ID,
			Position: intPtr(i),
			Title:    "Akira",
		}))
	}
	require.NoError(t, svc.CreateSeries(ctx, &models.Series{Name: "Monster"}))

	list, total, err := svc.ListSeriesWithTotal(ctx, ListSeriesOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Akira", list[0].Name)
	assert.Equal(t, 3, list[0].VolumeCount)
	assert.Equal(t, 0, list[1].VolumeCount)
}

func TestListSeriesNames_Lexical(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Monster", "Akira", "Berserk"} {
		require.NoError(t, svc.CreateSeries(ctx, &models.Series{Name: name}))
	}

	names, err := svc.ListSeriesNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Akira", "Berserk", "Monster"}, names)
}

func TestDeleteSeries_RemovesVolumes(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	s := &models.Series{Name: "Akira"}
	require.NoError(t, svc.CreateSeries(ctx, s))
	require.NoError(t, svc.CreateVolume(ctx, &models.Volume{SeriesID: s.ID, Position: intPtr(1), Title: "Akira #1"}))

	require.NoError(t, svc.DeleteSeries(ctx, s.ID))

	_, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &s.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Series"))

	volumes, err := svc.VolumesForSeries(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, volumes)
}

func TestCreateVolume_Defaults(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	s := &models.Series{Name: "Akira"}
	require.NoError(t, svc.CreateSeries(ctx, s))

	vol := &models.Volume{SeriesID: s.ID, Position: intPtr(1), Title: "Akira #1"}
	require.NoError(t, svc.CreateVolume(ctx, vol))

	assert.Equal(t, models.VolumeStatusMissing, vol.Status)
	assert.Equal(t, models.StatusSourceSystem, vol.StatusSource)
}

func TestVolumesForSeries_UnknownPositionsLast(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	s := &models.Series{Name: "Akira"}
	require.NoError(t, svc.CreateSeries(ctx, s))

	require.NoError(t, svc.CreateVolume(ctx, &models.Volume{SeriesID: s.ID, Title: "Akira Art Book"}))
	require.NoError(t, svc.CreateVolume(ctx, &models.Volume{SeriesID: s.ID, Position: intPtr(2), Title: "Akira #2"}))
	require.NoError(t, svc.CreateVolume(ctx, &models.Volume{SeriesID: s.ID, Position: intPtr(1), Title: "Akira #1"}))

	volumes, err := svc.VolumesForSeries(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 3)
	assert.Equal(t, "Akira #1", volumes[0].Title)
	assert.Equal(t, "Akira #2", volumes[1].Title)
	assert.Equal(t, "Akira Art Book", volumes[2].Title)
}

func TestTryLockSeries(t *testing.T) {
	svc := NewService(newTestDB(t))

	require.True(t, svc.TryLockSeries("Berserk"))
	assert.False(t, svc.TryLockSeries("berserk"))
	assert.True(t, svc.TryLockSeries("Vinland Saga"))

	svc.UnlockSeries("BERSERK")
	assert.True(t, svc.TryLockSeries("Berserk"))

	svc.UnlockSeries("Berserk")
	svc.UnlockSeries("Vinland Saga")
}

func TestTryLockSeries_SharedAcrossServices(t *testing.T) {
	// The server handlers and the worker each build their own Service over
	// the shared DB; a lock taken through one must block the other.
	db := newTestDB(t)
	first := NewService(db)
	second := NewService(db)

	require.True(t, first.TryLockSeries("Uzumaki"))
	assert.False(t, second.TryLockSeries("Uzumaki"))
	assert.False(t, second.TryLockSeries("uzumaki"))

	first.UnlockSeries("Uzumaki")
	assert.True(t, second.TryLockSeries("Uzumaki"))
	second.UnlockSeries("Uzumaki")
}
