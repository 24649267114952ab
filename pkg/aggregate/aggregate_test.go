package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/shelfmark/shelfmark/pkg/metadata"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/titlepattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type fakeOwned struct {
	items []*models.OwnedItem
}

func (f *fakeOwned) ItemsForSeriesName(_ context.Context, _ string) ([]*models.OwnedItem, error) {
	return f.items, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func timePtr(t time.Time) *time.Time {
	return &t
}

func TestBuildSnapshot_FillForwardMerge(t *testing.T) {
	provider := &fakeProvider{
		works: []metadata.Work{
			{Title: "Berserk, Vol. 1", ISBN13: strPtr("9781593070205")},
			{Title: "Berserk Volume 1", Publisher: strPtr("Dark Horse"), Description: strPtr("The Black Swordsman.")},
		},
	}
	agg := New(provider, titlepattern.New(nil), &fakeOwned{})

	snap, err := agg.BuildSnapshot(context.Background(), "Berserk", nil)
	require.NoError(t, err)
	require.Len(t, snap.Volumes, 1)

	vol := snap.Volumes[0]
	assert.Equal(t, "Berserk, Vol. 1", vol.Title)
	require.NotNil(t, vol.ISBN13)
	assert.Equal(t, "9781593070205", *vol.ISBN13)
	require.NotNil(t, vol.Publisher)
	assert.Equal(t, "Dark Horse", *vol.Publisher)
	require.NotNil(t, vol.Description)
	assert.False(t, vol.Owned)
}

func TestBuildSnapshot_OverridesSeededFirst(t *testing.T) {
	overrides := titlepattern.NewOverrides([]titlepattern.SeriesOverride{{
		Name:  "Berserk",
		Total: intPtr(41),
		Volumes: []titlepattern.VolumeOverride{
			{Position: 1, Title: "Berserk, Vol. 1: The Black Swordsman", ISBN13: "9781593070205", Published: "1990-11-26"},
		},
	}})
	provider := &fakeProvider{
		works: []metadata.Work{
			{Title: "Berserk, Vol. 1", ISBN13: strPtr("9999999999999"), CoverURL: strPtr("https://covers.example/1.jpg")},
		},
	}
	agg := New(provider, titlepattern.New(overrides), &fakeOwned{})

	snap, err := agg.BuildSnapshot(context.Background(), "Berserk", nil)
	require.NoError(t, err)
	require.NotNil(t, snap.Total)
	assert.Equal(t, 41, *snap.Total)
	require.Len(t, snap.Volumes, 1)

	vol := snap.Volumes[0]
	// Override fields hold; provider only fills the gaps.
	assert.Equal(t, "Berserk, Vol. 1: The Black Swordsman", vol.Title)
	require.NotNil(t, vol.ISBN13)
	assert.Equal(t, "9781593070205", *vol.ISBN13)
	require.NotNil(t, vol.CoverURL)
	assert.Equal(t, "https://covers.example/1.jpg", *vol.CoverURL)
	require.NotNil(t, vol.Published)
}

func TestBuildSnapshot_ProviderUnavailableFallsBackToOwned(t *testing.T) {
	owned := &fakeOwned{
		items: []*models.OwnedItem{{
			Title:    "Vagabond, Vol. 2",
			Position: intPtr(2),
			Editions: []*models.Edition{{
				ISBN:      strPtr("9781591164036"),
				Publisher: strPtr("VIZ Media"),
				IsPrimary: true,
			}},
		}},
	}
	agg := New(&fakeProvider{err: metadata.ErrUnavailable}, titlepattern.New(nil), owned)

	snap, err := agg.BuildSnapshot(context.Background(), "Vagabond", nil)
	require.NoError(t, err)
	require.Len(t, snap.Volumes, 1)

	vol := snap.Volumes[0]
	assert.True(t, vol.Owned)
	assert.Equal(t, "Vagabond, Vol. 2", vol.Title)
	require.NotNil(t, vol.ISBN13)
	assert.Equal(t, "9781591164036", *vol.ISBN13)
	require.NotNil(t, vol.Publisher)
	assert.Equal(t, "VIZ Media", *vol.Publisher)
}

func TestBuildSnapshot_IrrelevantWorksFiltered(t *testing.T) {
	provider := &fakeProvider{
		works: []metadata.Work{
			{Title: "Something Else #3"},
			{Title: "Berserk, Vol. 4"},
		},
	}
	agg := New(provider, titlepattern.New(nil), &fakeOwned{})

	snap, err := agg.BuildSnapshot(context.Background(), "Berserk", nil)
	require.NoError(t, err)
	require.Len(t, snap.Volumes, 1)
	assert.Equal(t, "Berserk, Vol. 4", snap.Volumes[0].Title)
}

func TestBuildSnapshot_Aggregates(t *testing.T) {
	provider := &fakeProvider{
		works: []metadata.Work{
			{
				Title:      "Monster, Vol. 1",
				Publisher:  strPtr("VIZ Media"),
				Published:  timePtr(time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)),
				Categories: []string{"Thriller", "Manga"},
			},
			{
				Title:      "Monster, Vol. 2",
				Publisher:  strPtr("VIZ Media"),
				Published:  timePtr(time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC)),
				Categories: []string{"Manga"},
			},
			{
				Title:     "Monster, Vol. 3",
				Publisher: strPtr("Shogakukan"),
				Published: timePtr(time.Date(1997, 1, 1, 0, 0, 0, 0, time.UTC)),
			},
		},
	}
	agg := New(provider, titlepattern.New(nil), &fakeOwned{})

	snap, err := agg.BuildSnapshot(context.Background(), "Monster", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Manga", "Thriller"}, snap.Genres)
	require.NotNil(t, snap.Publisher)
	assert.Equal(t, "VIZ Media", *snap.Publisher)
	require.NotNil(t, snap.FirstPublished)
	assert.Equal(t, 1995, snap.FirstPublished.Year())
	require.NotNil(t, snap.LastPublished)
	assert.Equal(t, 1997, snap.LastPublished.Year())
}

func TestBuildSnapshot_UnpositionedSortedByTitle(t *testing.T) {
	provider := &fakeProvider{
		works: []metadata.Work{
			{Title: "Akira: Zeta Side Story"},
			{Title: "Akira: Art Book"},
			{Title: "Akira #1"},
		},
	}
	agg := New(provider, titlepattern.New(nil), &fakeOwned{})

	snap, err := agg.BuildSnapshot(context.Background(), "Akira", nil)
	require.NoError(t, err)
	require.Len(t, snap.Volumes, 3)
	assert.Equal(t, "Akira #1", snap.Volumes[0].Title)
	assert.Equal(t, "Akira: Art Book", snap.Volumes[1].Title)
	assert.Equal(t, "Akira: Zeta Side Story", snap.Volumes[2].Title)
}
