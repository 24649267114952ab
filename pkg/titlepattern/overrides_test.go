package titlepattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "overrides.yaml")

	content := `
series:
  - name: Bleach
    total: 74
    status: completed
    volumes:
      - position: 1
        title: "Strawberry and the Soul Reapers"
        isbn_13: "978-1-59116-441-8"
        published: "2004-06-01"
      - position: 2
        title: "Goodbye Parakeet, Goodnight My Sister"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)

	entry, ok := o.LookupSeries("bleach")
	require.True(t, ok)
	require.NotNil(t, entry.Total)
	assert.Equal(t, 74, *entry.Total)
	assert.Equal(t, "completed", entry.Status)
	require.Len(t, entry.Volumes, 2)

	published := entry.Volumes[0].PublishedTime()
	require.NotNil(t, published)
	assert.Equal(t, 2004, published.Year())

	// Title lookup is case-insensitive.
	ext, ok := o.Extract("strawberry and the soul reapers")
	require.True(t, ok)
	assert.Equal(t, "Bleach", *ext.SeriesName)
	assert.Equal(t, 1, *ext.Position)

	// ISBN lookup normalizes hyphens.
	ext, ok = o.ExtractISBN("9781591164418")
	require.True(t, ok)
	assert.Equal(t, 1, *ext.Position)
}

func TestLoadOverrides_EmptyPath(t *testing.T) {
	o, err := LoadOverrides("")
	require.NoError(t, err)

	_, ok := o.LookupSeries("anything")
	assert.False(t, ok)
	_, ok = o.Extract("anything")
	assert.False(t, ok)
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	_, err := LoadOverrides("/nonexistent/overrides.yaml")
	assert.Error(t, err)
}
