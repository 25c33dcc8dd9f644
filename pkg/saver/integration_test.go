package saver_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mangasaver/pkg/config"
	"mangasaver/pkg/logger"
	"mangasaver/pkg/mediastore"
	"mangasaver/pkg/platform"
	"mangasaver/pkg/saver"
)

func setup(t *testing.T, apiLevel int) (*saver.Saver, *platform.Desktop, *mediastore.Store) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))

	cfg := config.DefaultConfig()
	cfg.Platform.APILevel = apiLevel
	cfg.Storage.CacheDir = filepath.Join(root, "cache")
	cfg.Storage.VolumeRoot = filepath.Join(root, "volume")

	d, err := platform.NewDesktop(cfg)
	require.NoError(t, err)

	store, err := mediastore.Open(d.VolumeRoot(), d.IndexFile(cfg), logger.NewNopLogger())
	require.NoError(t, err)

	return saver.New(d, store, store, logger.NewNopLogger()), d, store
}

func pngPage(t *testing.T, name string, loc saver.Location) (saver.Page, []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	data := buf.Bytes()
	return saver.Page{
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		Name:     name,
		Location: loc,
	}, data
}

func TestScopedHostSavesThroughMediaStore(t *testing.T) {
	s, d, store := setup(t, 30)
	ctx := context.Background()
	page, data := pngPage(t, "page-001", saver.NewPictures("series-42"))

	uri, err := s.Save(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, mediastore.Scheme, uri.Scheme)

	rec, err := store.Get(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.PublicPicturesDir(), "Mangasaver", "series-42", "page-001.png"), rec.Data)
	assert.Equal(t, "Pictures/Mangasaver/series-42/", rec.RelativePath)
	assert.True(t, rec.Scanned)
	assert.Equal(t, int64(len(data)), rec.Size)

	got, err := os.ReadFile(rec.Data)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestScopedHostRepeatedSaveGetsNewEntry(t *testing.T) {
	s, _, store := setup(t, 30)
	ctx := context.Background()
	page, _ := pngPage(t, "cover", saver.NewPictures())

	first, err := s.Save(ctx, page)
	require.NoError(t, err)
	second, err := s.Save(ctx, page)
	require.NoError(t, err)
	assert.NotEqual(t, first.String(), second.String())

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "cover.png", records[0].DisplayName)
	assert.Equal(t, "cover (1).png", records[1].DisplayName)
}

func TestLegacyHostRegistersDirectFile(t *testing.T) {
	s, d, store := setup(t, 28)
	ctx := context.Background()
	page, _ := pngPage(t, "cover", saver.NewPictures())

	uri, err := s.Save(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, "file", uri.Scheme)

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, filepath.Join(d.PublicPicturesDir(), "Mangasaver", "cover.png"), records[0].Data)
	assert.True(t, records[0].Scanned)
}

func TestCacheSavesStayOutOfIndex(t *testing.T) {
	s, d, store := setup(t, 30)
	ctx := context.Background()
	page, _ := pngPage(t, "chapter1_page1", saver.Cache{})

	uri, err := s.Save(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.CacheImageDir(), "chapter1_page1.png"), filepath.FromSlash(uri.Path))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCacheSavesStayOutOfIndexWithDefaultLayout(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	// Defaults put the cache under the home directory, which is also the volume root.
	cfg := config.DefaultConfig()
	d, err := platform.NewDesktop(cfg)
	require.NoError(t, err)
	require.Equal(t, home, d.VolumeRoot())

	store, err := mediastore.Open(d.VolumeRoot(), d.IndexFile(cfg), logger.NewNopLogger())
	require.NoError(t, err)
	s := saver.New(d, store, store, logger.NewNopLogger())
	ctx := context.Background()

	page, _ := pngPage(t, "chapter1_page1", saver.Cache{})
	uri, err := s.Save(ctx, page)
	require.NoError(t, err)
	assert.FileExists(t, filepath.FromSlash(uri.Path))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
