package photos

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG writes a solid w×h PNG and returns its path.
func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	path := filepath.Join(dir, "source.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestNewFilename(t *testing.T) {
	s := NewStore(t.TempDir())
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	name := s.NewFilename()
	assert.Regexp(t, regexp.MustCompile(`^1700000000123_[0-9a-f]{8}\.jpg$`), name)
	assert.NotEqual(t, name, s.NewFilename(), "random component differs between calls")
	assert.True(t, IsFilename(name))
}

func TestImportCreatesDirectoryLazily(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "photos")
	s := NewStore(dir)

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err), "directory must not exist before the first import")

	src := writePNG(t, root, 64, 32)
	name, err := s.Import(src)
	require.NoError(t, err)
	assert.True(t, IsFilename(name))

	img, err := imaging.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestImportScalesLargePhotos(t *testing.T) {
	root := t.TempDir()
	s := NewStore(filepath.Join(root, "photos"))

	src := writePNG(t, root, 3000, 1000)
	name, err := s.Import(src)
	require.NoError(t, err)

	img, err := imaging.Open(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, maxDimension, img.Bounds().Dx())
	assert.Less(t, img.Bounds().Dy(), maxDimension)
}

func TestImportRejectsNonImage(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	_, err := NewStore(filepath.Join(root, "photos")).Import(src)
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644))

	require.NoError(t, s.Remove("a.jpg"))
	_, err := os.Stat(filepath.Join(dir, "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove("a.jpg"), "removing a missing file is not an error")

	legacy := filepath.Join(t.TempDir(), "legacy.jpg")
	require.NoError(t, os.WriteFile(legacy, []byte("x"), 0o644))
	require.NoError(t, s.Remove("file://"+filepath.ToSlash(legacy)))
	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err), "legacy file URIs are removed too")
}

func TestOrphans(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	for _, name := range []string{"kept.jpg", "orphan-b.jpg", "orphan-a.jpg", ".photo-123.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	orphans, err := s.Orphans(map[string]bool{"kept.jpg": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan-a.jpg", "orphan-b.jpg"}, orphans)

	none, err := NewStore(filepath.Join(dir, "missing")).Orphans(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
