package photos

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// Imported photos are scaled down to fit this box and re-encoded as JPEG.
const (
	maxDimension = 2048
	jpegQuality  = 85
)

// Store owns the photo directory. The directory is created on the first
// import, not when the Store is built.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the photo directory.
func (s *Store) Dir() string {
	return s.dir
}

// Resolver returns a Resolver for the store's directory.
func (s *Store) Resolver() Resolver {
	return Resolver{Dir: s.dir}
}

// NewFilename returns a fresh name of the form {unixMillis}_{random}.jpg.
func (s *Store) NewFilename() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%s.jpg", s.now().UnixMilli(), random)
}

// Import decodes the image at src, applies its EXIF orientation, fits it
// into the maximum dimension and writes it into the photo directory as JPEG.
// It returns the bare filename to store in the database.
func (s *Store) Import(src string) (string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decoding photo %s: %w", src, err)
	}
	return s.Write(img)
}

// Write encodes img into the photo directory and returns its filename. The
// file appears under its final name only once fully written.
func (s *Store) Write(img image.Image) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating photo directory: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	tmp, err := os.CreateTemp(s.dir, ".photo-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("encoding photo: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("syncing photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing photo: %w", err)
	}

	name := s.NewFilename()
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming photo: %w", err)
	}
	return name, nil
}

// Remove deletes the file behind a stored reference. A missing file is not
// an error.
func (s *Store) Remove(stored string) error {
	err := os.Remove(s.Resolver().LocalPath(stored))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Orphans lists files in the photo directory whose names are not in known.
// Hidden files (including in-flight temp files) are skipped. A photo
// directory that does not exist yet has no orphans.
func (s *Store) Orphans(known map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading photo directory: %w", err)
	}

	var orphans []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !known[e.Name()] {
			orphans = append(orphans, e.Name())
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
