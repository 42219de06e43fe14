// Package photos resolves stored photo references to readable locations and
// manages the photo files behind them.
//
// The database stores only a bare filename for every photo written by this
// version. The absolute location is rebuilt from the photo directory each
// time it is needed, so moving the data directory never breaks a reference.
// Older rows may still hold an absolute path or file:// URI; those are
// returned as they are.
package photos

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Kind distinguishes the two stored reference formats.
type Kind int

const (
	// KindFilename is a bare filename inside the photo directory.
	KindFilename Kind = iota
	// KindLegacyPath is an absolute path or file:// URI written before
	// references became relocatable.
	KindLegacyPath
)

func (k Kind) String() string {
	if k == KindLegacyPath {
		return "legacy"
	}
	return "filename"
}

const fileScheme = "file://"

// Stored is a parsed photo reference.
type Stored struct {
	Kind  Kind
	Value string
}

// Parse classifies a stored reference.
func Parse(stored string) Stored {
	if strings.HasPrefix(stored, fileScheme) || strings.HasPrefix(stored, "/") {
		return Stored{Kind: KindLegacyPath, Value: stored}
	}
	return Stored{Kind: KindFilename, Value: stored}
}

// IsFilename reports whether s is acceptable on the write path: a non-empty
// bare filename with no directory component.
func IsFilename(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if Parse(s).Kind != KindFilename {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

// Resolver turns stored references into locations a reader can open.
type Resolver struct {
	Dir string
}

// Resolve returns legacy references unchanged and joins filenames onto the
// photo directory. The result must not be written back to the database.
func (r Resolver) Resolve(stored string) string {
	s := Parse(stored)
	if s.Kind == KindLegacyPath {
		return s.Value
	}
	return filepath.Join(r.Dir, s.Value)
}

// LocalPath is like Resolve but always returns a filesystem path, decoding
// legacy file:// URIs.
func (r Resolver) LocalPath(stored string) string {
	resolved := r.Resolve(stored)
	if !strings.HasPrefix(resolved, fileScheme) {
		return resolved
	}
	u, err := url.Parse(resolved)
	if err != nil || u.Path == "" {
		return strings.TrimPrefix(resolved, fileScheme)
	}
	return filepath.FromSlash(u.Path)
}
