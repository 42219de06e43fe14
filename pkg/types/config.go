package types

import "errors"

// Config holds backend selection and parameters for Journal.Attach.
type Config struct {
	Backend  string `json:"backend" yaml:"backend"`
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	PhotoDir string `json:"photo_dir,omitempty" yaml:"photo_dir,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultPhotoDirName is the photo directory created under DataDir when
// PhotoDir is not set.
const DefaultPhotoDirName = "photos"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}
