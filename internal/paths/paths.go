// Package paths resolves the configuration, data and photo directories.
//
// Every directory follows the same precedence: command-line flag, then
// environment variable, then config.yaml value, then the platform default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "stamped"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "STAMPED_CONFIG_DIR"
	EnvDataDir   = "STAMPED_DATA_DIR"
	EnvPhotoDir  = "STAMPED_PHOTO_DIR"
)

// PhotoDirName is the photo directory inside the data directory.
const PhotoDirName = "photos"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/stamped (fallback ~/.config/stamped)
// macOS:   ~/Library/Application Support/stamped
// Windows: %APPDATA%/stamped
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/stamped (fallback ~/.local/share/stamped)
// macOS:   ~/Library/Application Support/stamped
// Windows: %APPDATA%/stamped
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppName), nil
}

// ResolveConfigDir returns the configuration directory: flag >
// STAMPED_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory: flag > STAMPED_DATA_DIR >
// config.yaml data_dir > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvDataDir), configValue); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultDataDir()
}

// ResolvePhotoDir returns the photo directory: flag > STAMPED_PHOTO_DIR >
// config.yaml photo_dir > <dataDir>/photos.
func ResolvePhotoDir(flag, configValue, dataDir string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvPhotoDir), configValue); dir != "" {
		return filepath.Abs(dir)
	}
	return filepath.Join(dataDir, PhotoDirName), nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
