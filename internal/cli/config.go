package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "STAMPED"

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyPhotoDir = "photo_dir"
	cfgKeyLogLevel = "log_level"
	cfgKeyLogFile  = "log_file"

	defaultBackend  = "sqlite"
	defaultLogLevel = "info"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	PhotoDir string `yaml:"photo_dir,omitempty"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error; defaults and STAMPED_* environment variables still apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. It reports whether it wrote the file.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
