// Package cli implements the stamped command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/stamped/internal/logging"
	"github.com/mesh-intelligence/stamped/internal/paths"
	"github.com/mesh-intelligence/stamped/pkg/stamped"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	photoDir  string
	logLevel  string
}

// app is the state shared by one invocation of the command tree.
type app struct {
	flags     rootFlags
	configDir string
	config    *viper.Viper
	logCloser io.Closer
}

// NewRootCmd creates the top-level "stamped" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "stamped",
		Short:   "A journal of the places you visit",
		Long:    "Stamped records places, dated visits with ratings and costs, tags,\nphotos and the people who paid, in a local SQLite journal.",
		Version: stamped.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		PersistentPreRunE: a.prepare,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/stamped)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/stamped)")
	root.PersistentFlags().StringVar(&a.flags.photoDir, "photo-dir", "", "photo directory (default: <data-dir>/photos)")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newMigrateCmd(a),
		newCategoryCmd(a),
		newPersonCmd(a),
		newTagCmd(a),
		newPlaceCmd(a),
		newVisitCmd(a),
		newPhotoCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to a process exit code. Errors are user
// errors unless they were marked as system failures.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *systemError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// prepare loads config.yaml and installs the logger before any subcommand
// runs.
func (a *app) prepare(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	a.config, err = loadConfig(configDir)
	if err != nil {
		return sysErr(err)
	}

	level := a.flags.logLevel
	if level == "" {
		level = a.config.GetString(cfgKeyLogLevel)
	}
	if _, err := logging.ParseLevel(level); err != nil {
		return usageError{err}
	}
	closer, err := logging.Setup(logging.Config{
		Level: level,
		File:  a.config.GetString(cfgKeyLogFile),
	})
	if err != nil {
		return sysErr(fmt.Errorf("set up logging: %w", err))
	}
	a.logCloser = closer
	return nil
}

func (a *app) close() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// resolveDataDir applies flag > STAMPED_DATA_DIR > config.yaml > default.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
}

// resolvePhotoDir applies the same precedence, defaulting under dataDir.
func (a *app) resolvePhotoDir(dataDir string) (string, error) {
	return paths.ResolvePhotoDir(a.flags.photoDir, a.config.GetString(cfgKeyPhotoDir), dataDir)
}
