package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/internal/sqlite"
	"github.com/mesh-intelligence/stamped/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the journal",
		Long:  "Write a default config.yaml if missing, then create the database,\napply migrations and seed the default categories.",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return sysErr(err)
			}
			photoDir, err := a.resolvePhotoDir(dataDir)
			if err != nil {
				return sysErr(err)
			}

			configPath := filepath.Join(a.configDir, configFileExt)
			wrote, err := writeConfigIfMissing(configPath, configFile{
				Backend:  types.BackendSQLite,
				DataDir:  dataDir,
				PhotoDir: a.flags.photoDir,
				LogLevel: defaultLogLevel,
			})
			if err != nil {
				return sysErr(err)
			}

			journal := sqlite.NewBackend()
			if err := journal.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir, PhotoDir: photoDir}); err != nil {
				return sysErr(err)
			}
			if err := journal.Detach(); err != nil {
				return sysErr(err)
			}

			return writeJSON(cmd, map[string]any{
				"config":         configPath,
				"config_written": wrote,
				"data_dir":       dataDir,
				"photo_dir":      photoDir,
			})
		},
	}
}
