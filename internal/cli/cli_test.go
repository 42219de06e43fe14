package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stamped/internal/paths"
	"github.com/mesh-intelligence/stamped/internal/sqlite"
	"github.com/mesh-intelligence/stamped/pkg/types"
)

// cliEnv runs the command tree in-process against temp directories.
type cliEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{
		paths.EnvConfigDir, paths.EnvDataDir, paths.EnvPhotoDir,
		"STAMPED_LOG_LEVEL", "STAMPED_LOG_FILE", "STAMPED_BACKEND",
	} {
		t.Setenv(key, "")
	}
	root := t.TempDir()
	return &cliEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--config-dir", e.configDir,
		"--data-dir", e.dataDir,
		"--log-level", "error",
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "stamped %v", args)
	return out
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func idArg(v int64) string { return fmt.Sprint(v) }

func TestInit(t *testing.T) {
	env := newCLIEnv(t)

	out := decode[map[string]any](t, env.mustRun("init"))
	assert.Equal(t, true, out["config_written"])
	assert.FileExists(t, filepath.Join(env.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.dataDir, sqlite.DatabaseFile))

	out = decode[map[string]any](t, env.mustRun("init"))
	assert.Equal(t, false, out["config_written"], "init must not overwrite config.yaml")
}

func TestMigrateStatus(t *testing.T) {
	env := newCLIEnv(t)

	before := decode[[]sqlite.MigrationStatus](t, env.mustRun("migrate", "--status"))
	require.NotEmpty(t, before)
	for _, s := range before {
		assert.Nil(t, s.AppliedAt, s.ID)
	}
	assert.NoFileExists(t, filepath.Join(env.dataDir, sqlite.DatabaseFile))

	after := decode[[]sqlite.MigrationStatus](t, env.mustRun("migrate"))
	require.Len(t, after, len(before))
	for _, s := range after {
		assert.NotNil(t, s.AppliedAt, s.ID)
	}
}

func TestVisitWorkflow(t *testing.T) {
	env := newCLIEnv(t)

	cats := decode[[]types.Category](t, env.mustRun("category", "list"))
	require.Len(t, cats, 8)
	bar := cats[0]

	place := decode[types.Place](t, env.mustRun("place", "add", "Blue Bottle",
		"--category", idArg(bar.ID), "--lat", "37.7955", "--lng", "-122.3937"))
	assert.True(t, place.HasLocation())

	person := decode[types.Person](t, env.mustRun("person", "add", "Ana"))
	tag := decode[types.Tag](t, env.mustRun("tag", "add", "brunch", "--color", "#ff8800"))

	visit := decode[types.VisitDetail](t, env.mustRun("visit", "add",
		"--place", idArg(place.ID), "--date", "2024-03-01", "--rating", "4.5",
		"--cost", "12.50", "--paid-by", idArg(person.ID), "--tags", idArg(tag.ID)))
	assert.Equal(t, "Blue Bottle", visit.PlaceName)
	assert.Equal(t, types.DefaultCurrency, visit.Currency)
	require.NotNil(t, visit.WhoPaidName)
	assert.Equal(t, "Ana", *visit.WhoPaidName)

	second := decode[types.VisitDetail](t, env.mustRun("visit", "add",
		"--new-place", "Tartine", "--date", "2024-03-05", "--notes", "morning bun"))

	tagged := decode[[]types.VisitDetail](t, env.mustRun("visit", "list", "--tags", idArg(tag.ID)))
	require.Len(t, tagged, 1)
	assert.Equal(t, visit.ID, tagged[0].ID)

	all := decode[[]types.VisitDetail](t, env.mustRun("visit", "list", "--sort", "date", "--order", "asc"))
	require.Len(t, all, 2)
	assert.Equal(t, visit.ID, all[0].ID)

	found := decode[[]types.VisitDetail](t, env.mustRun("visit", "list", "--search", "BUN"))
	require.Len(t, found, 1)
	assert.Equal(t, second.ID, found[0].ID)

	overall := decode[types.OverallStats](t, env.mustRun("stats", "overall"))
	assert.EqualValues(t, 2, overall.TotalVisits)
	assert.InDelta(t, 12.5, overall.TotalSpent, 1e-9)

	updated := decode[types.VisitDetail](t, env.mustRun("visit", "update", idArg(visit.ID), "--rating", "5", "--clear", "cost"))
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5.0, *updated.Rating)
	assert.Nil(t, updated.Cost)

	tags := decode[[]types.Tag](t, env.mustRun("visit", "tags", idArg(visit.ID), "--set", ""))
	assert.Empty(t, tags)

	env.mustRun("visit", "delete", idArg(second.ID))
	_, err := env.run("place", "show", idArg(second.PlaceID))
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err), "emptied place must be gone")

	shown := decode[map[string]any](t, env.mustRun("place", "show", idArg(place.ID)))
	assert.EqualValues(t, 1, shown["visit_count"])
}

func TestPhotoCommands(t *testing.T) {
	env := newCLIEnv(t)
	place := decode[types.Place](t, env.mustRun("place", "add", "Lookout"))
	visit := decode[types.VisitDetail](t, env.mustRun("visit", "add", "--place", idArg(place.ID), "--date", "2024-06-01"))

	src := filepath.Join(t.TempDir(), "shot.png")
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	added := decode[[]map[string]any](t, env.mustRun("photo", "add", idArg(visit.ID), src))
	require.Len(t, added, 1)
	path, _ := added[0]["path"].(string)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(env.dataDir, paths.PhotoDirName), filepath.Dir(path))

	stray := filepath.Join(env.dataDir, paths.PhotoDirName, "stray.jpg")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))

	orphans := decode[map[string]any](t, env.mustRun("photo", "orphans"))
	assert.Equal(t, []any{"stray.jpg"}, orphans["orphans"])

	env.mustRun("photo", "orphans", "--remove")
	assert.NoFileExists(t, stray)
	assert.FileExists(t, path)

	resolved := decode[map[string]string](t, env.mustRun("photo", "resolve", "/legacy/a.jpg"))
	assert.Equal(t, "legacy", resolved["kind"])
	assert.Equal(t, "/legacy/a.jpg", resolved["path"])

	env.mustRun("visit", "delete", idArg(visit.ID))
	assert.NoFileExists(t, path)
}

func TestExportImport(t *testing.T) {
	src := newCLIEnv(t)
	place := decode[types.Place](t, src.mustRun("place", "add", "Harbor"))
	src.mustRun("visit", "add", "--place", idArg(place.ID), "--date", "2024-01-02", "--cost", "8")

	dir := filepath.Join(t.TempDir(), "export")
	counts := decode[map[string]int](t, src.mustRun("export", dir))
	assert.Equal(t, 1, counts[types.TableVisits])
	assert.FileExists(t, filepath.Join(dir, types.TableVisits+".jsonl"))

	dst := newCLIEnv(t)
	counts = decode[map[string]int](t, dst.mustRun("import", dir))
	assert.Equal(t, 1, counts[types.TablePlaces])

	visits := decode[[]types.VisitDetail](t, dst.mustRun("visit", "list"))
	require.Len(t, visits, 1)
	assert.Equal(t, "Harbor", visits[0].PlaceName)

	_, err := dst.run("import", dir)
	require.ErrorIs(t, err, types.ErrJournalNotEmpty)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, env *cliEnv)
		args  []string
		want  int
	}{
		{name: "success", args: []string{"version"}, want: exitSuccess},
		{name: "malformed id", args: []string{"visit", "show", "abc"}, want: exitUserError},
		{name: "missing visit", args: []string{"visit", "show", "42"}, want: exitUserError},
		{name: "unknown flag", args: []string{"place", "list", "--bogus"}, want: exitUserError},
		{name: "missing argument", args: []string{"place", "add"}, want: exitUserError},
		{name: "no place given", args: []string{"visit", "add", "--date", "2024-01-01"}, want: exitUserError},
		{name: "bad rating", args: []string{"visit", "add", "--new-place", "X", "--rating", "4.2"}, want: exitUserError},
		{name: "bad granularity", args: []string{"stats", "period", "--by", "decade"}, want: exitUserError},
		{name: "bad log level", args: []string{"place", "list", "--log-level", "loud"}, want: exitUserError},
		{
			name: "unreadable config",
			setup: func(t *testing.T, env *cliEnv) {
				require.NoError(t, os.MkdirAll(env.configDir, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte("data_dir: [\n"), 0o644))
			},
			args: []string{"place", "list"},
			want: exitSysError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			if tt.setup != nil {
				tt.setup(t, env)
			}
			_, err := env.run(tt.args...)
			assert.Equal(t, tt.want, exitCode(err), "error: %v", err)
		})
	}
}
