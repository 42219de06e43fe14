package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/internal/photos"
	"github.com/mesh-intelligence/stamped/internal/sqlite"
	"github.com/mesh-intelligence/stamped/pkg/types"
)

// systemError marks a failure of the environment rather than of the input:
// an unreadable config, a database that will not open, a full disk.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return &systemError{err}
}

// usageError wraps flag and argument parsing failures.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// userErrors are the sentinels that blame the caller's input.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrConstraintViolation,
	types.ErrJournalNotEmpty,
	types.ErrInvalidName,
	types.ErrInvalidDate,
	types.ErrInvalidRating,
	types.ErrInvalidCost,
	types.ErrInvalidCoordinates,
	types.ErrInvalidPriceLevel,
	types.ErrInvalidAttendeeCount,
	types.ErrInvalidFilter,
	types.ErrInvalidGranularity,
	types.ErrInvalidLimit,
	types.ErrInvalidPhotoRef,
}

func isUserError(err error) bool {
	var ue usageError
	if errors.As(err, &ue) {
		return true
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

var noArgs = wrapArgs(cobra.NoArgs)

func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

// session is an attached journal plus the photo store in the same photo
// directory.
type session struct {
	journal *sqlite.Backend
	photos  *photos.Store
}

// withJournal resolves the directories, attaches the journal, runs fn and
// detaches. Errors from fn that are not user errors are marked as system
// failures.
func (a *app) withJournal(cmd *cobra.Command, fn func(ctx context.Context, s session) error) error {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	photoDir, err := a.resolvePhotoDir(dataDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve photo dir: %w", err))
	}

	journal := sqlite.NewBackend()
	cfg := types.Config{
		Backend:  a.config.GetString(cfgKeyBackend),
		DataDir:  dataDir,
		PhotoDir: photoDir,
	}
	if err := journal.Attach(cfg); err != nil {
		return sysErr(fmt.Errorf("attach journal: %w", err))
	}
	defer func() {
		if err := journal.Detach(); err != nil {
			slog.Warn("detaching journal", "error", err)
		}
	}()

	err = fn(commandContext(cmd), session{journal: journal, photos: photos.NewStore(photoDir)})
	if err != nil && !isUserError(err) {
		return sysErr(err)
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// writeJSON prints v as indented JSON on the command's output.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErr(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// orEmpty keeps empty lists printing as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// parseID parses a positive entity id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}
	return id, nil
}

// parseIDs parses a comma-separated id list. An empty string yields an
// empty, non-nil slice.
func parseIDs(s string) ([]int64, error) {
	ids := []int64{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// changed returns &v when the flag was given on the command line.
func changed[T any](cmd *cobra.Command, name string, v T) *T {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

// fields converts --clear values into nullable field names.
func fields(names []string) []types.Field {
	var out []types.Field
	for _, n := range names {
		out = append(out, types.Field(strings.TrimSpace(n)))
	}
	return out
}
