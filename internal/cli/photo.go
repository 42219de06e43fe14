package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/internal/photos"
	"github.com/mesh-intelligence/stamped/pkg/types"
)

// photoView is a photo row with its reference resolved for reading.
type photoView struct {
	*types.Photo
	Path string `json:"path"`
}

func photoViews(s session, list []*types.Photo) []photoView {
	resolver := s.photos.Resolver()
	views := make([]photoView, 0, len(list))
	for _, p := range list {
		views = append(views, photoView{Photo: p, Path: resolver.Resolve(p.URI)})
	}
	return views
}

func newPhotoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "photo",
		Aliases: []string{"photos"},
		Short:   "Manage visit photos",
	}

	list := &cobra.Command{
		Use:   "list <visit-id>",
		Short: "List the photos of a visit",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			visitID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				list, err := s.journal.Photos().GetForVisit(ctx, visitID)
				if err != nil {
					return err
				}
				return writeJSON(cmd, photoViews(s, list))
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <visit-id> <image>...",
		Short: "Import images and attach them to a visit",
		Long: `Import copies each image into the photo directory as a JPEG, applying its
EXIF orientation and scaling it down to fit 2048x2048, then attaches it to
the visit. The original files are not touched.`,
		Args: wrapArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			visitID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				if _, err := s.journal.Visits().GetByID(ctx, visitID); err != nil {
					return err
				}
				var added []*types.Photo
				for _, src := range args[1:] {
					name, err := s.photos.Import(src)
					if err != nil {
						return err
					}
					p, err := s.journal.Photos().Insert(ctx, visitID, name)
					if err != nil {
						if rmErr := s.photos.Remove(name); rmErr != nil {
							slog.Warn("removing unattached photo", "file", name, "error", rmErr)
						}
						return err
					}
					added = append(added, p)
				}
				return writeJSON(cmd, photoViews(s, added))
			})
		},
	}

	del := deleteCmd(a, "photo and its file", func(ctx context.Context, s session, id int64) error {
		return s.journal.Photos().Delete(ctx, id)
	})

	resolve := &cobra.Command{
		Use:   "resolve <stored-uri>",
		Short: "Print where a stored photo reference points",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return sysErr(err)
			}
			photoDir, err := a.resolvePhotoDir(dataDir)
			if err != nil {
				return sysErr(err)
			}
			stored := photos.Parse(args[0])
			return writeJSON(cmd, map[string]string{
				"kind": stored.Kind.String(),
				"path": photos.Resolver{Dir: photoDir}.Resolve(args[0]),
			})
		},
	}

	var remove bool
	orphans := &cobra.Command{
		Use:   "orphans",
		Short: "List files in the photo directory that no photo references",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				all, err := s.journal.Photos().GetAll(ctx)
				if err != nil {
					return err
				}
				known := make(map[string]bool, len(all))
				for _, p := range all {
					if ref := photos.Parse(p.URI); ref.Kind == photos.KindFilename {
						known[ref.Value] = true
					}
				}
				names, err := s.photos.Orphans(known)
				if err != nil {
					return err
				}
				if remove {
					for _, name := range names {
						if err := s.photos.Remove(name); err != nil {
							return fmt.Errorf("removing orphan %s: %w", name, err)
						}
					}
				}
				return writeJSON(cmd, map[string]any{
					"orphans": orEmpty(names),
					"removed": remove,
				})
			})
		},
	}
	orphans.Flags().BoolVar(&remove, "remove", false, "delete the orphaned files")

	cmd.AddCommand(list, add, del, resolve, orphans)
	return cmd
}
