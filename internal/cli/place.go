package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// placeFlags are the place fields settable from the command line.
type placeFlags struct {
	name       string
	address    string
	latitude   float64
	longitude  float64
	categoryID int64
}

func (f *placeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.address, "address", "", "street address")
	cmd.Flags().Float64Var(&f.latitude, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&f.longitude, "lng", 0, "longitude in degrees")
	cmd.Flags().Int64Var(&f.categoryID, "category", 0, "category id")
}

func (f *placeFlags) input(cmd *cobra.Command) types.PlaceInput {
	return types.PlaceInput{
		Name:       f.name,
		Address:    changed(cmd, "address", f.address),
		Latitude:   f.latitude,
		Longitude:  f.longitude,
		CategoryID: changed(cmd, "category", f.categoryID),
	}
}

func newPlaceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "place",
		Aliases: []string{"places"},
		Short:   "Manage visited places",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List places by name with their category",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				places, err := s.journal.Places().GetAll(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd, orEmpty(places))
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a place with visit statistics and its visits",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				place, err := s.journal.Places().GetWithStats(ctx, id)
				if err != nil {
					return err
				}
				visits, err := s.journal.Visits().GetByPlaceID(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd, struct {
					*types.PlaceWithStats
					Visits []*types.Visit `json:"visits"`
				}{place, orEmpty(visits)})
			})
		},
	}

	var addFlags placeFlags
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a place",
		Long: `Add a place. A place without --lat and --lng has no location.

Example:
  stamped place add "Blue Bottle" --address "1 Ferry Building" --lat 37.7955 --lng -122.3937 --category 1`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addFlags.name = args[0]
			in := addFlags.input(cmd)
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				place, err := s.journal.Places().Insert(ctx, in)
				if err != nil {
					return err
				}
				return writeJSON(cmd, place)
			})
		},
	}
	addFlags.register(add)

	var (
		updFlags placeFlags
		unset    []string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a place",
		Long: `Change the given fields of a place. Fields not named are left as they are.
--clear resets address or category_id to empty.

Example:
  stamped place update 3 --name "Blue Bottle Coffee" --clear category_id`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			upd := types.PlaceUpdate{
				Name:       changed(cmd, "name", updFlags.name),
				Address:    changed(cmd, "address", updFlags.address),
				Latitude:   changed(cmd, "lat", updFlags.latitude),
				Longitude:  changed(cmd, "lng", updFlags.longitude),
				CategoryID: changed(cmd, "category", updFlags.categoryID),
				Unset:      fields(unset),
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				if err := s.journal.Places().Update(ctx, id, upd); err != nil {
					return err
				}
				place, err := s.journal.Places().GetByID(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd, place)
			})
		},
	}
	updFlags.register(update)
	update.Flags().StringVar(&updFlags.name, "name", "", "new name")
	update.Flags().StringSliceVar(&unset, "clear", nil, "fields to reset: address, category_id")

	del := deleteCmd(a, "place with all of its visits and photos", func(ctx context.Context, s session, id int64) error {
		return s.journal.DeletePlace(ctx, id)
	})

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Delete places that have no visits",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				n, err := s.journal.SweepOrphanPlaces(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd, map[string]int{"deleted": n})
			})
		},
	}

	cmd.AddCommand(list, show, add, update, del, sweep)
	return cmd
}
