package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

var errExactlyOnePlace = errors.New("give exactly one of --place or --new-place")

// visitFlags are the visit fields settable from the command line.
type visitFlags struct {
	date          string
	rating        float64
	cost          float64
	currency      string
	whoPaidID     int64
	priceLevel    int64
	attendeeCount int64
	notes         string
}

func (f *visitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "visit date YYYY-MM-DD")
	cmd.Flags().Float64Var(&f.rating, "rating", 0, "rating from 0 to 5 in steps of 0.5")
	cmd.Flags().Float64Var(&f.cost, "cost", 0, "amount spent")
	cmd.Flags().StringVar(&f.currency, "currency", "", "currency code (default USD)")
	cmd.Flags().Int64Var(&f.whoPaidID, "paid-by", 0, "id of the person who paid")
	cmd.Flags().Int64Var(&f.priceLevel, "price-level", 0, "price level from 1 to 4")
	cmd.Flags().Int64Var(&f.attendeeCount, "attendees", 0, "number of people present")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
}

func (f *visitFlags) input(cmd *cobra.Command, placeID int64) types.VisitInput {
	date := f.date
	if date == "" {
		date = time.Now().Format(types.DateLayout)
	}
	return types.VisitInput{
		PlaceID:       placeID,
		Date:          date,
		Rating:        changed(cmd, "rating", f.rating),
		Cost:          changed(cmd, "cost", f.cost),
		Currency:      f.currency,
		WhoPaidID:     changed(cmd, "paid-by", f.whoPaidID),
		PriceLevel:    changed(cmd, "price-level", f.priceLevel),
		AttendeeCount: changed(cmd, "attendees", f.attendeeCount),
		Notes:         changed(cmd, "notes", f.notes),
	}
}

func (f *visitFlags) update(cmd *cobra.Command, unset []string) types.VisitUpdate {
	return types.VisitUpdate{
		Date:          changed(cmd, "date", f.date),
		Rating:        changed(cmd, "rating", f.rating),
		Cost:          changed(cmd, "cost", f.cost),
		Currency:      changed(cmd, "currency", f.currency),
		WhoPaidID:     changed(cmd, "paid-by", f.whoPaidID),
		PriceLevel:    changed(cmd, "price-level", f.priceLevel),
		AttendeeCount: changed(cmd, "attendees", f.attendeeCount),
		Notes:         changed(cmd, "notes", f.notes),
		Unset:         fields(unset),
	}
}

// visitView is a visit with its tags and photos, as printed by show.
type visitView struct {
	*types.VisitDetail
	Tags   []*types.Tag `json:"tags"`
	Photos []photoView  `json:"photos"`
}

func newVisitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "visit",
		Aliases: []string{"visits"},
		Short:   "Record and query visits",
	}
	cmd.AddCommand(
		newVisitListCmd(a),
		newVisitShowCmd(a),
		newVisitAddCmd(a),
		newVisitUpdateCmd(a),
		deleteCmd(a, "visit with its tags and photos; an emptied place goes too", func(ctx context.Context, s session, id int64) error {
			return s.journal.DeleteVisitCascade(ctx, id)
		}),
		newVisitTagsCmd(a),
	)
	return cmd
}

func newVisitListCmd(a *app) *cobra.Command {
	var (
		categoryID int64
		minRating  float64
		whoPaidID  int64
		from, to   string
		search     string
		tags       string
		sortField  string
		sortOrder  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visits matching filters",
		Long: `List visits with their place, category and payer. Every filter is optional;
without any, all visits are listed newest first.

Example:
  stamped visit list --category 1 --min-rating 4
  stamped visit list --from 2024-01-01 --to 2024-03-31 --sort cost --order asc
  stamped visit list --search latte --tags 2,5`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tagIDs, err := parseIDs(tags)
			if err != nil {
				return err
			}
			filters := types.VisitFilters{
				CategoryID:  changed(cmd, "category", categoryID),
				MinRating:   changed(cmd, "min-rating", minRating),
				WhoPaidID:   changed(cmd, "paid-by", whoPaidID),
				DateFrom:    from,
				DateTo:      to,
				SearchQuery: search,
				TagIDs:      tagIDs,
				SortField:   types.SortField(sortField),
				SortOrder:   types.SortOrder(sortOrder),
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				visits, err := s.journal.Visits().GetFiltered(ctx, filters)
				if err != nil {
					return err
				}
				return writeJSON(cmd, orEmpty(visits))
			})
		},
	}
	f := cmd.Flags()
	f.Int64Var(&categoryID, "category", 0, "only visits to places of this category")
	f.Float64Var(&minRating, "min-rating", 0, "only visits rated at least this")
	f.Int64Var(&whoPaidID, "paid-by", 0, "only visits paid by this person")
	f.StringVar(&from, "from", "", "earliest date YYYY-MM-DD")
	f.StringVar(&to, "to", "", "latest date YYYY-MM-DD")
	f.StringVar(&search, "search", "", "substring of the place name or notes")
	f.StringVar(&tags, "tags", "", "comma-separated tag ids; visits with any of them")
	f.StringVar(&sortField, "sort", "", "date, rating, cost or name (default date)")
	f.StringVar(&sortOrder, "order", "", "asc or desc (default desc)")
	return cmd
}

func newVisitShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a visit with its tags and photos",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				visit, err := s.journal.Visits().GetByID(ctx, id)
				if err != nil {
					return err
				}
				tags, err := s.journal.Tags().GetForVisit(ctx, id)
				if err != nil {
					return err
				}
				photos, err := s.journal.Photos().GetForVisit(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd, visitView{
					VisitDetail: visit,
					Tags:        orEmpty(tags),
					Photos:      photoViews(s, photos),
				})
			})
		},
	}
}

func newVisitAddCmd(a *app) *cobra.Command {
	var (
		vf      visitFlags
		pf      placeFlags
		placeID int64
		tags    string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a visit",
		Long: `Record a visit to an existing place (--place) or to a new one (--new-place).
A new place and its first visit are created together or not at all.

Example:
  stamped visit add --place 3 --date 2024-05-01 --rating 4.5 --cost 12.50
  stamped visit add --new-place "Tartine" --category 2 --lat 37.76 --lng -122.42 --tags 1,4`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasPlace := cmd.Flags().Changed("place")
			hasNew := cmd.Flags().Changed("new-place")
			if hasPlace == hasNew {
				return usageError{errExactlyOnePlace}
			}
			tagIDs, err := parseIDs(tags)
			if err != nil {
				return err
			}
			in := vf.input(cmd, placeID)

			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				var visit *types.Visit
				if hasNew {
					_, v, err := s.journal.CreateVisitAtNewPlace(ctx, pf.input(cmd), in)
					if err != nil {
						return err
					}
					visit = v
				} else {
					v, err := s.journal.Visits().Insert(ctx, in)
					if err != nil {
						return err
					}
					visit = v
				}
				if len(tagIDs) > 0 {
					if err := s.journal.Tags().SetForVisit(ctx, visit.ID, tagIDs); err != nil {
						return err
					}
				}
				detail, err := s.journal.Visits().GetByID(ctx, visit.ID)
				if err != nil {
					return err
				}
				return writeJSON(cmd, detail)
			})
		},
	}
	vf.register(cmd)
	pf.register(cmd)
	cmd.Flags().Int64Var(&placeID, "place", 0, "id of the visited place")
	cmd.Flags().StringVar(&pf.name, "new-place", "", "name of a place to create for this visit")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tag ids")
	return cmd
}

func newVisitUpdateCmd(a *app) *cobra.Command {
	var (
		vf    visitFlags
		unset []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a visit",
		Long: `Change the given fields of a visit. Fields not named are left as they are.
--clear resets rating, cost, who_paid_id, price_level, attendee_count or notes.

Example:
  stamped visit update 12 --rating 5 --clear notes`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			upd := vf.update(cmd, unset)
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				if err := s.journal.Visits().Update(ctx, id, upd); err != nil {
					return err
				}
				detail, err := s.journal.Visits().GetByID(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd, detail)
			})
		},
	}
	vf.register(cmd)
	cmd.Flags().StringSliceVar(&unset, "clear", nil, "fields to reset")
	return cmd
}

func newVisitTagsCmd(a *app) *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "tags <visit-id>",
		Short: "Show or replace the tags of a visit",
		Long: `Without --set, print the visit's tags. With --set, replace them; an empty
--set removes every tag.

Example:
  stamped visit tags 12
  stamped visit tags 12 --set 1,3`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var tagIDs []int64
			replace := cmd.Flags().Changed("set")
			if replace {
				if tagIDs, err = parseIDs(set); err != nil {
					return err
				}
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				if replace {
					if err := s.journal.Tags().SetForVisit(ctx, id, tagIDs); err != nil {
						return err
					}
				}
				tags, err := s.journal.Tags().GetForVisit(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd, orEmpty(tags))
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "comma-separated tag ids to assign")
	return cmd
}
