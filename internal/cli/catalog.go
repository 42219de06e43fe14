package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

// deleteCmd builds the "delete <id>" subcommand shared by the catalog
// entities.
func deleteCmd(a *app, noun string, del func(ctx context.Context, s session, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			err = a.withJournal(cmd, func(ctx context.Context, s session) error {
				return del(ctx, s, id)
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]int64{"deleted": id})
		},
	}
}

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage place categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories by name",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				cats, err := s.journal.Categories().GetAll(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd, orEmpty(cats))
			})
		},
	}

	var icon string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				c, err := s.journal.Categories().Insert(ctx, args[0], icon)
				if err != nil {
					return err
				}
				return writeJSON(cmd, c)
			})
		},
	}
	add.Flags().StringVar(&icon, "icon", "", "icon shown next to the category")

	var name, newIcon string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a category or change its icon",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				table := s.journal.Categories()
				c, err := table.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					c.Name = name
				}
				if cmd.Flags().Changed("icon") {
					c.Icon = newIcon
				}
				if err := table.Update(ctx, id, c.Name, c.Icon); err != nil {
					return err
				}
				return writeJSON(cmd, c)
			})
		},
	}
	update.Flags().StringVar(&name, "name", "", "new name")
	update.Flags().StringVar(&newIcon, "icon", "", "new icon")

	del := deleteCmd(a, "category; its places become uncategorized", func(ctx context.Context, s session, id int64) error {
		return s.journal.Categories().Delete(ctx, id)
	})

	cmd.AddCommand(list, add, update, del)
	return cmd
}

func newPersonCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "person",
		Aliases: []string{"people"},
		Short:   "Manage people who pay for visits",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List people by name",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				people, err := s.journal.People().GetAll(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd, orEmpty(people))
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				p, err := s.journal.People().Insert(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, p)
			})
		},
	}

	update := &cobra.Command{
		Use:   "update <id> <name>",
		Short: "Rename a person",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				if err := s.journal.People().Update(ctx, id, args[1]); err != nil {
					return err
				}
				return writeJSON(cmd, types.Person{ID: id, Name: args[1]})
			})
		},
	}

	del := deleteCmd(a, "person; their visits keep no payer", func(ctx context.Context, s session, id int64) error {
		return s.journal.People().Delete(ctx, id)
	})

	cmd.AddCommand(list, add, update, del)
	return cmd
}

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage visit tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags by label",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				tags, err := s.journal.Tags().GetAll(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd, orEmpty(tags))
			})
		},
	}

	var color string
	add := &cobra.Command{
		Use:   "add <label>",
		Short: "Add a tag",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				tag, err := s.journal.Tags().Insert(ctx, args[0], color)
				if err != nil {
					return err
				}
				return writeJSON(cmd, tag)
			})
		},
	}
	add.Flags().StringVar(&color, "color", "", "display color, e.g. #ff8800")

	var label, newColor string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Relabel a tag or change its color",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				table := s.journal.Tags()
				tag, err := findTag(ctx, table, id)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("label") {
					tag.Label = label
				}
				if cmd.Flags().Changed("color") {
					tag.Color = newColor
				}
				if err := table.Update(ctx, id, tag.Label, tag.Color); err != nil {
					return err
				}
				return writeJSON(cmd, tag)
			})
		},
	}
	update.Flags().StringVar(&label, "label", "", "new label")
	update.Flags().StringVar(&newColor, "color", "", "new color")

	del := deleteCmd(a, "tag and its visit links", func(ctx context.Context, s session, id int64) error {
		return s.journal.Tags().Delete(ctx, id)
	})

	cmd.AddCommand(list, add, update, del)
	return cmd
}

func findTag(ctx context.Context, table types.TagTable, id int64) (*types.Tag, error) {
	tags, err := table.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if tag.ID == id {
			return tag, nil
		}
	}
	return nil, fmt.Errorf("tag %d: %w", id, types.ErrNotFound)
}
