package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kakeibo-go/kakeibo/internal/cli"
	"github.com/kakeibo-go/kakeibo/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage ledger categories",
		Long:  `List, add, update, delete, reorder, and reset the categories transactions are filed under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(reorderCategoriesCmd())
	cmd.AddCommand(resetCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var showHidden bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories := coord.VisibleCategories()
			if showHidden {
				categories = coord.Categories()
			}
			if len(categories) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No categories found. Use 'kakeibo categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Icon"),
				cli.HeaderStyle.Render("Color"),
				cli.HeaderStyle.Render("Flags"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 20),
				strings.Repeat("-", 8),
				strings.Repeat("-", 12),
				strings.Repeat("-", 8),
				strings.Repeat("-", 8))

			for _, cat := range categories {
				var flags []string
				if cat.IsDefault {
					flags = append(flags, "default")
				}
				if !cat.IsVisible {
					flags = append(flags, "hidden")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					cat.ID, cat.Name, cat.Type, cat.Icon, cat.Color,
					strings.Join(flags, ","))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showHidden, "all", false, "include hidden categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		icon      string
		color     string
		catType   string
		sortOrder int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat := model.Category{
				Name:      args[0],
				Icon:      icon,
				Color:     color,
				Type:      model.CategoryType(catType),
				SortOrder: sortOrder,
				IsVisible: true,
			}
			if err := coord.AddCategory(cmd.Context(), &cat); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added category %q (id %d)", cat.Name, cat.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "icon token")
	cmd.Flags().StringVar(&color, "color", "", "color token")
	cmd.Flags().StringVar(&catType, "type", string(model.CategoryTypeExpense), "category type (expense, income)")
	cmd.Flags().IntVar(&sortOrder, "sort", 0, "sort order")
	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name  string
		icon  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q: %w", args[0], err)
			}

			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			existing, err := store.GetCategoryByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("category %d not found", id)
			}

			cat := *existing
			if cmd.Flags().Changed("name") {
				cat.Name = name
			}
			if cmd.Flags().Changed("icon") {
				cat.Icon = icon
			}
			if cmd.Flags().Changed("color") {
				cat.Color = color
			}

			if err := coord.UpdateCategory(cmd.Context(), &cat); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Updated category %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&icon, "icon", "", "new icon token")
	cmd.Flags().StringVar(&color, "color", "", "new color token")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Deactivate a category",
		Long: `Logically delete a category. The row is kept so historical
transactions remain resolvable; default categories are refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q: %w", args[0], err)
			}

			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := coord.DeleteCategory(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Deactivated category %d", id)))
			return nil
		},
	}
}

func reorderCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> [id...]",
		Short: "Reorder categories",
		Long:  `Persist a new display order. Ids are given in their desired order; only sort order changes.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cats := make([]model.Category, 0, len(args))
			for i, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid category id %q: %w", arg, err)
				}
				cats = append(cats, model.Category{ID: id, SortOrder: i + 1})
			}

			if err := coord.ReorderCategories(cmd.Context(), cats); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render("Reordered categories"))
			return nil
		},
	}
}

func resetCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default category set",
		Long: `Deactivate every default category and re-insert the canonical set
fresh. Transactions filed under the old defaults keep their history and
resolve through placeholder entries.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := coord.ResetDefaultCategories(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render("Restored default categories"))
			return nil
		},
	}
}
