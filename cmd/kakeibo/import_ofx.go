package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kakeibo-go/kakeibo/internal/cli"
	"github.com/kakeibo-go/kakeibo/internal/common"
	"github.com/kakeibo-go/kakeibo/internal/model"
	"github.com/kakeibo-go/kakeibo/internal/ofx"
)

const importedCategoryName = "Imported"

func importOFXCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX files exported from a
bank. Each file's records are written as one atomic batch: if any row
fails, the whole file is rolled back.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			for _, pattern := range args {
				matches, err := filepath.Glob(pattern)
				if err != nil {
					return fmt.Errorf("invalid pattern %s: %w", pattern, err)
				}
				if len(matches) == 0 {
					if _, err := os.Stat(pattern); err == nil {
						files = append(files, pattern)
					} else {
						slog.Warn("no files found matching pattern", "pattern", pattern)
					}
					continue
				}
				files = append(files, matches...)
			}
			if len(files) == 0 {
				return fmt.Errorf("no files found to import")
			}

			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categoryID, err := store.GetOrCreateCategory(cmd.Context(), importedCategoryName, "download", "#A8A8A8", 99)
			if err != nil {
				return fmt.Errorf("failed to resolve import category: %w", err)
			}

			parser := ofx.NewParser()
			total := 0
			for _, file := range files {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}

				txns, err := parser.ParseFile(cmd.Context(), f)
				_ = f.Close()
				if err != nil {
					return common.NewUserError(fmt.Sprintf("could not parse %s as OFX/QFX", file), err)
				}
				if len(txns) == 0 {
					slog.Warn("file contained no transactions", "file", file)
					continue
				}

				for i := range txns {
					txns[i].CategoryID = categoryID
				}

				if dryRun {
					printImportPreview(file, txns)
					total += len(txns)
					continue
				}

				if err := coord.AddTransactions(cmd.Context(), txns); err != nil {
					return fmt.Errorf("failed to import %s: %w", file, err)
				}
				total += len(txns)
			}

			verb := "Imported"
			if dryRun {
				verb = "Would import"
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s %d transaction(s) from %d file(s)", verb, total, len(files))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview import without saving")
	return cmd
}

func printImportPreview(file string, txns []model.Transaction) {
	fmt.Println(cli.TitleStyle.Render(file))
	for _, txn := range txns {
		fmt.Printf("  %s  %-7s  %10.2f  %s\n",
			txn.Date.Format("2006-01-02"), txn.Type, txn.Amount, txn.Note)
	}
}
