package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kakeibo-go/kakeibo/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long: `Create or repair the ledger database schema.

Every step is idempotent, so the command is safe to re-run at any
time; it also runs automatically ahead of any other command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath, err := databasePath()
			if err != nil {
				return err
			}
			slog.Info("running schema migration", "database", dbPath)

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.SuccessStyle.Render("Schema is up to date."))
			return nil
		},
	}
}
