package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kakeibo-go/kakeibo/internal/cli"
	"github.com/kakeibo-go/kakeibo/internal/model"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage ledger transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txns := coord.Transactions()
			if len(txns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions recorded."))
				return nil
			}
			if limit > 0 && len(txns) > limit {
				txns = txns[:limit]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Date"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Note"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 10),
				strings.Repeat("-", 8),
				strings.Repeat("-", 10),
				strings.Repeat("-", 16),
				strings.Repeat("-", 24))

			for _, txn := range txns {
				// Category resolution never fails; deactivated
				// categories render as placeholders.
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
					txn.ID,
					txn.Date.Format("2006-01-02"),
					txn.Type,
					txn.Amount,
					coord.CategoryNameFor(txn.CategoryID),
					txn.Note)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many transactions")
	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		txnType    string
		date       string
		note       string
		categoryID int64
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			when := time.Now()
			if date != "" {
				when, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}

			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn := model.Transaction{
				Date:       when,
				Note:       note,
				Type:       model.TransactionType(txnType),
				Amount:     amount,
				CategoryID: categoryID,
			}
			if err := coord.AddTransaction(cmd.Context(), &txn); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Recorded %s of %.2f (id %d)", txn.Type, txn.Amount, txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txnType, "type", string(model.TypeExpense), "transaction type (expense, income)")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id")
	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete transactions",
		Long: `Physically remove transactions. With multiple ids the deletes run
sequentially; a failure partway leaves earlier deletes applied.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid transaction id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}

			coord, store, err := initCoordinator(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := coord.DeleteTransactions(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Deleted %d transaction(s)", len(ids))))
			return nil
		},
	}
}
