package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kakeibo-go/kakeibo/internal/cli"
	"github.com/kakeibo-go/kakeibo/internal/common"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "kakeibo",
		Short: "Local household ledger",
		Long: `kakeibo: a single-device financial ledger that records dated expense
and income movements against user-defined categories, backed by an
embedded SQLite store.`,
		PersistentPreRunE: initConfig,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/kakeibo/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: ~/.local/share/kakeibo/ledger.db)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(txCmd())
	rootCmd.AddCommand(importOFXCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError renders a command failure. Input rejections get the warning
// treatment; UserError carries a message meant for display as-is.
func printError(err error) {
	var userErr *common.UserError
	switch {
	case errors.As(err, &userErr):
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render(userErr.UserMessage))
		slog.Debug("command failed", "error", userErr.Err)
	case common.IsValidation(err):
		fmt.Fprintln(os.Stderr, cli.WarningStyle.Render(err.Error()))
	default:
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render(err.Error()))
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "kakeibo"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("KAKEIBO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	common.SetupLogger(
		common.ParseLevel(viper.GetString("logging.level")),
		viper.GetString("logging.format"),
	)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("kakeibo %s\n", version)
		},
	}
}
