package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/hivera/internal/control"
	"github.com/vietddude/hivera/internal/core/config"
	"github.com/vietddude/hivera/internal/core/domain"
	"github.com/vietddude/hivera/internal/infra/storage"
	"github.com/vietddude/hivera/internal/infra/storage/file"
	"github.com/vietddude/hivera/internal/infra/storage/postgres"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect and manage configured accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts in processing order",
	Run:   runAccountsList,
}

var accountsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import accounts from a data file into PostgreSQL",
	Args:  cobra.MaximumNArgs(1),
	Run:   runAccountsImport,
}

var accountsEnableCmd = &cobra.Command{
	Use:   "enable <username>",
	Short: "Enable an account in PostgreSQL",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setEnabled(args[0], true) },
}

var accountsDisableCmd = &cobra.Command{
	Use:   "disable <username>",
	Short: "Disable an account in PostgreSQL",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setEnabled(args[0], false) },
}

func init() {
	accountsCmd.AddCommand(accountsListCmd, accountsImportCmd, accountsEnableCmd, accountsDisableCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	store, db, err := control.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open account store", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer func() {
			_ = db.Close()
		}()
	}

	accounts := storage.Load(ctx, store, nil)
	if len(accounts) == 0 {
		slog.Warn("No accounts configured", "source", cfg.Accounts.Source)
	}
	writeAccounts(os.Stdout, accounts)
}

func writeAccounts(out io.Writer, accounts []domain.Account) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "#\tUSERNAME\tKEY\tPROXY")

	for i, a := range accounts {
		proxy := "-"
		if p, ok := domain.ParseProxy(a.Proxy); ok {
			proxy = p.Addr()
		} else if a.Proxy != "" {
			proxy = "invalid"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, a.Username, a.Key(), proxy)
	}
	_ = w.Flush()
}

func openDB(ctx context.Context, cfg *config.AppConfig) *postgres.DB {
	if cfg.Database.URL == "" {
		slog.Error("database.url is required")
		os.Exit(1)
	}
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	return db
}

func runAccountsImport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	path := cfg.Accounts.File
	if len(args) == 1 {
		path = args[0]
	}
	accounts := storage.Load(ctx, file.NewStore(path), nil)
	if len(accounts) == 0 {
		slog.Warn("Nothing to import", "path", path)
		return
	}

	db := openDB(ctx, cfg)
	defer func() {
		_ = db.Close()
	}()

	if err := postgres.NewAccountRepo(db).SaveAll(ctx, accounts); err != nil {
		slog.Error("Failed to import accounts", "error", err)
		os.Exit(1)
	}
	slog.Info("Imported accounts", "count", len(accounts), "path", path)
}

func setEnabled(username string, enabled bool) {
	cfg := loadConfig()
	ctx := context.Background()

	db := openDB(ctx, cfg)
	defer func() {
		_ = db.Close()
	}()

	n, err := postgres.NewAccountRepo(db).SetEnabled(ctx, username, enabled)
	if err != nil {
		slog.Error("Failed to update account", "username", username, "error", err)
		os.Exit(1)
	}
	if n == 0 {
		slog.Warn("No such account", "username", username)
		return
	}
	slog.Info("Account updated", "username", username, "enabled", enabled)
}
