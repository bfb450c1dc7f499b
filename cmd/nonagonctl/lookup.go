package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/config"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/repository"
	"github.com/forgo/nonagon/internal/service"
)

var (
	lookupGuild       int64
	lookupUser        int64
	lookupDescription string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Manage guild lookup entries",
	Long:  "Manage guild lookup entries. Storage settings come from the DB_* environment variables.",
}

var lookupFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Show the best entry for a query",
	Args:  cobra.ExactArgs(1),
	RunE: withLookups(func(ctx context.Context, cmd *cobra.Command, svc *service.LookupService, args []string) error {
		entry, err := svc.FindBestMatch(ctx, lookupGuild, args[0])
		if err != nil {
			return err
		}
		return printValue(cmd, entryView(entry.Name, entry.URL, entry.Description))
	}),
}

var lookupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries ordered by name",
	Args:  cobra.NoArgs,
	RunE: withLookups(func(ctx context.Context, cmd *cobra.Command, svc *service.LookupService, args []string) error {
		entries, err := svc.List(ctx, lookupGuild)
		if err != nil {
			return err
		}
		views := make([]map[string]string, 0, len(entries))
		for _, e := range entries {
			views = append(views, entryView(e.Name, e.URL, e.Description))
		}
		return printValue(cmd, views)
	}),
}

var lookupSetCmd = &cobra.Command{
	Use:   "set <name> <url>",
	Short: "Create or update an entry",
	Args:  cobra.ExactArgs(2),
	RunE: withLookups(func(ctx context.Context, cmd *cobra.Command, svc *service.LookupService, args []string) error {
		in := service.LookupInput{Name: args[0], URL: args[1]}
		if cmd.Flags().Changed("description") {
			in.Description = &lookupDescription
		}
		entry, err := svc.Set(ctx, lookupGuild, lookupUser, in)
		if err != nil {
			return err
		}
		return printValue(cmd, entryView(entry.Name, entry.URL, entry.Description))
	}),
}

var lookupDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: withLookups(func(ctx context.Context, cmd *cobra.Command, svc *service.LookupService, args []string) error {
		if err := svc.Delete(ctx, lookupGuild, args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", args[0])
		return err
	}),
}

func init() {
	lookupCmd.PersistentFlags().Int64VarP(&lookupGuild, "guild", "g", 0, "guild id (required)")
	_ = lookupCmd.MarkPersistentFlagRequired("guild")

	lookupSetCmd.Flags().Int64VarP(&lookupUser, "user", "u", 0, "acting user id (required)")
	lookupSetCmd.Flags().StringVar(&lookupDescription, "description", "", "entry description")
	_ = lookupSetCmd.MarkFlagRequired("user")

	lookupCmd.AddCommand(lookupFindCmd)
	lookupCmd.AddCommand(lookupListCmd)
	lookupCmd.AddCommand(lookupSetCmd)
	lookupCmd.AddCommand(lookupDeleteCmd)
}

func entryView(name, url string, description *string) map[string]string {
	v := map[string]string{"name": name, "url": url}
	if description != nil {
		v["description"] = *description
	}
	return v
}

type lookupFunc func(ctx context.Context, cmd *cobra.Command, svc *service.LookupService, args []string) error

// withLookups connects to storage, ensures the lookup index and runs fn.
func withLookups(fn lookupFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		level, err := cfg.Server.SlogLevel()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		db := database.NewSurrealDB(cfg.Database.Connection())
		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer func() { _ = db.Close() }()

		policy, err := cfg.Codec.Policy()
		if err != nil {
			return err
		}
		schema := database.NewSchema(db)
		repo := repository.NewLookupRepository(db, schema, codec.New(codec.WithUnknownEnums(policy)))
		if err := schema.Ensure(ctx); err != nil {
			return err
		}

		svc := service.NewLookupService(service.LookupServiceConfig{
			Store:  repo,
			Logger: logger,
		})
		return fn(ctx, cmd, svc, args)
	}
}
