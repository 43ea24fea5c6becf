// Command focusctl inspects the focus service's stored state and story
// catalog.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dailyfocus/focus/internal/clock"
	"github.com/dailyfocus/focus/internal/config"
	"github.com/dailyfocus/focus/internal/content"
	"github.com/dailyfocus/focus/internal/database"
	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/migrations"
	"github.com/dailyfocus/focus/internal/progress"
	"github.com/dailyfocus/focus/internal/reminder"
	"github.com/dailyfocus/focus/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	backend    string
	contentDir string
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "focusctl",
		Short:         "Inspect DailyFocus stories and stored progress",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "store backend (overrides STORE_BACKEND)")
	root.PersistentFlags().StringVar(&opts.contentDir, "content", "", "story directory (overrides CONTENT_DIR)")

	root.AddCommand(newStoriesCmd(&opts))
	root.AddCommand(newStatsCmd(&opts))
	root.AddCommand(newProgressCmd(&opts))
	root.AddCommand(newReminderCmd(&opts))
	root.AddCommand(newMigrateCmd())
	return root
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.StoreBackend = opts.backend
	}
	if opts.contentDir != "" {
		cfg.ContentDir = opts.contentDir
	}
	return cfg, nil
}

// openRecorder opens the configured store and hydrates a recorder from it.
func openRecorder(ctx context.Context, opts *options) (*progress.Recorder, storage.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, nil, err
	}
	rec := progress.NewRecorder(store, clock.System(), slog.New(slog.DiscardHandler))
	rec.Hydrate(ctx)
	return rec, store, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStoriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stories",
		Short: "List the story catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			stories := content.Default()
			if cfg.ContentDir != "" {
				if stories, err = content.Load(os.DirFS(cfg.ContentDir)); err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTAGE\tPASSAGES\tTITLE")
			for _, s := range stories {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.ID, s.Stage, len(s.Passages), s.Title)
			}
			return tw.Flush()
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print stored focus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, store, err := openRecorder(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer store.Close()

			out := struct {
				focus.FocusStats
				CompletedToday bool `json:"completedToday"`
			}{rec.Stats(), rec.CompletedToday()}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newProgressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Print completed stories and session history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, store, err := openRecorder(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer store.Close()
			return printJSON(cmd.OutOrStdout(), rec.Progress())
		},
	}
}

func newReminderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reminder",
		Short: "Print reminder settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			store, err := storage.Open(cmd.Context(), cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer store.Close()

			raw, _, err := store.Load(cmd.Context(), storage.ReminderSettingsKey)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reminder.DecodeSettings(raw, cfg.ReminderDefaults()))
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply sqlite migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				path = cfg.DBPath
			}
			db, err := database.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Run(db); err != nil {
				return err
			}
			v, err := migrations.Status(db)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", path, v)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "db", "", "database path (defaults to DB_PATH)")
	return cmd
}
