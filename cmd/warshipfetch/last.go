package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"warshipfetch/pkg/config"
	"warshipfetch/pkg/db"
	"warshipfetch/pkg/logging"
	"warshipfetch/pkg/report"
	"warshipfetch/pkg/store"
)

func newLastCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the most recent snapshot saved with --save-db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return showLast(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

// showLast reports the latest stored run without contacting the endpoint.
func showLast(ctx context.Context, cfg *config.Config, out io.Writer) error {
	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)
	defer st.Close()

	var rs store.RunStore = st
	run, err := rs.LatestRun(ctx)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(out, "No saved runs in %s\n", cfg.DB.Path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read latest run: %w", err)
	}

	table, err := rs.GetRunShips(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to read run %s: %w", run.ID, err)
	}

	fmt.Fprintf(out, "Run %s from %s at %s\n", run.ID, run.Source, run.StartedAt.Format(time.RFC3339))
	report.New(out, cfg.Output.PreviewRows).Report(table)
	return nil
}
