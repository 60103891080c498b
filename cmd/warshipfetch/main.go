package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"warshipfetch/pkg/config"
	"warshipfetch/pkg/wikidata"
)

type options struct {
	configPath string
	initConfig bool
	csvPath    string
	saveDB     bool
	cache      bool
	limit      int
	preview    int
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "warshipfetch",
		Short: "Fetch warships with images from Wikidata",
		Long: `Query the Wikidata SPARQL endpoint for warships that have an image,
deduplicate the rows by entity and print a short preview.

Runs with no flags. Persistence (CSV export, SQLite snapshot, response cache)
is off unless enabled by flag or configuration.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.initConfig {
				if err := config.GenerateDefault(opts.configPath); err != nil {
					return fmt.Errorf("failed to generate config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config file generated: %s\n", opts.configPath)
				return nil
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := applyFlags(cmd, opts, cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "path to the YAML config file")

	f := cmd.Flags()
	f.BoolVar(&opts.initConfig, "init-config", false, "write a default config file and exit")
	f.StringVar(&opts.csvPath, "csv", "", "also write the table to this CSV file")
	f.BoolVar(&opts.saveDB, "save-db", false, "store a snapshot of the table in the SQLite database")
	f.BoolVar(&opts.cache, "cache", false, "reuse cached SPARQL responses younger than cache.ttl")
	f.IntVar(&opts.limit, "limit", 0, "server-side result cap (overrides query.limit)")
	f.IntVar(&opts.preview, "preview", 0, "number of preview rows (overrides output.preview_rows)")

	cmd.AddCommand(newLastCommand(opts))
	return cmd
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("csv") {
		cfg.Output.CSVPath = opts.csvPath
	}
	if f.Changed("save-db") {
		cfg.Output.SaveDB = opts.saveDB
	}
	if f.Changed("cache") {
		cfg.Cache.Enabled = opts.cache
	}
	if f.Changed("limit") {
		cfg.Query.Limit = opts.limit
	}
	if f.Changed("preview") {
		cfg.Output.PreviewRows = opts.preview
	}
	return cfg.Validate()
}

// exitCode maps run errors to process status. A fetch failure has already been
// reported on stdout, so it is not printed twice.
func exitCode(err error) (code int, show bool) {
	if err == nil {
		return 0, false
	}
	if errors.Is(err, wikidata.ErrFetch) {
		return 1, false
	}
	return 1, true
}

func main() {
	err := newRootCommand().ExecuteContext(context.Background())
	code, show := exitCode(err)
	if show {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
