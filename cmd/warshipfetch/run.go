package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"warshipfetch/pkg/cache"
	"warshipfetch/pkg/config"
	"warshipfetch/pkg/db"
	"warshipfetch/pkg/logging"
	"warshipfetch/pkg/model"
	"warshipfetch/pkg/probe"
	"warshipfetch/pkg/report"
	"warshipfetch/pkg/request"
	"warshipfetch/pkg/store"
	"warshipfetch/pkg/tracker"
	"warshipfetch/pkg/version"
	"warshipfetch/pkg/wikidata"
)

// run executes one fetch → transform → report pass. It returns a wikidata.ErrFetch
// error when no data could be obtained; an empty result is a success.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	runID := uuid.New().String()
	logger := slog.Default().With("run_id", runID)
	logger.Info("warshipfetch started", "version", version.Version)
	started := time.Now()

	var probes []probe.Probe
	if cfg.Output.CSVPath != "" {
		probes = append(probes, probe.Probe{Name: "csv output", Check: probe.ForFile(cfg.Output.CSVPath), Critical: true})
	}

	var st *store.SQLiteStore
	if cfg.Cache.Enabled || cfg.Output.SaveDB {
		dbConn, err := db.Init(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		st = store.NewSQLiteStore(dbConn)
		defer st.Close()
		probes = append(probes, probe.Probe{Name: "database", Check: probe.Ping(dbConn), Critical: cfg.Output.SaveDB})

		if cfg.Cache.Enabled && cfg.Cache.TTL > 0 {
			if n, err := dbConn.PruneCache(time.Duration(cfg.Cache.TTL)); err != nil {
				logger.Warn("Cache prune failed", "error", err)
			} else if n > 0 {
				logger.Debug("Pruned cache entries", "count", n)
			}
		}
	}

	if err := probe.AnalyzeResults(logger, probe.Run(ctx, probes)); err != nil {
		return err
	}

	var cacher cache.Cacher = cache.Noop{}
	if cfg.Cache.Enabled {
		cacher = cache.NewSQLiteCache(st, time.Duration(cfg.Cache.TTL))
	}

	tr := tracker.New()
	defer tr.Log(logger)

	reqClient := request.New(cacher, tr, request.Options{
		Timeout:   time.Duration(cfg.Request.Timeout),
		UserAgent: cfg.Request.UserAgent,
		Logger:    logging.RequestLogger.With("run_id", runID),
	})
	wdClient := wikidata.NewClient(reqClient, logger)
	wdClient.SPARQLEndpoint = cfg.Query.Endpoint
	wdClient.CacheQueries = cfg.Cache.Enabled

	rep := report.New(out, cfg.Output.PreviewRows)
	runner := wikidata.NewRunner(wdClient, wikidata.QueryParams{
		Class:     cfg.Query.Class,
		Languages: cfg.Query.Languages,
		Limit:     cfg.Query.Limit,
	}, rep.Progress)

	rs, err := runner.Fetch(ctx)
	if err != nil {
		rep.Failure(err)
		return err
	}

	table := wikidata.Transform(rs)
	logger.Info("Transformed result set", "bindings", rs.Len(), "rows", table.Len(), "elapsed", time.Since(started))
	rep.Report(table)

	if table.Empty() {
		tr.TrackAPIZero("wikidata")
		return nil
	}

	if cfg.Output.CSVPath != "" {
		if err := report.SaveCSV(cfg.Output.CSVPath, table); err != nil {
			return err
		}
		rep.Saved(cfg.Output.CSVPath)
	}

	if cfg.Output.SaveDB {
		fr := &model.FetchRun{ID: runID, Source: cfg.Query.Endpoint, StartedAt: started}
		if err := st.SaveRun(ctx, fr, table); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info("Saved run snapshot", "rows", fr.RowCount, "db", cfg.DB.Path)
	}

	return nil
}
