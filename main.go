package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gossip-results/instances"
	"gossip-results/report"
	"gossip-results/results"
	"gossip-results/storage"
	"gossip-results/visualisation"
)

const usageMessage = "Incorrect usage, please pass along the results file name as a parameter"

// newObjectStore is swapped out in tests
var newObjectStore = instances.NewObjectStore

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "gossip-results <results-file>",
		Short: "Aggregate gossip simulation results per network size",
		Long: "Parses the results log written by the gossip simulator and reports consensus hit/miss rates,\n" +
			"consensus and gossip times, reachability and message counts for every network size.\n" +
			"The results file may be a local path, s3://bucket/key or r2://bucket/key.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &UsageError{Reason: usageMessage}
			}
			cfg, err := loadConfig(v, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(stderr, cfg.LogLevel)
			if err != nil {
				return &UsageError{Reason: err.Error()}
			}
			return run(cmd.Context(), cfg, args[0], stdout, logger)
		},
	}
	registerFlags(cmd.Flags())
	// cobra falls back to os.Args when args is nil
	if args == nil {
		args = []string{}
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Reason: err.Error()}
	})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var usageErr *UsageError
	var unreadable *UnreadableInputError
	switch {
	case errors.As(err, &usageErr):
		fmt.Fprintln(stdout, usageErr.Reason)
		fmt.Fprint(stdout, cmd.UsageString())
		return 0
	case errors.As(err, &unreadable):
		fmt.Fprintln(stdout, unreadable.Error())
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// run processes one results log and emits the report and every configured export
func run(ctx context.Context, cfg Config, arg string, stdout io.Writer, logger zerolog.Logger) error {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return &UsageError{Reason: err.Error()}
	}
	loc, err := instances.ParseLocation(arg)
	if err != nil {
		return &UsageError{Reason: err.Error()}
	}

	input, store, err := openInput(ctx, loc, cfg.Region)
	if err != nil {
		return err
	}
	defer input.Close()

	logger.Info().Str("source", loc.String()).Msg("Processing results")

	exporter := storage.NewPrometheusExporter()
	progress := results.ObserverFunc(func(rec results.Record) {
		logger.Debug().
			Int("line", rec.Line).
			Int("network_size", rec.NetworkSize).
			Bool("consensus", rec.Consensus.Reached).
			Msg("Record parsed")
	})

	reader := results.NewReader(input)
	agg := results.NewAggregator()
	if err := results.Process(reader, agg, exporter, progress); err != nil {
		logger.Error().Err(err).Int("line", reader.Line()).Msg("Aborting, no results reported")
		return fmt.Errorf("failed to process %s: %w", loc, err)
	}

	buckets := agg.Buckets()
	logger.Info().
		Int("records", reader.Records()).
		Int("network_sizes", len(buckets)).
		Msg("Processed results")

	summary := report.NewSummary(loc.String(), agg)
	if cfg.CheckOnly {
		fmt.Fprintf(stdout, "Processed %d results\n", summary.Records)
		return nil
	}

	var rendered bytes.Buffer
	if err := report.Render(&rendered, format, summary); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if _, err := stdout.Write(rendered.Bytes()); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	exporter.PublishBuckets(buckets)

	if cfg.ParquetDir != "" {
		path, err := writeParquet(cfg.ParquetDir, buckets, loc.String())
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("Parquet file written")
	}

	if cfg.MetricsFile != "" {
		if err := exporter.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.MetricsFile).Msg("Metrics file written")
	}

	if cfg.DashboardPath != "" {
		if err := visualisation.SaveDashboard(visualisation.CreateGossipResultsDashboard(), cfg.DashboardPath); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.DashboardPath).Msg("Dashboard saved")
	}

	if cfg.UploadKey != "" {
		if store == nil {
			logger.Warn().Str("key", cfg.UploadKey).Msg("Upload key ignored for a local results file")
		} else {
			if err := store.UploadObject(ctx, cfg.UploadKey, rendered.Bytes()); err != nil {
				return fmt.Errorf("failed to upload report: %w", err)
			}
			logger.Info().
				Str("endpoint", store.GetEndpoint()).
				Str("key", cfg.UploadKey).
				Msg("Report uploaded")
		}
	}

	if cfg.ListenAddr != "" {
		return serve(ctx, cfg.ListenAddr, newRouter(exporter, summary), logger)
	}
	return nil
}

// openInput checks that the results log is readable and opens it. The store
// is nil for local files.
func openInput(ctx context.Context, loc instances.Location, region string) (io.ReadCloser, instances.ObjectStore, error) {
	if !loc.Remote() {
		info, err := os.Stat(loc.Key)
		if err != nil {
			return nil, nil, &UnreadableInputError{Path: loc.Key, Err: err}
		}
		if info.IsDir() {
			return nil, nil, &UnreadableInputError{Path: loc.Key, Err: errors.New("is a directory")}
		}
		f, err := os.Open(loc.Key)
		if err != nil {
			return nil, nil, &UnreadableInputError{Path: loc.Key, Err: err}
		}
		return f, nil, nil
	}

	store, err := newObjectStore(ctx, loc, region)
	if err != nil {
		return nil, nil, &UnreadableInputError{Path: loc.String(), Err: err}
	}
	exists, err := store.ObjectExists(ctx, loc.Key)
	if err != nil {
		return nil, nil, &UnreadableInputError{Path: loc.String(), Err: err}
	}
	if !exists {
		return nil, nil, &UnreadableInputError{Path: loc.String(), Err: errors.New("object not found")}
	}
	body, err := store.OpenObject(ctx, loc.Key)
	if err != nil {
		return nil, nil, &UnreadableInputError{Path: loc.String(), Err: err}
	}
	return body, store, nil
}

func writeParquet(dir string, buckets []*results.StatBucket, origin string) (string, error) {
	pw, err := storage.NewParquetWriter(dir, 100)
	if err != nil {
		return "", err
	}
	if err := pw.WriteBuckets(buckets, origin); err != nil {
		pw.Close()
		return "", err
	}
	if err := pw.Close(); err != nil {
		return "", err
	}
	return pw.FilePath(), nil
}
