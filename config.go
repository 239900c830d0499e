package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "GOSSIP_RESULTS"

// Config holds the processing configuration
type Config struct {
	Format        string
	ParquetDir    string
	MetricsFile   string
	ListenAddr    string
	DashboardPath string
	UploadKey     string
	Region        string
	LogLevel      string
	CheckOnly     bool
}

func registerFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Optional config file (yaml, toml or json)")
	flags.String("format", "text", "Report format: text, json or yaml")
	flags.String("parquet-dir", "", "Write finalized statistics to a Parquet file in this directory")
	flags.String("metrics-file", "", "Write Prometheus metrics in text format to this file")
	flags.String("listen", "", "Serve /metrics and /report on this address after processing")
	flags.String("dashboard", "", "Write a Grafana dashboard for the exported metrics to this file")
	flags.String("upload-key", "", "Upload the rendered report next to a remote results file under this key")
	flags.String("region", "us-east-1", "AWS region for s3:// results files")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.Bool("check", false, "Only parse the results file and print the record count")
}

// loadConfig resolves flags, GOSSIP_RESULTS_* environment variables and the
// optional config file, in that order of precedence
func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (Config, error) {
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return Config{
		Format:        v.GetString("format"),
		ParquetDir:    v.GetString("parquet-dir"),
		MetricsFile:   v.GetString("metrics-file"),
		ListenAddr:    v.GetString("listen"),
		DashboardPath: v.GetString("dashboard"),
		UploadKey:     v.GetString("upload-key"),
		Region:        v.GetString("region"),
		LogLevel:      v.GetString("log-level"),
		CheckOnly:     v.GetBool("check"),
	}, nil
}
