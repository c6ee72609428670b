package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vehicleids/config"
	"vehicleids/internal/analytics"
	"vehicleids/internal/auth"
	"vehicleids/internal/report"
)

const defaultConfigName = "vehicleids.yml"

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat(defaultConfigName); err == nil {
		return defaultConfigName
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, defaultConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return defaultConfigName
}

// loadConfig falls back to built-in defaults when no config file exists.
func loadConfig(configArg string) (*config.Config, string, error) {
	path := findConfigFile(configArg)
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: no config file found, using defaults")
		cfg, path = config.Default(), ""
	} else if err != nil {
		return nil, path, err
	}
	applyDefaults(cfg)
	return cfg, path, nil
}

func applyDefaults(cfg *config.Config) {
	v := &cfg.VehicleIDS

	if v.Server.Addr == "" {
		v.Server.Addr = ":5000"
	}
	if v.Server.ShutdownTimeout <= 0 {
		v.Server.ShutdownTimeout = 5 * time.Second
	}

	if v.TelemetryLog.Path == "" {
		v.TelemetryLog.Path = "logs/telemetry.log"
	}

	if v.Sink.QueueSize <= 0 {
		v.Sink.QueueSize = 256
	}
	if v.Sink.BatchSize <= 0 {
		v.Sink.BatchSize = 32
	}
	if v.Sink.FlushInterval <= 0 {
		v.Sink.FlushInterval = time.Second
	}

	if v.HTTPSink.Timeout <= 0 {
		v.HTTPSink.Timeout = 5 * time.Second
	}

	if v.Redis.Addr == "" {
		v.Redis.Addr = "127.0.0.1:6379"
	}
	if v.Redis.KeyPrefix == "" {
		v.Redis.KeyPrefix = "vehicleids"
	}
	if v.Redis.MaxSnapshots <= 0 {
		v.Redis.MaxSnapshots = 200
	}
	if v.Redis.CommandKey == "" {
		v.Redis.CommandKey = v.Redis.KeyPrefix + ":commands"
	}
	if v.Redis.BlockTimeout <= 0 {
		v.Redis.BlockTimeout = 5 * time.Second
	}

	if v.Analytics.TimelineSize <= 0 || v.Analytics.TimelineSize > analytics.MaxTimelineSize {
		v.Analytics.TimelineSize = analytics.DefaultTimelineSize
	}
	if v.Analytics.TopN <= 0 {
		v.Analytics.TopN = analytics.DefaultTopN
	}
	if v.Analytics.MaxKeys <= 0 {
		v.Analytics.MaxKeys = analytics.DefaultMaxKeys
	}

	if v.Auth.TokenTTL <= 0 {
		v.Auth.TokenTTL = 24 * time.Hour
	}

	if v.Metrics.Path == "" {
		v.Metrics.Path = "/metrics"
	}

	if v.Logging.Level == "" {
		v.Logging.Level = "info"
	}
}

func runReport(args []string) int {
	flags := flag.NewFlagSet("report", flag.ContinueOnError)
	input := flags.String("input", "logs/telemetry.log", "Telemetry JSONL input path")
	output := flags.String("output", "", "Summary JSON output path (default stdout)")
	topN := flags.Int("top", analytics.DefaultTopN, "Entries per ranked table")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	snaps, skipped, err := report.LoadSnapshotsJSONL(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load telemetry log: %v\n", err)
		return 1
	}

	sum := report.Summarize(snaps, analytics.Config{TopN: *topN})
	sum.Input = *input
	sum.SkippedLines = skipped

	if strings.TrimSpace(*output) == "" {
		if err := report.WriteJSON(os.Stdout, sum); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write summary: %v\n", err)
			return 1
		}
		return 0
	}
	if err := report.WriteFile(*output, sum); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write summary: %v\n", err)
		return 1
	}
	fmt.Printf("replayed ticks=%d attack_ticks=%d alerts=%d skipped=%d output=%s\n",
		sum.Ticks, sum.AttackTicks, sum.TotalAlerts, skipped, *output)
	return 0
}

func runToken(args []string) int {
	flags := flag.NewFlagSet("token", flag.ContinueOnError)
	configArg := flags.String("config", "", "Config file path")
	operator := flags.String("operator", "operator", "Operator name embedded in the token")
	ttl := flags.Duration("ttl", 0, "Token lifetime (default auth.token_ttl)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, _, err := loadConfig(*configArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	lifetime := cfg.VehicleIDS.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	svc, err := auth.NewService(cfg.VehicleIDS.Auth.JWTSecret, lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auth.jwt_secret must be set to mint tokens: %v\n", err)
		return 1
	}
	token, expiresAt, err := svc.Issue(*operator)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		return 1
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	return 0
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServer(os.Args[2:])
			return
		case "report":
			os.Exit(runReport(os.Args[2:]))
		case "token":
			os.Exit(runToken(os.Args[2:]))
		default:
			// First arg is a config path.
			runServer(os.Args[1:])
			return
		}
	}

	runServer(nil)
}
