package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/ai"
	"github.com/DaveOps97/SmartJobHunter/internal/config"
	"github.com/DaveOps97/SmartJobHunter/internal/enrich"
	"github.com/DaveOps97/SmartJobHunter/internal/filter"
	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/notifier"
	"github.com/DaveOps97/SmartJobHunter/internal/pipeline"
	"github.com/DaveOps97/SmartJobHunter/internal/ratelimit"
	"github.com/DaveOps97/SmartJobHunter/internal/retry"
	"github.com/DaveOps97/SmartJobHunter/internal/source"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "smartjobhunter",
	Short: "Score scraped job postings against your profile",
	Long: "SmartJobHunter ingests scraped job batches, deduplicates them into a SQLite\n" +
		"store, scores new postings with an LLM and lets you triage them.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: SMARTJOB_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env, then the config file. A missing file is only an
// error when the path was given explicitly.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	path, explicit := config.Path(cfgPath)
	if explicit {
		return config.Load(path)
	}
	return config.LoadOrDefault(path)
}

func setupLogger(dbg bool, format string) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// mustSetup is the common prologue of every command: config, then logger.
func mustSetup() (*config.Config, *slog.Logger) {
	cfg, err := loadConfig()
	if err != nil {
		setupLogger(debug, "text").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg, setupLogger(debug, cfg.Logging.Format)
}

func mustOpenStore(cfg *config.Config, logger *slog.Logger) *store.SQLiteStore {
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	return s
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "none":
		return nil
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func createSource(sc config.SourceConfig) (model.BatchSource, error) {
	switch sc.Type {
	case "file":
		return source.NewFileSource(sc.Name, sc.Path, sc.CleanHTML), nil
	case "http":
		return source.NewHTTPSource(sc.Name, sc.URL, sc.CleanHTML, &http.Client{Timeout: sc.Timeout}), nil
	default:
		return nil, fmt.Errorf("source %q: unsupported type %q", sc.Name, sc.Type)
	}
}

func buildSources(cfg *config.Config, logger *slog.Logger) ([]model.BatchSource, error) {
	var sources []model.BatchSource
	for _, sc := range cfg.EnabledSources() {
		src, err := createSource(sc)
		if err != nil {
			return nil, err
		}
		sources = append(sources, retry.NewRetrySource(src, sc.MaxRetries, retryBaseDelay, logger))
		logger.Info("registered source", "name", sc.Name, "type", sc.Type)
	}
	return sources, nil
}

func createProvider(ctx context.Context, o config.OracleConfig) (ai.LLMProvider, error) {
	switch o.Provider {
	case "gemini":
		p, err := ai.NewGeminiProvider(ctx, o.APIKey, o.Model)
		if err != nil {
			return nil, err
		}
		return ai.WithTimeout(p, o.Timeout), nil
	case "openai":
		return ai.NewOpenAIProvider(o.BaseURL, o.APIKey, o.Model, &http.Client{Timeout: o.Timeout}), nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider %q", o.Provider)
	}
}

func buildEnricher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*enrich.Engine, error) {
	if err := cfg.Oracle.Validate(); err != nil {
		return nil, err
	}
	provider, err := createProvider(ctx, cfg.Oracle)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.OracleRate())
	logger.Info("oracle configured",
		"provider", cfg.Oracle.Provider,
		"model", cfg.Oracle.Model,
		"tier", cfg.Oracle.Tier,
		"limit", limiter.String(),
	)

	scorer := ai.NewLLMJobScorer(provider, ai.JobScoringTemplate, cfg.Oracle.Profile, logger)
	return enrich.NewEngine(scorer, limiter, cfg.Weights, cfg.Enrich.Concurrency, logger), nil
}

// buildPipeline wires every configured stage around s. skipEnrich leaves the
// oracle out entirely, so no api key is needed.
func buildPipeline(ctx context.Context, cfg *config.Config, s pipeline.Store, skipEnrich bool, logger *slog.Logger) (*pipeline.Pipeline, error) {
	sources, err := buildSources(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		NotifyMinScore: cfg.Notification.MinScore,
		Notifier:       setupNotifier(cfg, &http.Client{Timeout: notifyTimeout}, logger),
	}

	kf := filter.NewKeywordFilter(filter.Rules{
		TitleKeywords:    cfg.Filters.TitleKeywords,
		TitleExclude:     cfg.Filters.TitleExcludeKeywords,
		Locations:        cfg.Filters.Locations,
		ExcludeLocations: cfg.Filters.ExcludeLocations,
	})
	if !kf.Empty() {
		opts.Filter = kf
	}

	if !skipEnrich {
		engine, err := buildEnricher(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("oracle: %w", err)
		}
		opts.Enricher = engine
	}

	if cfg.Retention.Enabled {
		policy := cfg.Retention.Policy
		opts.Retention = &policy
	}

	return pipeline.New(sources, s, opts, logger), nil
}
