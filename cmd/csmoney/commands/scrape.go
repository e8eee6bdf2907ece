package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alisaosipova/steam-csmoney/internal/logger"
	"github.com/alisaosipova/steam-csmoney/internal/metrics"
	"github.com/alisaosipova/steam-csmoney/pkg/fetcher"
	"github.com/alisaosipova/steam-csmoney/pkg/scraper"
	"github.com/alisaosipova/steam-csmoney/pkg/sessions"
	"github.com/alisaosipova/steam-csmoney/pkg/sink"
)

// scrapeConfig collects everything the scrape command needs. Values come
// from flags, environment (CSMONEY_*) or the config file.
type scrapeConfig struct {
	URLs        []string      `mapstructure:"urls" validate:"required,min=1,dive,url"`
	Proxies     []string      `mapstructure:"proxies" validate:"omitempty,dive,url"`
	Sink        string        `mapstructure:"sink" validate:"oneof=kafka stdout"`
	Brokers     string        `mapstructure:"brokers" validate:"required_if=Sink kafka"`
	Topic       string        `mapstructure:"topic" validate:"required_if=Sink kafka"`
	Format      string        `mapstructure:"format" validate:"oneof=json yaml"`
	FetchMode   string        `mapstructure:"fetch_mode" validate:"oneof=static dynamic"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=0"`
	Postpone    time.Duration `mapstructure:"postpone"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Concurrency int           `mapstructure:"concurrency" validate:"min=1"`
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape listing pages and deliver item batches",
	Long: `Scrape one or more listing pages. Each URL is scraped independently:
the loop acquires a proxy session, fetches the page, extracts the embedded
item snapshot and hands one batch of items to the configured sink.

Transient failures (connection errors, anti-bot challenge pages, malformed
pages) are retried up to --max-attempts times. Schema drift in the source
data aborts the scrape so an operator can look at it.`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()

	flags.StringSliceP("url", "u", nil, "listing page URL(s) to scrape (can be repeated)")
	flags.StringSlice("proxy", nil, "proxy URL(s) forming the session pool (can be repeated)")

	flags.String("sink", "stdout", "batch sink: kafka, stdout")
	flags.String("brokers", "", "kafka bootstrap servers (comma-separated)")
	flags.String("topic", "csmoney.items", "kafka topic for item batches")
	flags.String("format", "json", "stdout sink format: json, yaml")

	flags.String("fetch-mode", "static", "fetch mode: static, dynamic")
	flags.Int("max-attempts", 300, "failed attempts tolerated per URL before giving up")
	flags.Duration("postpone", 25*time.Second, "per-session cooldown between acquisitions")
	flags.IntP("concurrency", "c", 3, "URLs scraped concurrently")

	flags.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	_ = viper.BindPFlag("urls", flags.Lookup("url"))
	_ = viper.BindPFlag("proxies", flags.Lookup("proxy"))
	_ = viper.BindPFlag("sink", flags.Lookup("sink"))
	_ = viper.BindPFlag("brokers", flags.Lookup("brokers"))
	_ = viper.BindPFlag("topic", flags.Lookup("topic"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("fetch_mode", flags.Lookup("fetch-mode"))
	_ = viper.BindPFlag("max_attempts", flags.Lookup("max-attempts"))
	_ = viper.BindPFlag("postpone", flags.Lookup("postpone"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("metrics_addr", flags.Lookup("metrics-addr"))
}

func loadScrapeConfig() (*scrapeConfig, error) {
	var cfg scrapeConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func buildPool(cfg *scrapeConfig) (sessions.Source, error) {
	if len(cfg.Proxies) == 0 {
		logger.Warn("no proxies configured, using a single direct session")
		return sessions.NewDirectPool(), nil
	}
	pool := make([]*sessions.Session, 0, len(cfg.Proxies))
	for i, proxy := range cfg.Proxies {
		pool = append(pool, &sessions.Session{
			Name:     fmt.Sprintf("proxy-%d", i),
			ProxyURL: proxy,
		})
	}
	return sessions.NewPool(pool...)
}

func buildSink(ctx context.Context, cfg *scrapeConfig) (sink.Sink, func() error, error) {
	if cfg.Sink == "kafka" {
		if err := sink.ConnectDefault(ctx, cfg.Brokers); err != nil {
			return nil, nil, err
		}
		k := sink.NewKafka(cfg.Brokers, cfg.Topic)
		return k, k.Close, nil
	}
	s, err := sink.NewStream(os.Stdout, sink.Format(cfg.Format))
	if err != nil {
		return nil, nil, err
	}
	return s, func() error { return nil }, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadScrapeConfig()
	if err != nil {
		logError("invalid configuration: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := buildPool(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}

	f, err := fetcher.New(fetcher.Mode(cfg.FetchMode))
	if err != nil {
		logError("%v", err)
		return err
	}
	defer f.Close()

	out, closeSink, err := buildSink(ctx, cfg)
	if err != nil {
		logError("sink setup failed: %v", err)
		return err
	}
	defer closeSink()

	reg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", reg.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	s := scraper.New(pool, f, out,
		scraper.WithMaxAttempts(cfg.MaxAttempts),
		scraper.WithPostpone(cfg.Postpone),
		scraper.WithMetrics(reg),
	)

	// Each URL is an independent scrape; run them through a bounded
	// worker set.
	sem := make(chan struct{}, cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, url := range cfg.URLs {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.Scrape(ctx, u); err != nil {
				logger.Error("scrape failed", "url", u, "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(url)
	}
	wg.Wait()

	return firstErr
}
