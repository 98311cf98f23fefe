package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"midloop/bookmark"
	"midloop/catalog"
	"midloop/config"
	"midloop/content"
	"midloop/metrics"
	"midloop/notifier"
	"midloop/scheduler"
	"midloop/scraper"
	"midloop/storage"
	"midloop/watcher"
	"midloop/web"
)

var (
	// Global flags
	verbose  bool
	dataPath string
	timeout  time.Duration

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "midloop",
	Short: "midloop - upcoming movies, TV shows and games",
	Long: `midloop serves a browsable catalog of upcoming releases built from
pre-generated data files, with bookmarks, date filters and search.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)

		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if dataPath != "" {
			cfg.DataPath = dataPath
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// app is everything a command needs, built from cfg.
type app struct {
	store     *storage.SQLiteStorage
	metrics   *metrics.Metrics
	catalog   *catalog.Service
	bookmarks *bookmark.Manager
	notifier  *notifier.EmailNotifier
}

func newApp() (*app, error) {
	store := storage.NewSQLiteStorage(cfg.DataPath, logger)
	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var source catalog.Source
	if cfg.DataBaseURL != "" {
		source = scraper.NewHTTPSource(cfg.DataBaseURL, logger)
	} else {
		source = scraper.NewDirSource(cfg.DataDir)
	}

	m := metrics.New()
	normalizer := &content.Normalizer{
		Strict: cfg.StrictMetadata,
		Now:    func() time.Time { return time.Now().In(cfg.Location) },
		Logger: logger.Named("content"),
	}
	svc := catalog.NewService(catalog.NewLoader(source, normalizer, logger.Named("loader")), catalog.NewCache(cfg.CacheTTL), logger, m)

	a := &app{
		store:     store,
		metrics:   m,
		catalog:   svc,
		bookmarks: bookmark.NewManager(store, logger, m),
	}

	if cfg.Email.Enabled() {
		n, err := notifier.NewEmailNotifier(cfg.Email, logger)
		if err != nil {
			logger.Warn("failed to create email notifier", zap.Error(err))
		} else {
			a.notifier = n
			logger.Info("email digests enabled", zap.String("recipient", cfg.Email.RecipientEmail))
		}
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("failed to close storage", zap.Error(err))
	}
}

func (a *app) refreshJob() *scheduler.RefreshJob {
	var n scheduler.Notifier
	if a.notifier != nil {
		n = a.notifier
	}
	return scheduler.NewRefreshJob(a.catalog, a.bookmarks, n, logger, func() time.Time {
		return time.Now().In(cfg.Location)
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP and refresh it on a schedule",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("starting midloop", cfg.Fields()...)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := web.NewServer(a.catalog, a.bookmarks, logger, web.Options{
		Location: cfg.Location,
		Metrics:  a.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to build web server: %w", err)
	}
	defer srv.Close()

	job := a.refreshJob()
	sched := scheduler.NewScheduler(logger, cfg.Location)
	if err := sched.AddJob(cfg.RefreshSchedule, job); err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()
	if next, ok := sched.Next(); ok {
		logger.Info("next scheduled refresh", zap.Time("at", next), zap.String("in", humanize.Time(next)))
	}

	if cfg.DataBaseURL == "" {
		w, err := watcher.New(cfg.DataDir, a.catalog, logger, 0)
		if err != nil {
			logger.Warn("data directory watch disabled", zap.Error(err))
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunAtStartup {
		go func() {
			if err := sched.RunJobNow(ctx, job.Name()); err != nil {
				logger.Error("initial refresh failed", zap.Error(err))
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening", zap.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload every category once, refresh bookmarks and send the digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := a.refreshJob().Run(ctx); err != nil {
			return err
		}
		return displayStats(cmd, a.store)
	},
}

func displayStats(cmd *cobra.Command, store *storage.SQLiteStorage) error {
	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get bookmark stats: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bookmarks: %s\n", humanize.Comma(int64(stats["total"])))
	for _, t := range []content.ContentType{content.TypeMovie, content.TypeTVShow, content.TypeGame} {
		fmt.Fprintf(out, "  %-8s %s\n", t, humanize.Comma(int64(stats[string(t)])))
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Database directory (default: DATA_PATH or ./data)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(bookmarksCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
