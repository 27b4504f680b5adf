package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"wochenplan/internal/caldav"
	"wochenplan/internal/config"
	"wochenplan/internal/icsfeed"
	appLog "wochenplan/internal/log"
	"wochenplan/internal/render"
	"wochenplan/internal/schedule"
	"wochenplan/internal/web"
)

// passwordEnv is the environment variable holding the CalDAV password.
// A .env file in the working directory is honored.
const passwordEnv = "WOCHENPLAN_PASSWORD"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "wochenplan",
		Short:         "Generate printable weekly planner pages from a remote calendar",
		Long:          "wochenplan pulls appointments from a CalDAV calendar or an ICS feed\nand prints them into a Monday/Tuesday/Wednesday time-slot grid, one PDF per week.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loc, err := setup(cmd, configPath, verbose)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), cfg, loc)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "./wochenplan.yaml", "path to config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.String("locale", "", "weekday locale, e.g. de_DE")
	pf.Int("year", 0, "target year (default: current)")
	pf.Int("week", 0, "first ISO week to print (default: current)")
	pf.Int("weeks", 0, "number of weeks to print")
	pf.String("url", "", "CalDAV server URL or ICS feed URL")
	pf.String("calendar", "", "calendar display name on the CalDAV server")
	pf.String("username", "", "CalDAV username (password via "+passwordEnv+")")
	pf.String("output", "", "output directory")
	pf.Int("slot-minutes", 0, fmt.Sprintf("slot duration in minutes (1-%d)", config.MaxSlotMinutes))

	root.AddCommand(newWatchCmd(&configPath, &verbose))
	return root
}

func newWatchCmd(configPath *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-generate documents on a cron schedule and serve previews",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loc, err := setup(cmd, *configPath, *verbose)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg, loc)
		},
	}
}

// setup loads environment, logging, and configuration, and applies flag
// overrides.
func setup(cmd *cobra.Command, configPath string, verbose bool) (*config.Config, *time.Location, error) {
	appLog.Setup(verbose)

	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env file loaded", "err", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	applyFlags(cmd, cfg)
	cfg.Normalize()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	appLog.Info("effective config",
		"url", cfg.Calendar.URL,
		"calendar", cfg.Calendar.Name,
		"timezone", cfg.Timezone,
		"locale", cfg.Locale,
		"slot_minutes", cfg.SlotMinutes,
		"weeks", cfg.Weeks,
		"output", cfg.OutputDir,
	)
	return cfg, loc, nil
}

// applyFlags overrides config values with flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("locale") {
		cfg.Locale, _ = f.GetString("locale")
	}
	if f.Changed("year") {
		cfg.Year, _ = f.GetInt("year")
	}
	if f.Changed("week") {
		cfg.Week, _ = f.GetInt("week")
	}
	if f.Changed("weeks") {
		cfg.Weeks, _ = f.GetInt("weeks")
	}
	if f.Changed("url") {
		cfg.Calendar.URL, _ = f.GetString("url")
	}
	if f.Changed("calendar") {
		cfg.Calendar.Name, _ = f.GetString("calendar")
	}
	if f.Changed("username") {
		cfg.Calendar.Username, _ = f.GetString("username")
	}
	if f.Changed("output") {
		cfg.OutputDir, _ = f.GetString("output")
	}
	if f.Changed("slot-minutes") {
		cfg.SlotMinutes, _ = f.GetInt("slot-minutes")
	}
}

// newSource picks the event source for the configured calendar URL.
func newSource(cfg *config.Config, loc *time.Location) (schedule.Source, error) {
	url := cfg.Calendar.URL
	if url == "" {
		return nil, fmt.Errorf("no calendar URL configured (--url or config file)")
	}
	if icsfeed.IsFeedURL(url) {
		return icsfeed.New(url, cfg.FeedCacheDir, loc), nil
	}
	return caldav.NewClient(url, cfg.Calendar.Username, os.Getenv(passwordEnv), cfg.Calendar.Name, loc)
}

// runOnce generates one document per configured week. Any collaborator
// failure aborts the run; there is no retry and no partial output.
func runOnce(ctx context.Context, cfg *config.Config, loc *time.Location) error {
	src, err := newSource(cfg, loc)
	if err != nil {
		return err
	}

	year, week := cfg.Year, cfg.Week
	if year == 0 || week == 0 {
		year, week = time.Now().In(loc).ISOWeek()
	}

	opts := render.Options{
		OutputDir: cfg.OutputDir,
		Prefix:    cfg.Prefix,
		Locale:    render.LocaleFor(cfg.Locale),
	}

	for _, group := range schedule.Groups(year, week, cfg.Weeks, loc) {
		cache, err := schedule.BuildCache(ctx, src, group.Days[:])
		if err != nil {
			return err
		}
		tbl := schedule.BuildTable(group, cache, cfg.SlotDuration())

		path, err := render.Render(ctx, tbl, opts)
		if err != nil {
			return err
		}
		appLog.Info("week generated",
			"first", group.First().Format("2006-01-02"),
			"last", group.Last().Format("2006-01-02"),
			"file", path,
		)
	}
	return nil
}

// runWatch generates once, then re-generates on the configured cron
// schedule while serving previews over HTTP until SIGINT/SIGTERM.
func runWatch(ctx context.Context, cfg *config.Config, loc *time.Location) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := runOnce(ctx, cfg, loc); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.RefreshCron, func() {
		if err := runOnce(ctx, cfg, loc); err != nil {
			appLog.Error("scheduled run failed", err)
		}
	}); err != nil {
		return fmt.Errorf("bad refresh schedule %q: %w", cfg.RefreshCron, err)
	}
	c.Start()
	defer c.Stop()

	src, err := newSource(cfg, loc)
	if err != nil {
		return err
	}
	srv := web.NewServer(cfg, src, loc)
	go func() {
		appLog.Info("preview server listening", "listen", "http://"+cfg.Listen)
		if err := http.ListenAndServe(cfg.Listen, srv.Handler()); err != nil {
			appLog.Error("preview server stopped", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		appLog.Info("signal received, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}
	return nil
}
