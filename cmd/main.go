package main

//
//  @title           StockStreamDB API
//  @version         1.0
//  @description     Historical price fetch, storage and aggregation service.
//  @contact.name    API Support
//  @contact.url     https://github.com/dreamjorge/StockStreamDB
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        instruments
//  @tag.description Fetch, query and maintain stored price history
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/guregu/null/v6"

	"github.com/dreamjorge/StockStreamDB/config"
	schema "github.com/dreamjorge/StockStreamDB/db"
	_ "github.com/dreamjorge/StockStreamDB/docs" // swagger docs
	"github.com/dreamjorge/StockStreamDB/internal/app"
	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/ingestion"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
	"github.com/dreamjorge/StockStreamDB/internal/scheduler"
)

// options holds the parsed command line.
type options struct {
	mode        string
	tickers     string
	ticker      string
	period      string
	force       bool
	parallel    int
	file        string
	batch       int
	start       string
	end         string
	granularity string
	date        string
	closePrice  string
	name        string
	industry    string
	sector      string
	port        string
}

func parseFlags(args []string, defaultPort string) (options, error) {
	var o options
	fs := flag.NewFlagSet("stockstreamdb", flag.ContinueOnError)
	fs.StringVar(&o.mode, "mode", "api", "Mode: api, fetch, import, create, aggregate, delete, schedule or migrate")
	fs.StringVar(&o.tickers, "tickers", "", "Comma-separated tickers for fetch mode (defaults to WATCHLIST)")
	fs.StringVar(&o.ticker, "ticker", "", "Single ticker for import, create, aggregate and delete modes")
	fs.StringVar(&o.period, "period", "1mo", "Look-back period: 5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd")
	fs.BoolVar(&o.force, "force", false, "Refetch even when the period is already stored")
	fs.IntVar(&o.parallel, "parallel", 0, "How many tickers to fetch concurrently (0=auto, max 8)")
	fs.StringVar(&o.file, "file", "", "History CSV file for import mode")
	fs.IntVar(&o.batch, "batch", 0, "Rows per import transaction (0=default)")
	fs.StringVar(&o.start, "start", "", "Start date YYYY-MM-DD for aggregate mode (defaults to the period window)")
	fs.StringVar(&o.end, "end", "", "End date YYYY-MM-DD for aggregate mode (defaults to today)")
	fs.StringVar(&o.granularity, "granularity", "daily", "daily, weekly or monthly")
	fs.StringVar(&o.date, "date", "", "Sample date for create mode; in delete mode only this date is removed (empty deletes the whole instrument)")
	fs.StringVar(&o.closePrice, "close", "", "Close price for create mode")
	fs.StringVar(&o.name, "name", "", "Instrument name for create mode")
	fs.StringVar(&o.industry, "industry", "", "Industry for create mode")
	fs.StringVar(&o.sector, "sector", "", "Sector for create mode")
	fs.StringVar(&o.port, "port", defaultPort, "Port for API mode")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	<-quit
}

// gracefulShutdown waits for SIGINT/SIGTERM, then stops the server and runs cleanup.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	waitForSignal()
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the StockStreamDB application.
//
// Modes (selected via --mode flag):
//   - api:       REST API (plus the watchlist scheduler when WATCHLIST is set).
//   - fetch:     fetch and store --tickers for --period, then exit.
//   - import:    backfill --ticker from a history CSV (--file).
//   - create:    add one sample for --ticker on --date; fails if the date is already stored.
//   - aggregate: print aggregated closes for --ticker as JSON.
//   - delete:    delete stored samples of --ticker (one --date or all).
//   - schedule:  run only the watchlist scheduler until interrupted.
//   - migrate:   apply PostgreSQL migrations and exit.
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	opts, err := parseFlags(os.Args[1:], config.AppConfig.Server.Port)
	if err != nil {
		os.Exit(2)
	}

	if err := run(ctx, opts, config.AppConfig, os.Stdout); err != nil {
		logger.L().Fatal().Err(err).Str("mode", opts.mode).Msg("command failed")
	}
}

func run(ctx context.Context, o options, cfg config.Config, out io.Writer) error {
	switch o.mode {
	case "api":
		return runAPI(ctx, o, cfg)
	case "migrate":
		return runMigrate(ctx, cfg)
	case "fetch", "import", "create", "aggregate", "delete", "schedule":
	default:
		return fmt.Errorf("unknown mode %q", o.mode)
	}

	c, err := app.Build(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer c.Close()

	switch o.mode {
	case "fetch":
		return runFetch(ctx, o, cfg, c)
	case "import":
		return runImport(ctx, o, c)
	case "create":
		return runCreate(ctx, o, c, out)
	case "aggregate":
		return runAggregate(ctx, o, c, out)
	case "delete":
		return runDelete(ctx, o, c, out)
	default:
		return runSchedule(ctx, cfg, c)
	}
}

func runAPI(ctx context.Context, o options, cfg config.Config) error {
	logger.L().Info().Str("store", cfg.Store.Driver).Msg("starting API server")

	c, err := app.Build(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}
	router := app.NewRouter(cfg, c)

	cleanup := c.Close
	if len(cfg.Scheduler.Watchlist) > 0 {
		s, err := newScheduler(ctx, cfg, c)
		if err != nil {
			c.Close()
			return err
		}
		s.Start()
		cleanup = func() {
			stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			s.Stop(stopCtx)
			c.Close()
		}
	}

	server := startServer(router, o.port)
	gracefulShutdown(ctx, server, cleanup)
	return nil
}

func runMigrate(ctx context.Context, cfg config.Config) error {
	if cfg.Store.Driver != config.DriverPostgres {
		// sqlite creates its schema on open and memory has none
		logger.L().Info().Str("store", cfg.Store.Driver).Msg("nothing to migrate")
		return nil
	}
	db, err := app.InitPostgres(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := schema.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.L().Info().Msg("migrations applied")
	return nil
}

func runFetch(ctx context.Context, o options, cfg config.Config, c *app.Container) error {
	period, err := models.ParsePeriod(o.period)
	if err != nil {
		return err
	}
	tickers := config.SplitList(o.tickers)
	if len(tickers) == 0 {
		tickers = cfg.Scheduler.Watchlist
	}

	sum, err := ingestion.ProcessTickers(ctx, c.Service, tickers, period, o.parallel, o.force)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	logger.L().Info().Int("tickers", sum.Tickers).Int("done", sum.Done).Int("skipped", sum.Skipped).
		Int("written", sum.Written).Msg("fetch completed successfully")
	return nil
}

func runImport(ctx context.Context, o options, c *app.Container) error {
	if o.file == "" || o.ticker == "" {
		return errors.New("import needs --file and --ticker")
	}
	n, err := ingestion.ImportCSV(ctx, o.file, o.ticker, c.Service, o.batch)
	if err != nil {
		return fmt.Errorf("import %s: %w", o.file, err)
	}
	logger.L().Info().Str("instrument", models.NormalizeInstrument(o.ticker)).Int("written", n).Msg("import completed successfully")
	return nil
}

func runCreate(ctx context.Context, o options, c *app.Container, out io.Writer) error {
	if o.ticker == "" || o.date == "" || o.closePrice == "" {
		return errors.New("create needs --ticker, --date and --close")
	}
	date, err := models.ParseDate(o.date)
	if err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}
	closePrice, err := strconv.ParseFloat(o.closePrice, 64)
	if err != nil {
		return fmt.Errorf("invalid --close: %w", err)
	}

	sample := models.PriceSample{
		Instrument: o.ticker,
		Date:       date,
		Close:      closePrice,
		Name:       optionalString(o.name),
		Industry:   optionalString(o.industry),
		Sector:     optionalString(o.sector),
	}
	if err := c.Service.CreateSample(ctx, sample); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "created %s %s\n", models.NormalizeInstrument(o.ticker), date.Format(models.DateLayout))
	return err
}

func optionalString(s string) null.String {
	return null.NewString(s, s != "")
}

func runAggregate(ctx context.Context, o options, c *app.Container, out io.Writer) error {
	if o.ticker == "" {
		return errors.New("aggregate needs --ticker")
	}
	g, err := models.ParseGranularity(o.granularity)
	if err != nil {
		return err
	}
	rng, err := cliRange(o, time.Now())
	if err != nil {
		return err
	}

	points, err := c.Service.GetAggregated(ctx, o.ticker, rng.Start, rng.End, g)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

func runDelete(ctx context.Context, o options, c *app.Container, out io.Writer) error {
	if o.ticker == "" {
		return errors.New("delete needs --ticker")
	}
	var date *time.Time
	if o.date != "" {
		d, err := models.ParseDate(o.date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		date = &d
	}
	deleted, err := c.Service.DeleteSamples(ctx, o.ticker, date)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "deleted=%t\n", deleted)
	return err
}

func runSchedule(ctx context.Context, cfg config.Config, c *app.Container) error {
	s, err := newScheduler(ctx, cfg, c)
	if err != nil {
		return err
	}
	s.Start()
	waitForSignal()

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	s.Stop(stopCtx)
	return nil
}

func newScheduler(ctx context.Context, cfg config.Config, c *app.Container) (*scheduler.Scheduler, error) {
	period, err := models.ParsePeriod(cfg.Scheduler.Period)
	if err != nil {
		return nil, fmt.Errorf("WATCHLIST_PERIOD: %w", err)
	}
	s := scheduler.New(ctx, c.Service, scheduler.Config{
		Spec:     cfg.Scheduler.Spec,
		Tickers:  cfg.Scheduler.Watchlist,
		Period:   period,
		Parallel: cfg.Scheduler.Parallel,
	})
	if err := s.Register(); err != nil {
		return nil, err
	}
	return s, nil
}

// cliRange resolves --start/--end, defaulting to the --period window ending today.
func cliRange(o options, now time.Time) (models.DateRange, error) {
	period, err := models.ParsePeriod(o.period)
	if err != nil {
		return models.DateRange{}, err
	}
	rng, err := period.Resolve(now)
	if err != nil {
		return models.DateRange{}, err
	}
	if o.start != "" {
		if rng.Start, err = models.ParseDate(o.start); err != nil {
			return models.DateRange{}, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if o.end != "" {
		if rng.End, err = models.ParseDate(o.end); err != nil {
			return models.DateRange{}, fmt.Errorf("invalid --end: %w", err)
		}
	}
	return rng, nil
}
