// GHO Tracker CLI - Prioritized funding coverage for the Global Humanitarian Overview
//
// Usage:
//
//	ghotracker                 fetch, merge and write the coverage CSVs
//	ghotracker update [flags]  same as above
//	ghotracker match           show how reference plans reconcile to API plans
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"gho-tracker/config"
	"gho-tracker/db/clickhouse"
	"gho-tracker/decision/coverage"
	"gho-tracker/decision/fts"
	"gho-tracker/decision/reconcile"
	"gho-tracker/decision/reference"
	"gho-tracker/pkg/util"
	"gho-tracker/report"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	chDefaults := clickhouse.DefaultConfig()

	return &cli.App{
		Name:      "ghotracker",
		Usage:     "GHO prioritized funding tracker - merges live FTS funding with prioritized requirements",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file overriding the built-in defaults",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for the CSV reports",
			},
			&cli.StringFlag{
				Name:  "prioritized",
				Usage: "Prioritized requirements CSV",
			},
			&cli.StringFlag{
				Name:  "people",
				Usage: "People in need CSV",
			},
			&cli.StringFlag{
				Name:  "overview-url",
				Usage: "FTS plan overview endpoint",
			},
			&cli.StringFlag{
				Name:  "flow-url",
				Usage: "FTS funding flow endpoint",
			},
			&cli.StringFlag{
				Name:  "clickhouse-host",
				Usage: "Publish the report to ClickHouse at this host (disabled when empty)",
			},
			&cli.IntFlag{
				Name:  "clickhouse-port",
				Value: chDefaults.Port,
				Usage: "ClickHouse native port",
			},
			&cli.StringFlag{
				Name:  "clickhouse-database",
				Value: chDefaults.Database,
				Usage: "ClickHouse database",
			},
			&cli.StringFlag{
				Name:  "clickhouse-user",
				Value: chDefaults.Username,
				Usage: "ClickHouse user",
			},
			&cli.StringFlag{
				Name:  "clickhouse-password",
				Usage: "ClickHouse password",
			},
		},

		Before: setupLogging,
		Action: runUpdate,

		Commands: []*cli.Command{
			{
				Name:   "update",
				Usage:  "Fetch funding data and write the coverage reports (default)",
				Action: runUpdate,
			},
			{
				Name:   "match",
				Usage:  "Show how each reference plan reconciles to an API plan",
				Action: runMatch,
			},
		},
	}
}

func setupLogging(c *cli.Context) error {
	level, err := zerolog.ParseLevel(c.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: c.App.ErrWriter}).Level(level)
	return nil
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"output-dir", &cfg.Output.Dir},
		{"prioritized", &cfg.Reference.Prioritized},
		{"people", &cfg.Reference.People},
		{"overview-url", &cfg.API.OverviewURL},
		{"flow-url", &cfg.API.FlowURL},
	}
	for _, o := range overrides {
		if c.IsSet(o.flag) {
			*o.dst = c.String(o.flag)
		}
	}

	return cfg, cfg.Validate()
}

// =============================================================================
// PIPELINE
// =============================================================================

// inputs are everything a run reads before it computes anything
type inputs struct {
	apiPlans *fts.PlanIndex
	flows    *fts.FlowReport
	plans    []reference.Plan
}

func gather(ctx context.Context, cfg *config.Config) (*inputs, error) {
	logger := zerolog.Ctx(ctx)

	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	client := fts.NewClient(timeout, cfg.API.UserAgent)

	logger.Info().Str("url", cfg.API.OverviewURL).Msg("Fetching FTS API data...")
	apiPlans, err := client.FetchOverview(ctx, cfg.API.OverviewURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan overview: %w", err)
	}
	logger.Info().Int("plans", apiPlans.Len()).Msg("GHO plans indexed")

	flows, err := client.FetchFlows(ctx, cfg.API.FlowURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funding flows: %w", err)
	}
	logger.Debug().
		Bool("report", flows.HasReport).
		Int("pledges", len(flows.Pledges)).
		Msg("Pledge totals parsed (not used in reports)")

	plans, err := reference.LoadPlans(cfg.Reference.Prioritized, cfg.Reference.People)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	logger.Info().Int("plans", len(plans)).Msg("Reference plans loaded")

	return &inputs{apiPlans: apiPlans, flows: flows, plans: plans}, nil
}

func newEngine(cfg *config.Config) *coverage.Engine {
	overlaps := make([]coverage.Overlap, 0, len(cfg.Overlaps))
	for _, o := range cfg.OverlapAmounts() {
		overlaps = append(overlaps, coverage.Overlap{
			Name:   o.Name,
			Amount: decimal.NewFromInt(o.Amount),
		})
	}
	return coverage.NewEngine(reconcile.NewReconciler(cfg.AliasTable()), overlaps)
}

// =============================================================================
// UPDATE COMMAND
// =============================================================================

func runUpdate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	runID := uuid.New()
	logger := log.With().Str("run_id", runID.String()).Logger()
	ctx := logger.WithContext(c.Context)

	in, err := gather(ctx, cfg)
	if err != nil {
		return err
	}

	result := newEngine(cfg).Aggregate(coverage.Request{
		Plans:    in.plans,
		APIPlans: in.apiPlans,
	})
	for _, name := range result.Skipped {
		logger.Debug().Str("plan", name).Msg("Skipping plan with no prioritized requirement")
	}
	for _, u := range result.Unmatched {
		logger.Warn().Str("plan", u.Subject).Str("code", u.Code).Msg("No API plan matched; reporting zero funding")
	}

	byPlan, totals := cfg.ByPlanPath(), cfg.TotalsPath()
	if err := report.Write(result, byPlan, totals); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	logger.Info().Str("by_plan", byPlan).Str("totals", totals).Msg("Reports written")

	if host := c.String("clickhouse-host"); host != "" {
		if err := publish(ctx, c, runID, result); err != nil {
			return err
		}
	}

	report.PrintSummary(c.App.Writer, result, byPlan, totals)
	return nil
}

func publish(ctx context.Context, c *cli.Context, runID uuid.UUID, result *coverage.Result) error {
	cfg := clickhouse.DefaultConfig()
	cfg.Host = c.String("clickhouse-host")
	cfg.Port = c.Int("clickhouse-port")
	cfg.Database = c.String("clickhouse-database")
	cfg.Username = c.String("clickhouse-user")
	cfg.Password = c.String("clickhouse-password")

	store, err := clickhouse.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach ClickHouse at %s: %w", cfg.Host, err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.ReplaceReport(ctx, runID, result); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("host", c.String("clickhouse-host")).Msg("Report published to ClickHouse")
	return nil
}

// =============================================================================
// MATCH COMMAND
// =============================================================================

func runMatch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := log.Logger.WithContext(c.Context)
	in, err := gather(ctx, cfg)
	if err != nil {
		return err
	}

	var names []string
	for _, plan := range in.plans {
		if plan.Included() {
			names = append(names, plan.Name)
		}
	}
	matches := reconcile.NewReconciler(cfg.AliasTable()).MatchAll(names, in.apiPlans)

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAN\tPRIORITIZED (USD)\tSTRATEGY\tAPI PLAN\tAPI FULL NAME")
	for _, plan := range in.plans {
		if !plan.Included() {
			fmt.Fprintf(w, "%s\t%s\texcluded\t\t\n", plan.Name, util.FormatUSD(plan.PrioritizedRequirements))
			continue
		}
		m := matches[0]
		matches = matches[1:]
		short, full := "", ""
		if m.Matched() {
			short, full = m.Plan.ShortName, m.Plan.FullName
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", plan.Name, util.FormatUSD(plan.PrioritizedRequirements), m.Strategy, short, full)
	}
	return w.Flush()
}
