// Package clickhouse publishes coverage reports to ClickHouse tables that back
// the funding dashboard. Each publish replaces the previous report; no history is kept.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gho-tracker/decision/coverage"
)

// PlanRecord is one row of the plan_coverage table
type PlanRecord struct {
	RunID             uuid.UUID       `ch:"run_id"`
	Position          uint16          `ch:"position"`
	Plan              string          `ch:"plan"`
	PlanType          string          `ch:"plan_type"`
	MatchStrategy     string          `ch:"match_strategy"`
	Prioritized       decimal.Decimal `ch:"prioritized"`
	Funding           decimal.Decimal `ch:"funding"`
	Unfunded          decimal.Decimal `ch:"unfunded"`
	CoveragePct       decimal.Decimal `ch:"coverage_pct"`
	FullRequirements  decimal.Decimal `ch:"full_requirements"`
	PeopleInNeed      string          `ch:"people_in_need"`
	PeopleTargeted    string          `ch:"people_targeted"`
	PeoplePrioritized string          `ch:"people_prioritized"`
	GeneratedAt       time.Time       `ch:"generated_at"`
}

// TotalsRecord is the single row of the coverage_totals table
type TotalsRecord struct {
	RunID          uuid.UUID       `ch:"run_id"`
	PrioritizedRaw decimal.Decimal `ch:"prioritized_raw"`
	OverlapTotal   decimal.Decimal `ch:"overlap_total"`
	Prioritized    decimal.Decimal `ch:"prioritized"`
	Funding        decimal.Decimal `ch:"funding"`
	Unfunded       decimal.Decimal `ch:"unfunded"`
	CoveragePct    decimal.Decimal `ch:"coverage_pct"`
	PlansCount     uint32          `ch:"plans_count"`
	GeneratedAt    time.Time       `ch:"generated_at"`
}

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "gho_tracker",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store publishes reports to ClickHouse
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore creates a new ClickHouse report store
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// =============================================================================
// SCHEMA
// =============================================================================

var schema = []string{
	`CREATE TABLE IF NOT EXISTS plan_coverage (
		run_id             UUID,
		position           UInt16,
		plan               String,
		plan_type          LowCardinality(String),
		match_strategy     LowCardinality(String),
		prioritized        Decimal(18, 0),
		funding            Decimal(18, 0),
		unfunded           Decimal(18, 0),
		coverage_pct       Decimal(9, 1),
		full_requirements  Decimal(18, 0),
		people_in_need     String,
		people_targeted    String,
		people_prioritized String,
		generated_at       DateTime('UTC')
	) ENGINE = MergeTree ORDER BY position`,
	`CREATE TABLE IF NOT EXISTS coverage_totals (
		run_id          UUID,
		prioritized_raw Decimal(18, 0),
		overlap_total   Decimal(18, 0),
		prioritized     Decimal(18, 0),
		funding         Decimal(18, 0),
		unfunded        Decimal(18, 0),
		coverage_pct    Decimal(9, 1),
		plans_count     UInt32,
		generated_at    DateTime('UTC')
	) ENGINE = MergeTree ORDER BY generated_at`,
}

// EnsureSchema creates the report tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schema {
		if err := s.conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// =============================================================================
// PUBLISH
// =============================================================================

// ReplaceReport truncates both tables and inserts the given report.
// ClickHouse has no multi-statement transactions: a failure mid-way leaves the
// tables partially filled until the next successful publish.
func (s *Store) ReplaceReport(ctx context.Context, runID uuid.UUID, result *coverage.Result) error {
	for _, table := range []string{"plan_coverage", "coverage_totals"} {
		if err := s.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	records := PlanRecords(runID, result)
	if len(records) > 0 {
		batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO plan_coverage`)
		if err != nil {
			return fmt.Errorf("failed to prepare batch: %w", err)
		}
		for i := range records {
			if err := batch.AppendStruct(&records[i]); err != nil {
				return fmt.Errorf("failed to append to batch: %w", err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("failed to insert plan coverage: %w", err)
		}
	}

	totals := NewTotalsRecord(runID, result)
	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO coverage_totals`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	if err := batch.AppendStruct(&totals); err != nil {
		return fmt.Errorf("failed to append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert totals: %w", err)
	}
	return nil
}

// PlanRecords converts result rows into table records, keeping report order
func PlanRecords(runID uuid.UUID, result *coverage.Result) []PlanRecord {
	records := make([]PlanRecord, 0, len(result.Rows))
	for i, row := range result.Rows {
		records = append(records, PlanRecord{
			RunID:             runID,
			Position:          uint16(i + 1),
			Plan:              row.Plan,
			PlanType:          row.PlanType,
			MatchStrategy:     string(row.Match.Strategy),
			Prioritized:       row.Prioritized,
			Funding:           row.Funding,
			Unfunded:          row.Unfunded,
			CoveragePct:       row.CoveragePct,
			FullRequirements:  row.FullRequirements,
			PeopleInNeed:      row.People.InNeed,
			PeopleTargeted:    row.People.Targeted,
			PeoplePrioritized: row.People.Prioritized,
			GeneratedAt:       result.GeneratedAt,
		})
	}
	return records
}

// NewTotalsRecord converts result totals into a table record
func NewTotalsRecord(runID uuid.UUID, result *coverage.Result) TotalsRecord {
	t := result.Totals
	return TotalsRecord{
		RunID:          runID,
		PrioritizedRaw: t.PrioritizedRaw,
		OverlapTotal:   t.OverlapTotal,
		Prioritized:    t.Prioritized,
		Funding:        t.Funding,
		Unfunded:       t.Unfunded,
		CoveragePct:    t.CoveragePct,
		PlansCount:     uint32(t.PlansCount),
		GeneratedAt:    result.GeneratedAt,
	}
}
