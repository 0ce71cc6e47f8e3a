// Package persistence records kingdom runs in SQL: per-tick stats and the
// event log, keyed by a run id. SQLite is the default; a postgres:// DSN
// switches to PostgreSQL.
package persistence

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/kingdom-sim/internal/engine"
)

// DB wraps a SQL connection for the run ledger.
type DB struct {
	conn    *sqlx.DB
	dialect string

	mu  sync.RWMutex
	run string
}

// StatsRow is one persisted stats sample.
type StatsRow struct {
	Tick              uint64  `db:"tick" json:"tick"`
	Phase             string  `db:"phase" json:"phase"`
	TotalPopulation   int     `db:"total_population" json:"total_population"`
	TotalResources    float64 `db:"total_resources" json:"total_resources"`
	AvgHappiness      float64 `db:"avg_happiness" json:"avg_happiness"`
	AvgSustainability float64 `db:"avg_sustainability" json:"avg_sustainability"`
	Prosperity        int     `db:"prosperity" json:"prosperity"`
	TradeCount        int     `db:"trade_count" json:"trade_count"`
	Treasury          float64 `db:"treasury" json:"treasury"`
}

// EventRow is one persisted event.
type EventRow struct {
	Tick        uint64 `db:"tick" json:"tick"`
	Category    string `db:"category" json:"category"`
	Settlement  string `db:"settlement" json:"settlement,omitempty"`
	Description string `db:"description" json:"description"`
}

// Open connects to dsn and ensures the schema exists. A DSN starting with
// postgres:// or postgresql:// uses pgx; anything else is a SQLite path.
func Open(dsn string) (*DB, error) {
	driver, dialect, source := "sqlite", "sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dialect, source = "pgx", "postgres", dsn
	}

	conn, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("ledger opened", "dialect", dialect)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect returns "sqlite" or "postgres".
func (db *DB) Dialect() string { return db.dialect }

// Run returns the current run id, empty before BeginRun.
func (db *DB) Run() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.run
}

func (db *DB) migrate() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.dialect == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed BIGINT NOT NULL,
			scenario TEXT NOT NULL,
			started TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stats (
			run_id TEXT NOT NULL,
			tick BIGINT NOT NULL,
			phase TEXT NOT NULL,
			total_population INTEGER NOT NULL,
			total_resources DOUBLE PRECISION NOT NULL,
			avg_happiness DOUBLE PRECISION NOT NULL,
			avg_sustainability DOUBLE PRECISION NOT NULL,
			prosperity INTEGER NOT NULL,
			trade_count INTEGER NOT NULL,
			treasury DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, tick)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id ` + serial + `,
			run_id TEXT NOT NULL,
			tick BIGINT NOT NULL,
			category TEXT NOT NULL,
			settlement TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick)`,
	}
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun registers a new run and makes it current.
func (db *DB) BeginRun(seed int64, scenario string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(db.conn.Rebind(
		"INSERT INTO runs (id, seed, scenario, started) VALUES (?, ?, ?, ?)"),
		id, seed, scenario, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	db.mu.Lock()
	db.run = id
	db.mu.Unlock()
	slog.Info("run started", "run", id, "seed", seed, "scenario", scenario)
	return id, nil
}

// RecordStats upserts one stats sample for the current run.
func (db *DB) RecordStats(st engine.Stats) error {
	_, err := db.conn.Exec(db.conn.Rebind(`INSERT INTO stats
		(run_id, tick, phase, total_population, total_resources, avg_happiness,
		 avg_sustainability, prosperity, trade_count, treasury)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, tick) DO NOTHING`),
		db.Run(), st.Tick, st.Phase, st.TotalPopulation, st.TotalResources,
		st.AvgHappiness, st.AvgSustainability, st.Prosperity, st.TradeCount, st.Treasury,
	)
	if err != nil {
		return fmt.Errorf("insert stats %d: %w", st.Tick, err)
	}
	return nil
}

// RecordEvents appends events for the current run.
func (db *DB) RecordEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(tx.Rebind(
		"INSERT INTO events (run_id, tick, category, settlement, description) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	run := db.Run()
	for _, e := range events {
		if _, err := stmt.Exec(run, e.Tick, e.Category, e.Settlement, e.Description); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}
	return tx.Commit()
}

// StatsHistory returns up to limit of the latest samples for the current
// run, oldest first.
func (db *DB) StatsHistory(limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, db.conn.Rebind(`SELECT tick, phase, total_population,
		total_resources, avg_happiness, avg_sustainability, prosperity, trade_count, treasury
		FROM stats WHERE run_id = ? ORDER BY tick DESC LIMIT ?`),
		db.Run(), limit,
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// RecentEvents returns the most recent N events of the current run,
// newest first.
func (db *DB) RecentEvents(limit int) ([]EventRow, error) {
	var rows []EventRow
	err := db.conn.Select(&rows, db.conn.Rebind(
		"SELECT tick, category, settlement, description FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?"),
		db.Run(), limit,
	)
	return rows, err
}

// Runs returns the number of recorded runs.
func (db *DB) Runs() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM runs")
	return n, err
}
