// Package tracking records token savings per invocation in a local SQLite
// database and serves the aggregate queries behind `pare gain`.
package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"
)

// Tracker persists invocation records to SQLite.
type Tracker struct {
	db *sql.DB
}

// DBPath returns the tracking database path. PARE_DB_PATH overrides the
// default under the XDG data directory.
func DBPath() string {
	if p := os.Getenv("PARE_DB_PATH"); p != "" {
		return p
	}
	return filepath.Join(xdg.DataHome, "pare", "tracking.db")
}

// NewTracker opens (creating if needed) the tracking database at path.
func NewTracker(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating tracking dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening tracking db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing tracking schema: %w", err)
	}

	return &Tracker{db: db}, nil
}

// Close closes the underlying database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Track records one compressed invocation. Tokens are estimated from byte
// counts; saved and pct are derived here so callers pass raw sizes only.
func (t *Tracker) Track(command, rule string, inputTokens, outputTokens int, execTimeMs int64) error {
	saved := inputTokens - outputTokens
	if saved < 0 {
		saved = 0
	}
	pct := 0.0
	if inputTokens > 0 {
		pct = float64(saved) * 100.0 / float64(inputTokens)
	}

	if _, err := t.db.Exec(insertSQL, command, rule, inputTokens, outputTokens, saved, pct, execTimeMs); err != nil {
		return fmt.Errorf("recording invocation: %w", err)
	}

	// Best effort retention sweep. Failures are not the caller's problem.
	t.db.Exec(cleanupSQL)
	return nil
}

// TrackPassthrough records an invocation that no rule matched. Input and
// output sizes are equal so the row contributes volume but no savings.
func (t *Tracker) TrackPassthrough(command string, tokens int, execTimeMs int64) error {
	if _, err := t.db.Exec(insertSQL, command, "", tokens, tokens, 0, 0.0, execTimeMs); err != nil {
		return fmt.Errorf("recording passthrough: %w", err)
	}
	return nil
}

// GetSummary returns overall stats across all recorded invocations.
func (t *Tracker) GetSummary() (*Summary, error) {
	var s Summary
	err := t.db.QueryRow(summarySQL).Scan(&s.TotalCommands, &s.TotalSaved, &s.AvgSavings, &s.TotalTimeMs)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	return &s, nil
}

// GetDaily returns per-day stats for the last n days, newest first.
func (t *Tracker) GetDaily(days int) ([]DayStats, error) {
	rows, err := t.db.Query(dailySQL, -days)
	if err != nil {
		return nil, fmt.Errorf("querying daily stats: %w", err)
	}
	defer rows.Close()

	var out []DayStats
	for rows.Next() {
		var d DayStats
		if err := rows.Scan(&d.Day, &d.Commands, &d.InputTokens, &d.OutputTokens, &d.SavedTokens, &d.AvgSavings); err != nil {
			return nil, fmt.Errorf("scanning daily stats: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetRecent returns the most recent invocations, newest first.
func (t *Tracker) GetRecent(limit int) ([]InvocationRecord, error) {
	rows, err := t.db.Query(recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent invocations: %w", err)
	}
	defer rows.Close()

	var out []InvocationRecord
	for rows.Next() {
		var r InvocationRecord
		if err := rows.Scan(&r.Command, &r.Rule, &r.InputTokens, &r.OutputTokens, &r.SavedTokens, &r.SavingsPct, &r.ExecTimeMs, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetByCommand returns per-command aggregates ordered by tokens saved.
func (t *Tracker) GetByCommand(limit int) ([]CommandStats, error) {
	rows, err := t.db.Query(byCommandSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("querying command stats: %w", err)
	}
	defer rows.Close()

	var out []CommandStats
	for rows.Next() {
		var c CommandStats
		if err := rows.Scan(&c.Command, &c.Count, &c.InputTokens, &c.OutputTokens, &c.SavedTokens, &c.AvgSavings); err != nil {
			return nil, fmt.Errorf("scanning command stats: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetWeekly returns per-week stats for the last n days, newest first.
func (t *Tracker) GetWeekly(days int) ([]PeriodStats, error) {
	return t.periodStats(weeklySQL, days)
}

// GetMonthly returns per-month stats for the last n days, newest first.
func (t *Tracker) GetMonthly(days int) ([]PeriodStats, error) {
	return t.periodStats(monthlySQL, days)
}

func (t *Tracker) periodStats(query string, days int) ([]PeriodStats, error) {
	rows, err := t.db.Query(query, -days)
	if err != nil {
		return nil, fmt.Errorf("querying period stats: %w", err)
	}
	defer rows.Close()

	var out []PeriodStats
	for rows.Next() {
		var p PeriodStats
		if err := rows.Scan(&p.Period, &p.Commands, &p.InputTokens, &p.OutputTokens, &p.SavedTokens, &p.AvgSavings); err != nil {
			return nil, fmt.Errorf("scanning period stats: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
