package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChartRun records one chart the CLI produced.
type ChartRun struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	Kind         string    `json:"kind"`
	Sensors      []string  `json:"sensors"`
	Site         string    `json:"site"`
	ProfileCount int       `json:"profile_count"`
	ChartCount   int       `json:"chart_count"`
	OutputPath   string    `json:"output_path"`
}

// RecordChartRun persists run. An empty RunID gets a UUID and a zero
// CreatedAt takes the database clock.
func (db *DB) RecordChartRun(ctx context.Context, run *ChartRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = db.Clock.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO chart_runs (
			run_id, created_at, kind, sensors, site,
			profile_count, chart_count, output_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.UnixNano(), run.Kind, strings.Join(run.Sensors, ","), run.Site,
		run.ProfileCount, run.ChartCount, run.OutputPath,
	)
	if err != nil {
		return fmt.Errorf("insert chart run: %w", err)
	}
	return nil
}

// ListChartRuns returns up to limit runs, newest first. A limit below one
// returns every run.
func (db *DB) ListChartRuns(ctx context.Context, limit int) ([]ChartRun, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, created_at, kind, sensors, site,
		       profile_count, chart_count, output_path
		FROM chart_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query chart runs: %w", err)
	}
	defer rows.Close()

	var runs []ChartRun
	for rows.Next() {
		var r ChartRun
		var created int64
		var sensors string
		if err := rows.Scan(&r.RunID, &created, &r.Kind, &sensors, &r.Site,
			&r.ProfileCount, &r.ChartCount, &r.OutputPath); err != nil {
			return nil, fmt.Errorf("scan chart run: %w", err)
		}
		r.CreatedAt = fromNanos(created)
		if sensors != "" {
			r.Sensors = strings.Split(sensors, ",")
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
