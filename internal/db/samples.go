package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/monitoring"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

// SaveSeries replaces the stored samples of p's sensor at site.
// sqlite stores NaN as NULL; LoadPair maps it back.
func (db *DB) SaveSeries(ctx context.Context, site string, p *sensor.Pair) error {
	key := p.Sensor.String()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin samples transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE site = ? AND sensor = ?`, site, key); err != nil {
		return fmt.Errorf("clear %s samples for %s: %w", key, site, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (site, sensor, t, value, depth) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i := range p.Values {
		_, err := stmt.ExecContext(ctx, site, key, p.Times[i].UnixNano(), nullable(p.Values[i]), nullable(p.Depth[i]))
		if err != nil {
			return fmt.Errorf("insert %s sample %d: %w", key, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit samples: %w", err)
	}
	monitoring.Logf("Stored %d %s samples for %s", p.Len(), key, site)
	return nil
}

// LoadPair implements sensor.Source over the samples table.
func (db *DB) LoadPair(ctx context.Context, site string, s sensor.Sensor) (*sensor.Pair, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t, value, depth
		FROM samples
		WHERE site = ? AND sensor = ?
		ORDER BY t, rowid`, site, s.String())
	if err != nil {
		return nil, fmt.Errorf("query %s samples: %w", s, err)
	}
	defer rows.Close()

	var values, depth sensor.Series
	for rows.Next() {
		var t int64
		var v, z sql.NullFloat64
		if err := rows.Scan(&t, &v, &z); err != nil {
			return nil, fmt.Errorf("scan %s sample: %w", s, err)
		}
		ts := fromNanos(t)
		values.Times = append(values.Times, ts)
		values.Values = append(values.Values, orNaN(v))
		depth.Times = append(depth.Times, ts)
		depth.Values = append(depth.Values, orNaN(z))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if values.Len() == 0 {
		return nil, &sensor.DataShapeError{Sensor: s, Reason: fmt.Sprintf("no stored samples for site %q", site)}
	}
	return sensor.NewPair(s, values, depth)
}

// SampleSpan returns the sample count and time span stored for a sensor at
// site. Both times are zero when nothing is stored.
func (db *DB) SampleSpan(ctx context.Context, site string, s sensor.Sensor) (n int, first, last time.Time, err error) {
	var lo, hi sql.NullInt64
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(t), MAX(t)
		FROM samples
		WHERE site = ? AND sensor = ?`, site, s.String()).Scan(&n, &lo, &hi)
	if err != nil {
		return 0, time.Time{}, time.Time{}, fmt.Errorf("query %s span: %w", s, err)
	}
	if lo.Valid {
		first = fromNanos(lo.Int64)
	}
	if hi.Valid {
		last = fromNanos(hi.Int64)
	}
	return n, first, last, nil
}

func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
