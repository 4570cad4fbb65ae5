package db

import (
	"context"
	"fmt"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/monitoring"
	"github.com/oceanobs/shallowprofiler/internal/profile"
)

// SaveProfiles replaces the stored profile table for site with cycles, keeping
// their order as row indices.
func (db *DB) SaveProfiles(ctx context.Context, site string, cycles []profile.Cycle) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profiles transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE site = ?`, site); err != nil {
		return fmt.Errorf("clear profiles for %s: %w", site, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profiles (
			site, row_index,
			r0_t, r0_z, r1_t, r1_z,
			a0_t, a0_z, a1_t, a1_z,
			d0_t, d0_z, d1_t, d1_z
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare profile insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range cycles {
		_, err := stmt.ExecContext(ctx, site, i,
			c.RestStart.Time.UnixNano(), c.RestStart.Depth,
			c.RestEnd.Time.UnixNano(), c.RestEnd.Depth,
			c.AscentStart.Time.UnixNano(), c.AscentStart.Depth,
			c.AscentEnd.Time.UnixNano(), c.AscentEnd.Depth,
			c.DescentStart.Time.UnixNano(), c.DescentStart.Depth,
			c.DescentEnd.Time.UnixNano(), c.DescentEnd.Depth,
		)
		if err != nil {
			return fmt.Errorf("insert profile %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profiles: %w", err)
	}
	monitoring.Logf("Stored %d profiles for %s", len(cycles), site)
	return nil
}

// LoadProfiles returns the stored profile table for site in row order. An
// unknown site yields an empty table.
func (db *DB) LoadProfiles(ctx context.Context, site string) ([]profile.Cycle, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r0_t, r0_z, r1_t, r1_z,
		       a0_t, a0_z, a1_t, a1_z,
		       d0_t, d0_z, d1_t, d1_z
		FROM profiles
		WHERE site = ?
		ORDER BY row_index`, site)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var cycles []profile.Cycle
	for rows.Next() {
		var c profile.Cycle
		var r0, r1, a0, a1, d0, d1 int64
		if err := rows.Scan(
			&r0, &c.RestStart.Depth, &r1, &c.RestEnd.Depth,
			&a0, &c.AscentStart.Depth, &a1, &c.AscentEnd.Depth,
			&d0, &c.DescentStart.Depth, &d1, &c.DescentEnd.Depth,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		c.RestStart.Time = fromNanos(r0)
		c.RestEnd.Time = fromNanos(r1)
		c.AscentStart.Time = fromNanos(a0)
		c.AscentEnd.Time = fromNanos(a1)
		c.DescentStart.Time = fromNanos(d0)
		c.DescentEnd.Time = fromNanos(d1)
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
