package db

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanobs/shallowprofiler/internal/monitoring"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
	"github.com/oceanobs/shallowprofiler/internal/testutil"
	"github.com/oceanobs/shallowprofiler/internal/timeutil"
)

var _ sensor.Source = (*DB)(nil)

func quiet(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	quiet(t)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n))
	return n > 0
}

func TestOpenDBPragmas(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "pragmas.db"))
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)

	assert.False(t, tableExists(t, db, "profiles"), "OpenDB must not migrate")
}

func TestMigrateUpDown(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	for _, table := range []string{"profiles", "samples", "chart_runs"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	require.NoError(t, db.MigrateUp(), "up at latest is a no-op")

	require.NoError(t, db.MigrateDown())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, tableExists(t, db, "profiles"))

	require.NoError(t, db.MigrateTo(1))
	assert.True(t, tableExists(t, db, "samples"))

	require.NoError(t, db.MigrateForce(1))
	version, dirty, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestProfilesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cycles := testutil.Cycles(testutil.Day(2021, time.March, 1), 2)

	require.NoError(t, db.SaveProfiles(ctx, "osb", cycles))
	got, err := db.LoadProfiles(ctx, "osb")
	require.NoError(t, err)
	if diff := cmp.Diff(cycles, got); diff != "" {
		t.Errorf("LoadProfiles mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, db.SaveProfiles(ctx, "osb", cycles[:3]))
	got, err = db.LoadProfiles(ctx, "osb")
	require.NoError(t, err)
	assert.Len(t, got, 3, "saving replaces the site's table")

	got, err = db.LoadProfiles(ctx, "axb")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSamplesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cycles := testutil.Cycles(testutil.Day(2021, time.March, 1), 1)
	pair := testutil.SensorPair(t, sensor.Temperature, testutil.DepthSeries(cycles, 5*time.Minute), testutil.Linear(8, 0.01))
	pair.Values[3] = math.NaN()

	require.NoError(t, db.SaveSeries(ctx, "osb", pair))
	got, err := db.LoadPair(ctx, "osb", sensor.Temperature)
	require.NoError(t, err)
	if diff := cmp.Diff(pair, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("LoadPair mismatch (-want +got):\n%s", diff)
	}

	n, first, last, err := db.SampleSpan(ctx, "osb", sensor.Temperature)
	require.NoError(t, err)
	assert.Equal(t, pair.Len(), n)
	assert.True(t, first.Equal(pair.Times[0]))
	assert.True(t, last.Equal(pair.Times[pair.Len()-1]))

	n, first, _, err = db.SampleSpan(ctx, "osb", sensor.PH)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, first.IsZero())
}

func TestLoadPairMissing(t *testing.T) {
	db := newTestDB(t)
	_, err := db.LoadPair(context.Background(), "osb", sensor.Salinity)
	var shapeErr *sensor.DataShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, sensor.Salinity, shapeErr.Sensor)
}

func TestChartRuns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	clock.Step = time.Minute
	db.Clock = clock

	first := &ChartRun{Kind: "stack", Sensors: []string{"temperature"}, Site: "osb", ProfileCount: 9, ChartCount: 9, OutputPath: "plots/a.png"}
	second := &ChartRun{Kind: "pair", Sensors: []string{"temperature", "salinity"}, Site: "osb", ProfileCount: 4, ChartCount: 4, OutputPath: "plots/b.png"}
	require.NoError(t, db.RecordChartRun(ctx, first))
	require.NoError(t, db.RecordChartRun(ctx, second))
	assert.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, start, first.CreatedAt)

	runs, err := db.ListChartRuns(ctx, 0)
	require.NoError(t, err)
	want := []ChartRun{*second, *first}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Errorf("ListChartRuns mismatch (-want +got):\n%s", diff)
	}

	runs, err = db.ListChartRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "pair", runs[0].Kind)
}

func TestRunMigrateCommand(t *testing.T) {
	quiet(t)
	path := filepath.Join(t.TempDir(), "cli.db")

	var out bytes.Buffer
	require.NoError(t, RunMigrateCommand([]string{"status"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 0")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"down"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 0")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"version", "1"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	tests := []struct {
		name string
		args []string
	}{
		{"missing action", nil},
		{"unknown action", []string{"sideways"}},
		{"version without number", []string{"version"}},
		{"bad version", []string{"version", "x"}},
		{"force without number", []string{"force"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, RunMigrateCommand(tt.args, path, &bytes.Buffer{}))
		})
	}

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"help"}, path, &out))
	assert.Contains(t, out.String(), "Usage: profilecharts migrate")
}
