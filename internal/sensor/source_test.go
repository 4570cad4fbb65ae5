package sensor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairCSVRoundTrip(t *testing.T) {
	p := pairOf(t, Nitrate)

	var buf bytes.Buffer
	require.NoError(t, WritePairCSV(&buf, p))

	got, err := ReadPairCSV(&buf, Nitrate)
	require.NoError(t, err)
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPairCSV_SensorKeyColumn(t *testing.T) {
	in := "time,z,temperature\n" +
		"2022-01-01 00:00:00,-190.5,8.1\n" +
		"2022-01-01 00:01:00,-188.0,8.2\n"
	p, err := ReadPairCSV(strings.NewReader(in), Temperature)
	require.NoError(t, err)
	assert.Equal(t, []float64{8.1, 8.2}, p.Values)
	assert.Equal(t, []float64{-190.5, -188.0}, p.Depth)
}

func TestReadPairCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing depth column", "time,value\n2022-01-01 00:00:00,1\n", "depth"},
		{"bad value", "time,value,depth\n2022-01-01 00:00:00,x,-1\n", "line 2"},
		{"bad time", "time,value,depth\nyesterday,1,-1\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPairCSV(strings.NewReader(tt.in), Salinity)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := ReadPairCSV(strings.NewReader(""), Salinity)
	var shape *DataShapeError
	assert.True(t, errors.As(err, &shape))
}

func TestCSVSource(t *testing.T) {
	root := t.TempDir()
	src := CSVSource{Root: root}
	p := pairOf(t, ChlorophyllA)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "osb"), 0o755))
	f, err := os.Create(src.Path("osb", ChlorophyllA))
	require.NoError(t, err)
	require.NoError(t, WritePairCSV(f, p))
	require.NoError(t, f.Close())

	got, err := src.LoadPair(context.Background(), "osb", ChlorophyllA)
	require.NoError(t, err)
	assert.Equal(t, p.Values, got.Values)

	_, err = src.LoadPair(context.Background(), "axb", ChlorophyllA)
	assert.ErrorContains(t, err, "failed to open")
}

func TestMemorySource(t *testing.T) {
	m := MemorySource{}
	p := pairOf(t, FDOM)
	m.Put("oos", p)

	got, err := m.LoadPair(context.Background(), "oos", FDOM)
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = m.LoadPair(context.Background(), "oos", Salinity)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.LoadPair(ctx, "oos", FDOM)
	assert.ErrorIs(t, err, context.Canceled)
}
