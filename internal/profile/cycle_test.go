package profile

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanobs/shallowprofiler/internal/monitoring"
)

func TestResolveLegWindow(t *testing.T) {
	c := cycleAt(ts("2022-01-01T07:20:00Z"))

	tests := []struct {
		leg   Leg
		start time.Time
		end   time.Time
	}{
		{LegRest, c.RestStart.Time, c.RestEnd.Time},
		{LegAscent, c.AscentStart.Time, c.AscentEnd.Time},
		{LegDescent, c.DescentStart.Time, c.DescentEnd.Time},
	}
	for _, tt := range tests {
		t.Run(tt.leg.String(), func(t *testing.T) {
			w, err := ResolveLegWindow(c, tt.leg)
			require.NoError(t, err)
			assert.True(t, w.Start.Equal(tt.start))
			assert.True(t, w.End.Equal(tt.end))
			assert.True(t, w.Start.Before(w.End), "leg window must have positive duration")
		})
	}
}

func TestResolveLegWindow_AscentIgnoresOtherFields(t *testing.T) {
	t1 := ts("2022-01-01T10:00:00Z")
	t2 := ts("2022-01-01T11:00:00Z")
	c := Cycle{AscentStart: Event{Time: t1}, AscentEnd: Event{Time: t2}}

	w, err := ResolveLegWindow(c, LegAscent)
	require.NoError(t, err)
	assert.Equal(t, Window{Start: t1, End: t2}, w)
}

func TestResolveLegWindow_InvalidLeg(t *testing.T) {
	c := cycleAt(ts("2022-01-01T07:20:00Z"))
	for _, leg := range []Leg{0, Leg(7), -1} {
		_, err := ResolveLegWindow(c, leg)
		var legErr *InvalidLegError
		assert.True(t, errors.As(err, &legErr), "leg %d should fail", int(leg))
	}
}

func TestParseLeg(t *testing.T) {
	for in, want := range map[string]Leg{"rest": LegRest, "Ascent": LegAscent, " descent ": LegDescent} {
		got, err := ParseLeg(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLeg("sideways")
	var legErr *InvalidLegError
	require.True(t, errors.As(err, &legErr))
	assert.Equal(t, "sideways", legErr.Value)
}

func TestLegColumns(t *testing.T) {
	a, b := LegDescent.Columns()
	assert.Equal(t, "d0t", a)
	assert.Equal(t, "d1t", b)
	a, b = Leg(0).Columns()
	assert.Empty(t, a+b)
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: ts("2022-01-01T00:00:00Z"), End: ts("2022-01-01T01:00:00Z")}
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.End.Add(time.Nanosecond)))
	assert.Equal(t, time.Hour, w.Duration())
}

const namedCSV = `r0t,r0z,r1t,r1z,a0t,a0z,a1t,a1z,d0t,d0z,d1t,d1z
2022-01-01 00:00:00,-193.1,2022-01-01 00:40:00,-193.2,2022-01-01 00:40:00,-193.2,2022-01-01 01:40:00,-5.0,2022-01-01 01:40:00,-5.0,2022-01-01 02:10:00,-193.0
2022-01-01 02:10:00,-193.0,2022-01-01 02:50:00,-192.9,2022-01-01 02:50:00,-192.9,2022-01-01 03:50:00,-4.8,2022-01-01 03:50:00,-4.8,2022-01-01 04:20:00,-193.1
`

func TestReadProfileMetadata_NamedHeader(t *testing.T) {
	cycles, err := ReadProfileMetadata(strings.NewReader(namedCSV))
	require.NoError(t, err)
	require.Len(t, cycles, 2)

	assert.Equal(t, ts("2022-01-01T00:40:00Z"), cycles[0].AscentStart.Time)
	assert.Equal(t, -5.0, cycles[0].AscentEnd.Depth)
	assert.Equal(t, ts("2022-01-01T04:20:00Z"), cycles[1].DescentEnd.Time)
	assert.Empty(t, CheckContinuity(cycles))
}

func TestReadProfileMetadata_ExportHeader(t *testing.T) {
	// The export tool writes an event label before each time/depth pair.
	in := "0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17\n" +
		"0,2022-01-01T00:00:00Z,-190,1,2022-01-01T00:40:00Z,-190," +
		"2,2022-01-01T00:40:00Z,-190,3,2022-01-01T01:40:00Z,-6," +
		"4,2022-01-01T01:40:00Z,-6,5,2022-01-01T02:10:00Z,-190\n"

	cycles, err := ReadProfileMetadata(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, ts("2022-01-01T00:40:00Z"), cycles[0].AscentStart.Time)
	assert.Equal(t, -6.0, cycles[0].DescentStart.Depth)
}

func TestReadProfileMetadata_Errors(t *testing.T) {
	_, err := ReadProfileMetadata(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadProfileMetadata(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.ErrorContains(t, err, "twelve event columns")

	bad := strings.Replace(namedCSV, "2022-01-01 01:40:00,-5.0", "yesterday,-5.0", 1)
	_, err = ReadProfileMetadata(strings.NewReader(bad))
	assert.ErrorContains(t, err, "line 2")
}

func TestCheckContinuity(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	monitoring.SetLogger(nil)

	a := cycleAt(ts("2022-01-01T07:20:00Z"))
	b := cycleAt(ts("2022-01-01T12:00:00Z"))
	b.AscentEnd.Depth = 1.5

	warnings := CheckContinuity([]Cycle{a, b})
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "next rest start")
	assert.Contains(t, warnings[1], "above the surface")
}

func TestWriteProfileMetadata_RoundTrip(t *testing.T) {
	cycles := scenarioCycles()
	var buf bytes.Buffer
	require.NoError(t, WriteProfileMetadata(&buf, cycles))

	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	monitoring.SetLogger(nil)
	back, err := ReadProfileMetadata(&buf)
	require.NoError(t, err)
	require.Len(t, back, len(cycles))
	for i := range cycles {
		assert.True(t, cycles[i].AscentStart.Time.Equal(back[i].AscentStart.Time))
		assert.Equal(t, cycles[i].DescentEnd.Depth, back[i].DescentEnd.Depth)
	}
}
