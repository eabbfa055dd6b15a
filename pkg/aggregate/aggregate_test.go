package aggregate

import (
	"errors"
	"iter"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ericogr/rs500-logger/pkg/logfile"
	"github.com/ericogr/rs500-logger/pkg/sensor"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation(logfile.TimeLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func row(ts string, values ...float64) logfile.Row {
	r := logfile.Row{Timestamp: at(ts)}
	for i := 0; i+1 < len(values); i += 2 {
		c := sensor.ChannelReading{Channel: i/2 + 1, Temperature: values[i], Humidity: values[i+1], Present: true}
		if math.IsNaN(values[i]) {
			c = sensor.Absent(i/2 + 1)
		}
		r.Readings = append(r.Readings, c)
	}
	return r
}

func seqOf(rows ...logfile.Row) iter.Seq2[logfile.Row, error] {
	return func(yield func(logfile.Row, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func collect(t *testing.T, seq iter.Seq2[AveragedRow, error]) []AveragedRow {
	t.Helper()
	var out []AveragedRow
	for r, err := range seq {
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		out = append(out, r)
	}
	return out
}

func checkAverage(t *testing.T, a Average, temp, hum float64) {
	t.Helper()
	if !a.Present || math.Abs(a.Temperature-temp) > 1e-9 || math.Abs(a.Humidity-hum) > 1e-9 {
		t.Fatalf("average: got %+v want %v/%v", a, temp, hum)
	}
}

func TestBucketsDailyMean(t *testing.T) {
	got := collect(t, Buckets(seqOf(
		row("2024-01-01 00:00:00", 20, 50, 21, 52),
		row("2024-01-01 12:00:00", 22, 54, 23, 56),
		row("2024-01-02 00:00:00", 30, 60, 30, 60),
	), 2, 1))
	if len(got) != 1 {
		t.Fatalf("rows: got %d want 1", len(got))
	}
	if y, m, d := got[0].Date.Date(); y != 2024 || m != time.January || d != 1 {
		t.Fatalf("date: %v", got[0].Date)
	}
	if got[0].Samples != 2 {
		t.Fatalf("samples: %d", got[0].Samples)
	}
	checkAverage(t, got[0].Channels[0], 21, 52)
	checkAverage(t, got[0].Channels[1], 22, 54)
}

func TestBucketsTriggerRowNotCounted(t *testing.T) {
	got := collect(t, Buckets(seqOf(
		row("2024-01-01 08:00:00", 20, 50),
		row("2024-01-02 08:00:00", 100, 100), // opens day 2, not a sample
		row("2024-01-02 09:00:00", 22, 52),
		row("2024-01-02 10:00:00", 24, 54),
		row("2024-01-03 00:00:00", 0, 0),
		row("2024-01-03 01:00:00", 0, 0), // trailing bucket, dropped
	), 1, 1))
	if len(got) != 2 {
		t.Fatalf("rows: got %d want 2", len(got))
	}
	checkAverage(t, got[0].Channels[0], 20, 50)
	checkAverage(t, got[1].Channels[0], 23, 53)
	if got[1].Samples != 2 {
		t.Fatalf("samples: %d", got[1].Samples)
	}
}

func TestBucketsEmptyBucketSkipped(t *testing.T) {
	got := collect(t, Buckets(seqOf(
		row("2024-01-01 08:00:00", 20, 50),
		row("2024-01-02 08:00:00", 21, 51),
		row("2024-01-04 08:00:00", 22, 52),
		row("2024-01-05 08:00:00", 23, 53),
	), 1, 1))
	// buckets of 01-02 and 01-04 hold only their trigger rows
	if len(got) != 1 {
		t.Fatalf("rows: got %+v", got)
	}
}

func TestBucketsMultiDay(t *testing.T) {
	got := collect(t, Buckets(seqOf(
		row("2024-01-01 08:00:00", 20, 50),
		row("2024-01-02 08:00:00", 22, 52),
		row("2024-01-03 23:59:59", 24, 54),
		row("2024-01-04 00:00:00", 0, 0),
	), 1, 3))
	if len(got) != 1 || got[0].Samples != 3 {
		t.Fatalf("rows: %+v", got)
	}
	checkAverage(t, got[0].Channels[0], 22, 52)
}

func TestBucketsAbsentChannelIsolated(t *testing.T) {
	nan := math.NaN()
	got := collect(t, Buckets(seqOf(
		row("2024-01-01 00:00:00", 20, 50, 21, 52, 22, 54),
		row("2024-01-01 06:00:00", 22, 52, 23, 54, nan, nan),
		row("2024-01-01 12:00:00", 24, 54, nan, nan, nan, nan),
		row("2024-01-02 00:00:00", 0, 0, 0, 0, 0, 0),
	), 3, 1))
	if len(got) != 1 {
		t.Fatalf("rows: %d", len(got))
	}
	checkAverage(t, got[0].Channels[0], 22, 52)
	checkAverage(t, got[0].Channels[1], 22, 53)
	checkAverage(t, got[0].Channels[2], 22, 54)
	if got[0].Channels[2].Samples != 1 {
		t.Fatalf("channel 3 samples: %d", got[0].Channels[2].Samples)
	}
}

func TestBucketsInfiniteValueIgnored(t *testing.T) {
	got := collect(t, Buckets(seqOf(
		row("2024-01-01 00:00:00", 20, 50, 21, 52),
		row("2024-01-01 06:00:00", math.Inf(1), 50, 23, 54),
		row("2024-01-02 00:00:00", 0, 0, 0, 0),
	), 2, 1))
	if len(got) != 1 {
		t.Fatalf("rows: %d", len(got))
	}
	checkAverage(t, got[0].Channels[0], 20, 50)
	checkAverage(t, got[0].Channels[1], 22, 53)
}

func TestBucketsChannelWithoutSamples(t *testing.T) {
	nan := math.NaN()
	got := collect(t, Buckets(seqOf(
		row("2024-01-01 00:00:00", 20, 50, nan, nan),
		row("2024-01-02 00:00:00", 0, 0, 0, 0),
	), 2, 1))
	if len(got) != 1 || got[0].Channels[1].Present {
		t.Fatalf("rows: %+v", got)
	}
	if tmp, hum := got[0].Channels[1].Values(); !math.IsNaN(tmp) || !math.IsNaN(hum) {
		t.Fatalf("values: %v %v", tmp, hum)
	}
}

func TestBucketsRowError(t *testing.T) {
	bad := errors.New("bad row")
	seq := func(yield func(logfile.Row, error) bool) {
		if !yield(row("2024-01-01 00:00:00", 20, 50), nil) {
			return
		}
		yield(logfile.Row{}, bad)
	}
	var gotErr error
	for _, err := range Buckets(seq, 1, 1) {
		gotErr = err
	}
	if !errors.Is(gotErr, bad) {
		t.Fatalf("err: %v", gotErr)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, lines ...string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	a := write("w01.csv",
		"2024-01-07 10:00:00, 20.0 | 50, 21.0 | 52",
		"2024-01-07 20:00:00, 22.0 | 54, 23.0 | 56",
	)
	b := write("w02.csv",
		"2024-01-08 10:00:00, 30.0 | 60, 30.0 | 60",
		"2024-01-08 11:00:00, 32.0 | 62, nan | nan",
		"2024-01-09 10:00:00, 30.0 | 60, 30.0 | 60",
	)
	seq := Files([]string{a, b}, 2, 1)
	for pass := 0; pass < 2; pass++ {
		got := collect(t, seq)
		if len(got) != 2 {
			t.Fatalf("pass %d: rows %d", pass, len(got))
		}
		checkAverage(t, got[0].Channels[0], 21, 52)
		checkAverage(t, got[1].Channels[0], 32, 62)
		if got[1].Channels[1].Present {
			t.Fatalf("channel 2 of 01-08: %+v", got[1].Channels[1])
		}
	}
}
