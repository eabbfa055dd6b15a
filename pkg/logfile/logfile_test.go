package logfile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ericogr/rs500-logger/pkg/sensor"
)

func TestPath(t *testing.T) {
	tests := []struct {
		ts   time.Time
		want string
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), filepath.Join("db", "2024", "w01.csv")},
		{time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), filepath.Join("db", "2024", "w11.csv")},
		// ISO week 1 of 2025 starts on 2024-12-30
		{time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC), filepath.Join("db", "2025", "w01.csv")},
		{time.Date(2021, 1, 2, 8, 0, 0, 0, time.UTC), filepath.Join("db", "2020", "w53.csv")},
	}
	for _, tt := range tests {
		if got := Path("db", tt.ts); got != tt.want {
			t.Fatalf("Path(%v) = %q; want %q", tt.ts, got, tt.want)
		}
	}
}

func TestFormatRow(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 30, 5, 0, time.Local)
	rs := sensor.ReadingSet{
		{Channel: 1, Temperature: 21.54, Humidity: 48, Present: true},
		{Channel: 2, Temperature: -3.2, Humidity: 7.4, Present: true},
		sensor.Absent(3),
	}
	if got, want := FormatRow(ts, rs, 0), "2024-01-01 12:30:05, 21.5 | 48, -3.2 |  7, nan | nan"; got != want {
		t.Fatalf("decimals 0:\n got: %q\nwant: %q", got, want)
	}
	if got, want := FormatRow(ts, rs, 1), "2024-01-01 12:30:05, 21.5 | 48.0, -3.2 | 7.4, nan | nan"; got != want {
		t.Fatalf("decimals 1:\n got: %q\nwant: %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	ts := time.Date(2024, 2, 29, 23, 59, 59, 0, time.Local)
	rs := sensor.ReadingSet{
		{Channel: 1, Temperature: 19.96, Humidity: 55.2, Present: true},
		sensor.Absent(2),
		{Channel: 3, Temperature: -12.3, Humidity: 99, Present: true},
	}
	for _, decimals := range []int{0, 1} {
		row, err := ParseRow(FormatRow(ts, rs, decimals), 3)
		if err != nil {
			t.Fatalf("decimals %d: %v", decimals, err)
		}
		if !row.Timestamp.Equal(ts) {
			t.Fatalf("timestamp: got %v want %v", row.Timestamp, ts)
		}
		htol := 0.5
		if decimals == 1 {
			htol = 0.05
		}
		for i, want := range rs {
			got := row.Readings[i]
			if got.Channel != want.Channel || got.Present != want.Present {
				t.Fatalf("channel %d: got %+v want %+v", i+1, got, want)
			}
			if !want.Present {
				continue
			}
			if math.Abs(got.Temperature-want.Temperature) > 0.05+1e-9 || math.Abs(got.Humidity-want.Humidity) > htol+1e-9 {
				t.Fatalf("channel %d: got %+v want %+v", i+1, got, want)
			}
		}
	}
}

func TestParseRowAcceptsHumidityForms(t *testing.T) {
	for _, line := range []string{
		"2024-01-01 00:00:00, 20.0 | 50, 21.0 | 52",
		"2024-01-01 00:00:00, 20.0 | 50.0, 21.0 | 52.0",
		"2024-01-01 00:00:00,20.0|50,21.0|52",
	} {
		row, err := ParseRow(line, 2)
		if err != nil {
			t.Fatalf("%q: %v", line, err)
		}
		if row.Readings[0].Temperature != 20.0 || row.Readings[1].Humidity != 52 {
			t.Fatalf("%q: %+v", line, row.Readings)
		}
	}
}

func TestParseRowErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"", ErrMalformedRow},
		{"2024-01-01, 20.0 | 50, 21.0 | 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | 50", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | 50, 21.0 | 52, 22.0 | 54", ErrChannelCountMismatch},
		{"2024-01-01 00:00:00, 20.0 | 50, 21.0 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | 50, 21.0 | 52 | 1", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.x | 50, 21.0 | 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | , 21.0 | 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, nan | 50, 21.0 | 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, inf | 50, 21.0 | 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | +Inf, 21.0 | 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | 1e3, 21.0 | 52", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | 50, 0x1p4 | 50", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20.0 | 50, 21.0 | NaN", ErrMalformedRow},
		{"2024-01-01 00:00:00, 20. | 50, 21.0 | 52", ErrMalformedRow},
	}
	for _, tt := range tests {
		_, err := ParseRow(tt.line, 2)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%q: got %v want %v", tt.line, err, tt.want)
		}
		var re *RowError
		if !errors.As(err, &re) {
			t.Fatalf("%q: not a RowError: %T", tt.line, err)
		}
	}
}

func TestAppend(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2024, 1, 3, 10, 0, 0, 0, time.Local)
	rs := sensor.ReadingSet{{Channel: 1, Temperature: 20, Humidity: 50, Present: true}}
	for i := 0; i < 2; i++ {
		if err := Append(root, ts.Add(time.Duration(i)*time.Minute), rs, 0); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	rows, err := ReadFile(filepath.Join(root, "2024", "w01.csv"), 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 || !rows[1].Timestamp.Equal(ts.Add(time.Minute)) {
		t.Fatalf("rows: %+v", rows)
	}
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"2024/w10.csv", "2023/w52.csv", "2024/w02.csv", "2024/notes.txt", "misc/w01.csv"} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Files(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "2023", "w52.csv"),
		filepath.Join(root, "2024", "w02.csv"),
		filepath.Join(root, "2024", "w10.csv"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files: got %v want %v", got, want)
	}
}

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRowsStreamsFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "2024-01-01 00:00:00, 20.0 | 50", "", "2024-01-01 00:01:00, 21.0 | 51")
	b := writeFile(t, dir, "b.csv", "2024-01-08 00:00:00, 22.0 | 52")

	seq := Rows([]string{a, b}, 1)
	for pass := 0; pass < 2; pass++ {
		var temps []float64
		for row, err := range seq {
			if err != nil {
				t.Fatalf("rows: %v", err)
			}
			temps = append(temps, row.Readings[0].Temperature)
		}
		if !reflect.DeepEqual(temps, []float64{20, 21, 22}) {
			t.Fatalf("pass %d: %v", pass, temps)
		}
	}

	count := 0
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("early stop: %d", count)
	}
}

func TestRowsStopsAtMalformedRow(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "2024-01-01 00:00:00, 20.0 | 50", "2024-01-01 00:01:00, 21.0")
	b := writeFile(t, dir, "b.csv", "2024-01-08 00:00:00, 22.0 | 52")

	var rows int
	var gotErr error
	for _, err := range Rows([]string{a, b}, 1) {
		if err != nil {
			gotErr = err
			continue
		}
		rows++
	}
	if rows != 1 {
		t.Fatalf("rows before error: %d", rows)
	}
	var re *RowError
	if !errors.As(gotErr, &re) || re.Path != a || re.Line != 2 || !errors.Is(gotErr, ErrMalformedRow) {
		t.Fatalf("error: %v", gotErr)
	}
}
