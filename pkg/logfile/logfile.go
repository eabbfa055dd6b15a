// Package logfile reads and writes the weekly CSV logs.
//
// One file is kept per ISO week under <root>/<iso year>/wNN.csv. Each line is
//
//	2024-01-01 12:00:00, 21.5 | 48, 20.9 | 51
//
// with one "temperature | humidity" field per channel. Channels that could not
// be read are written as "nan | nan".
package logfile

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ericogr/rs500-logger/pkg/sensor"
)

const TimeLayout = "2006-01-02 15:04:05"

// decimalValue matches the plain decimals the writer emits. ParseFloat alone
// would also take inf, exponents and hex floats.
var decimalValue = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

var (
	ErrMalformedRow         = errors.New("malformed row")
	ErrChannelCountMismatch = errors.New("channel count mismatch")
)

// RowError describes a line that could not be parsed. It unwraps to
// ErrMalformedRow or ErrChannelCountMismatch.
type RowError struct {
	Path   string
	Line   int
	Err    error
	Reason string
}

func (e *RowError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%s:%d: %v: %s", e.Path, e.Line, e.Err, e.Reason)
}

func (e *RowError) Unwrap() error { return e.Err }

func malformed(format string, args ...interface{}) error {
	return &RowError{Err: ErrMalformedRow, Reason: fmt.Sprintf(format, args...)}
}

// Row is one line of a weekly log.
type Row struct {
	Timestamp time.Time
	Readings  sensor.ReadingSet
}

// Path returns the weekly log file that holds rows taken at ts.
func Path(root string, ts time.Time) string {
	year, week := ts.ISOWeek()
	return filepath.Join(root, fmt.Sprintf("%04d", year), fmt.Sprintf("w%02d.csv", week))
}

// FormatRow renders a log line without the trailing newline. humidityDecimals
// is 0 or 1.
func FormatRow(ts time.Time, readings sensor.ReadingSet, humidityDecimals int) string {
	var b strings.Builder
	b.WriteString(ts.Format(TimeLayout))
	for _, r := range readings {
		t, h := r.Values()
		b.WriteString(", ")
		b.WriteString(formatValue(t, 4, 1))
		b.WriteString(" | ")
		b.WriteString(formatValue(h, 2, humidityDecimals))
	}
	return b.String()
}

func formatValue(v float64, width, prec int) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%*.*f", width, prec, v)
}

// ParseRow parses one log line written for the given number of channels.
func ParseRow(line string, channels int) (Row, error) {
	fields := strings.Split(line, ",")
	ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(fields[0]), time.Local)
	if err != nil {
		return Row{}, malformed("timestamp %q", strings.TrimSpace(fields[0]))
	}
	got := len(fields) - 1
	switch {
	case got < channels:
		return Row{}, malformed("%d channel fields, want %d", got, channels)
	case got > channels:
		return Row{}, &RowError{Err: ErrChannelCountMismatch, Reason: fmt.Sprintf("%d channel fields, want %d", got, channels)}
	}

	readings := make(sensor.ReadingSet, channels)
	for i, f := range fields[1:] {
		r, err := parseField(i+1, f)
		if err != nil {
			return Row{}, err
		}
		readings[i] = r
	}
	return Row{Timestamp: ts, Readings: readings}, nil
}

func parseField(channel int, field string) (sensor.ChannelReading, error) {
	parts := strings.Split(field, "|")
	if len(parts) != 2 {
		return sensor.ChannelReading{}, malformed("channel %d field %q", channel, strings.TrimSpace(field))
	}
	t, ok := parseValue(parts[0])
	if !ok {
		return sensor.ChannelReading{}, malformed("channel %d temperature %q", channel, strings.TrimSpace(parts[0]))
	}
	h, ok := parseValue(parts[1])
	if !ok {
		return sensor.ChannelReading{}, malformed("channel %d humidity %q", channel, strings.TrimSpace(parts[1]))
	}
	switch tn, hn := math.IsNaN(t), math.IsNaN(h); {
	case tn && hn:
		return sensor.Absent(channel), nil
	case tn || hn:
		return sensor.ChannelReading{}, malformed("channel %d has only one value", channel)
	}
	return sensor.ChannelReading{Channel: channel, Temperature: t, Humidity: h, Present: true}, nil
}

// parseValue accepts a finite decimal or the literal nan.
func parseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "nan" {
		return math.NaN(), true
	}
	if !decimalValue.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// Append writes one row to the weekly file for ts, creating the file and its
// directory when needed. The file is opened and closed on every call; there is
// no locking between concurrent writers.
func Append(root string, ts time.Time, readings sensor.ReadingSet, humidityDecimals int) error {
	path := Path(root, ts)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if _, err := fd.WriteString(FormatRow(ts, readings, humidityDecimals) + "\n"); err != nil {
		fd.Close()
		return fmt.Errorf("write log: %w", err)
	}
	return fd.Close()
}

// Files lists every weekly log under root, sorted by name, which is
// chronological order.
func Files(root string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(root, "[0-9][0-9][0-9][0-9]", "w[0-9][0-9].csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
