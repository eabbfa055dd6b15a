// Package series builds the point series handed to chart renderers.
package series

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"iter"
	"math"
	"strconv"
	"time"

	"github.com/ericogr/rs500-logger/pkg/aggregate"
	"github.com/ericogr/rs500-logger/pkg/logfile"
)

const (
	KindRecent  = "24hrs"
	KindAverage = "avg"
)

// Value is one channel at one point. Nil means no reading.
type Value struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

type Point struct {
	Time   time.Time `json:"time"`
	Values []Value   `json:"values"`
}

type Series struct {
	Kind   string   `json:"kind"`
	Names  []string `json:"names"`
	Points []Point  `json:"points"`
}

func value(t, h float64) Value {
	var v Value
	if !math.IsNaN(t) {
		v.Temperature = &t
	}
	if !math.IsNaN(h) {
		v.Humidity = &h
	}
	return v
}

// FromRows converts raw log rows into points.
func FromRows(rows []logfile.Row) []Point {
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		p := Point{Time: r.Timestamp, Values: make([]Value, len(r.Readings))}
		for i, c := range r.Readings {
			p.Values[i] = value(c.Values())
		}
		out = append(out, p)
	}
	return out
}

// Recent returns the raw rows taken within window before now. Rows are read
// from the weekly log holding now and the one before it; missing files are
// skipped.
func Recent(root string, now time.Time, window time.Duration, channels int) ([]Point, error) {
	since := now.Add(-window)
	paths := []string{logfile.Path(root, now.AddDate(0, 0, -7)), logfile.Path(root, now)}
	if paths[0] == paths[1] {
		paths = paths[1:]
	}
	var rows []logfile.Row
	for _, p := range paths {
		rs, err := logfile.ReadFile(p, channels)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, r := range rs {
			if !r.Timestamp.Before(since) && !r.Timestamp.After(now) {
				rows = append(rows, r)
			}
		}
	}
	return FromRows(rows), nil
}

// Averages drains an aggregate sequence into points dated at bucket start.
func Averages(seq iter.Seq2[aggregate.AveragedRow, error]) ([]Point, error) {
	var out []Point
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		p := Point{Time: row.Date, Values: make([]Value, len(row.Channels))}
		for i, a := range row.Channels {
			p.Values[i] = value(a.Values())
		}
		out = append(out, p)
	}
	return out, nil
}

func (s Series) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes a header of time plus a temperature and humidity column
// per channel name, then one record per point. Missing values are empty.
func (s Series) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"time"}
	for _, n := range s.Names {
		header = append(header, n+"_T", n+"_RH")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range s.Points {
		rec := []string{p.Time.Format(logfile.TimeLayout)}
		for _, v := range p.Values {
			rec = append(rec, formatPtr(v.Temperature), formatPtr(v.Humidity))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}
