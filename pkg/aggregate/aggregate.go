// Package aggregate averages logged rows into calendar-day buckets.
package aggregate

import (
	"iter"
	"math"
	"time"

	"github.com/ericogr/rs500-logger/pkg/logfile"
	"github.com/ericogr/rs500-logger/pkg/sensor"
)

// Average is the mean of one channel over a bucket. A channel with no samples
// in the bucket is not Present.
type Average struct {
	Temperature float64
	Humidity    float64
	Samples     int
	Present     bool
}

// Values returns the averages, NaN when the channel had no samples.
func (a Average) Values() (float64, float64) {
	if !a.Present {
		return math.NaN(), math.NaN()
	}
	return a.Temperature, a.Humidity
}

// AveragedRow is one closed bucket.
type AveragedRow struct {
	Date     time.Time
	Samples  int
	Channels []Average
}

type accumulator struct {
	temp, hum float64
	n         int
}

type bucket struct {
	start   time.Time
	samples int
	sums    []accumulator
}

func newBucket(start time.Time, channels int) *bucket {
	return &bucket{start: start, sums: make([]accumulator, channels)}
}

// add accumulates the present channels of rs. Absent channels are skipped per
// channel, so one missing probe does not affect the others.
func (b *bucket) add(rs sensor.ReadingSet) {
	for i, r := range rs {
		if i >= len(b.sums) || !r.Present {
			continue
		}
		if !finite(r.Temperature) || !finite(r.Humidity) {
			continue
		}
		b.sums[i].temp += r.Temperature
		b.sums[i].hum += r.Humidity
		b.sums[i].n++
	}
	b.samples++
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (b *bucket) row() AveragedRow {
	out := AveragedRow{Date: b.start, Samples: b.samples, Channels: make([]Average, len(b.sums))}
	for i, s := range b.sums {
		if s.n == 0 {
			continue
		}
		out.Channels[i] = Average{
			Temperature: s.temp / float64(s.n),
			Humidity:    s.hum / float64(s.n),
			Samples:     s.n,
			Present:     true,
		}
	}
	return out
}

// date returns midnight of t's calendar day in UTC, so that day differences
// are not affected by daylight saving changes.
func date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// Buckets groups a chronological row stream into buckets of bucketDays
// calendar days and yields one AveragedRow per closed bucket.
//
// The first row opens the first bucket. A row dated bucketDays or more after
// the bucket start closes it and anchors the next bucket at its own date; that
// row is not counted as a sample. The bucket still open when the stream ends
// is dropped, not yielded.
//
// A row error is yielded as is and ends the sequence.
func Buckets(rows iter.Seq2[logfile.Row, error], channels, bucketDays int) iter.Seq2[AveragedRow, error] {
	if bucketDays < 1 {
		bucketDays = 1
	}
	return func(yield func(AveragedRow, error) bool) {
		var cur *bucket
		for row, err := range rows {
			if err != nil {
				yield(AveragedRow{}, err)
				return
			}
			day := date(row.Timestamp)
			if cur == nil {
				cur = newBucket(day, channels)
				cur.add(row.Readings)
				continue
			}
			if daysBetween(cur.start, day) >= bucketDays {
				if cur.samples > 0 && !yield(cur.row(), nil) {
					return
				}
				cur = newBucket(day, channels)
				continue
			}
			cur.add(row.Readings)
		}
	}
}

// Files aggregates the weekly logs at paths, which must already be sorted in
// chronological order.
func Files(paths []string, channels, bucketDays int) iter.Seq2[AveragedRow, error] {
	return Buckets(logfile.Rows(paths, channels), channels, bucketDays)
}
