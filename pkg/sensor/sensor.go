package sensor

import (
	"context"
	"math"
	"time"
)

// MaxChannels is the number of channel slots carried by one response frame.
const MaxChannels = 8

// ChannelReading holds the values of one probe. An absent channel carries no
// values; Values reports it as NaN, NaN.
type ChannelReading struct {
	Channel     int     `json:"channel"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Present     bool    `json:"present"`
}

// Absent returns the placeholder reading for a channel that could not be read.
func Absent(channel int) ChannelReading {
	return ChannelReading{Channel: channel}
}

// Values returns temperature and humidity, both NaN when the channel is absent.
func (r ChannelReading) Values() (float64, float64) {
	if !r.Present {
		return math.NaN(), math.NaN()
	}
	return r.Temperature, r.Humidity
}

// ReadingSet is indexed by channel: element i is channel i+1.
type ReadingSet []ChannelReading

// Missing lists the channel numbers that carry no values.
func (rs ReadingSet) Missing() []int {
	var out []int
	for _, r := range rs {
		if !r.Present {
			out = append(out, r.Channel)
		}
	}
	return out
}

// Complete reports whether every channel has values.
func (rs ReadingSet) Complete() bool {
	return len(rs.Missing()) == 0
}

// Report summarizes one acquisition.
type Report struct {
	TriesUsed  int   `json:"tries_used"`
	AllPresent bool  `json:"all_present"`
	Missing    []int `json:"missing,omitempty"`
}

// Sample is one acquisition result stamped with the time it was taken.
type Sample struct {
	Timestamp time.Time
	Readings  ReadingSet
	Report    Report
}

type Sensor interface {
	Read(ctx context.Context) (Sample, error)
	Close() error
}
