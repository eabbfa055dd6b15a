package sensor

import (
	"context"
	"time"

	"github.com/ericogr/rs500-logger/pkg/config"
	jww "github.com/spf13/jwalterweatherman"
)

// Station acquires calibrated reading sets from an RS500 style station.
type Station struct {
	query           QueryFunc
	channels        int
	maxTries        int
	tempOffsets     []float64
	humidityOffsets []float64
	now             func() time.Time
}

// NewStation returns a Sensor that reopens the device with open for every
// poll.
func NewStation(cfg config.Config, open Opener) Sensor {
	return newStation(cfg, OpenerQuery(open, cfg.Settle()))
}

func newStation(cfg config.Config, query QueryFunc) *Station {
	temps, hums := buildChannelSettings(cfg)
	return &Station{
		query:           query,
		channels:        cfg.Channels,
		maxTries:        cfg.MaxTries,
		tempOffsets:     temps,
		humidityOffsets: hums,
		now:             time.Now,
	}
}

func (s *Station) Read(ctx context.Context) (Sample, error) {
	rs, rep, err := Acquire(ctx, s.query, s.channels, s.maxTries)
	if err != nil {
		return Sample{}, err
	}
	if !rep.AllPresent {
		jww.WARN.Println("degraded reading:", rep)
	} else {
		jww.DEBUG.Println(rep)
	}
	return Sample{
		Timestamp: s.now().Truncate(time.Second),
		Readings:  Calibrate(rs, s.tempOffsets, s.humidityOffsets),
		Report:    rep,
	}, nil
}

func (s *Station) Close() error { return nil }
