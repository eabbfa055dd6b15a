// Package csvlog publishes samples as rows of the weekly CSV logs.
package csvlog

import (
	"github.com/ericogr/rs500-logger/pkg/logfile"
	"github.com/ericogr/rs500-logger/pkg/output"
	"github.com/ericogr/rs500-logger/pkg/sensor"
	jww "github.com/spf13/jwalterweatherman"
)

type CSVOutput struct {
	root             string
	humidityDecimals int
	skipIncomplete   bool
}

// NewCSV returns an output appending to the logs under root. With
// skipIncomplete set, samples with missing channels are not written.
func NewCSV(root string, humidityDecimals int, skipIncomplete bool) output.Output {
	return &CSVOutput{root: root, humidityDecimals: humidityDecimals, skipIncomplete: skipIncomplete}
}

func (c *CSVOutput) Publish(s sensor.Sample) error {
	if c.skipIncomplete && !s.Readings.Complete() {
		jww.WARN.Printf("skipping row at %s: channels %v missing", s.Timestamp.Format(logfile.TimeLayout), s.Readings.Missing())
		return nil
	}
	if err := logfile.Append(c.root, s.Timestamp, s.Readings, c.humidityDecimals); err != nil {
		return err
	}
	jww.INFO.Printf("row written to %s", logfile.Path(c.root, s.Timestamp))
	return nil
}

func (c *CSVOutput) Close() error { return nil }
