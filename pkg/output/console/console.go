package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ericogr/rs500-logger/pkg/output"
	"github.com/ericogr/rs500-logger/pkg/sensor"
)

type ConsoleOutput struct {
	w     io.Writer
	names []string
}

func NewConsole(names []string) output.Output { return &ConsoleOutput{w: os.Stdout, names: names} }

func (c *ConsoleOutput) Publish(s sensor.Sample) error {
	ts := s.Timestamp.Format(time.RFC3339)
	for _, r := range s.Readings {
		if !r.Present {
			fmt.Fprintf(c.w, "%s channel=%d name=%s absent\n", ts, r.Channel, c.name(r.Channel))
			continue
		}
		fmt.Fprintf(c.w, "%s channel=%d name=%s temperature=%.1f humidity=%.1f\n", ts, r.Channel, c.name(r.Channel), r.Temperature, r.Humidity)
	}
	return nil
}

func (c *ConsoleOutput) name(channel int) string {
	if channel >= 1 && channel <= len(c.names) {
		return c.names[channel-1]
	}
	return fmt.Sprintf("S%d", channel)
}

func (c *ConsoleOutput) Close() error { return nil }
