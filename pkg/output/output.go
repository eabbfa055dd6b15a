package output

import "github.com/ericogr/rs500-logger/pkg/sensor"

// Output receives every acquired sample. Implementations live in the
// subpackages csvlog, console and mqtt.
type Output interface {
	Publish(sensor.Sample) error
	Close() error
}
