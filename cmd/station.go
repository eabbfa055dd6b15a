package cmd

import (
	"fmt"
	"strings"

	"github.com/ericogr/rs500-logger/pkg/config"
	"github.com/ericogr/rs500-logger/pkg/sensor"
	"github.com/ericogr/rs500-logger/pkg/usbhid"
)

// deviceOpener selects the device backend for cfg.SensorType.
func deviceOpener(cfg config.Config) (sensor.Opener, error) {
	switch strings.ToLower(cfg.SensorType) {
	case "", "hid", "real":
		vid, pid := uint16(cfg.VendorID), uint16(cfg.ProductID)
		return func() (sensor.Device, error) {
			d, err := usbhid.Open(vid, pid)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", sensor.ErrNoDevice, err)
			}
			return d, nil
		}, nil
	case "simulation", "fake":
		return sensor.NewFakeOpener(cfg), nil
	}
	return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
}
