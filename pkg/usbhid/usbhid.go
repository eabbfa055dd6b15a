// Package usbhid opens the station's USB HID interface through hidapi.
package usbhid

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sstallion/go-hid"
	"periph.io/x/conn/v3"
)

// ErrNotFound is returned when no device matches the ids.
var ErrNotFound = errors.New("hid device not found")

var initOnce struct {
	sync.Once
	err error
}

// Device is a nonblocking handle: Read returns 0, nil when no report is ready.
type Device struct {
	dev       *hid.Device
	vendorID  uint16
	productID uint16
}

var _ conn.Resource = (*Device)(nil)

// Open opens the first device matching vendorID:productID.
func Open(vendorID, productID uint16) (*Device, error) {
	initOnce.Do(func() { initOnce.err = hid.Init() })
	if initOnce.err != nil {
		return nil, fmt.Errorf("hid init: %w", initOnce.err)
	}
	dev, err := hid.OpenFirst(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %04x:%04x: %v", ErrNotFound, vendorID, productID, err)
	}
	if err := dev.SetNonblock(true); err != nil {
		dev.Close()
		return nil, fmt.Errorf("set nonblocking: %w", err)
	}
	return &Device{dev: dev, vendorID: vendorID, productID: productID}, nil
}

func (d *Device) String() string {
	return fmt.Sprintf("hid(%04x:%04x)", d.vendorID, d.productID)
}

func (d *Device) Write(p []byte) (int, error) { return d.dev.Write(p) }

func (d *Device) Read(p []byte) (int, error) { return d.dev.Read(p) }

// Halt is a no-op; the station has no continuous mode to stop.
func (d *Device) Halt() error { return nil }

func (d *Device) Close() error {
	if d.dev == nil {
		return nil
	}
	err := d.dev.Close()
	d.dev = nil
	return err
}
