package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoDevice is returned by an Opener when the device is not attached.
var ErrNoDevice = errors.New("device not found")

// Device is an open handle to the sensor station. Read is nonblocking and
// returns 0, nil when no data is ready.
type Device interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens a fresh device handle.
type Opener func() (Device, error)

// maxDrainReads bounds the reads collected for one response.
const maxDrainReads = 16

// Query performs one inquiry/response exchange on a freshly opened handle and
// returns the bytes collected until the device had nothing more to send.
func Query(ctx context.Context, open Opener, settle time.Duration) ([]byte, error) {
	dev, err := open()
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	defer dev.Close()

	if _, err := dev.Write(EncodeInquiry()); err != nil {
		return nil, fmt.Errorf("write inquiry: %w", err)
	}

	if settle > 0 {
		timer := time.NewTimer(settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	data := make([]byte, 0, FrameSize)
	buf := make([]byte, FrameSize)
	for i := 0; i < maxDrainReads; i++ {
		n, err := dev.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if n == 0 {
			break
		}
		data = append(data, buf[:n]...)
	}
	return data, nil
}
