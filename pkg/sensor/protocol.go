package sensor

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

const (
	// FrameSize is the fixed length of both the inquiry and the response.
	FrameSize = 64

	groupOffset = 1
	groupStride = 3
)

// ErrInvalidLength is returned for a response that is not exactly FrameSize bytes.
var ErrInvalidLength = errors.New("invalid frame length")

var inquiryHeader = [...]byte{0x7b, 0x03, 0x40, 0x7d}

// Frame maps channel number to the values decoded for it. Channels the device
// reported as absent have no key.
type Frame map[int]physic.Env

// EncodeInquiry returns the command frame that asks the device for the
// temperatures and humidities of all channels.
func EncodeInquiry() []byte {
	buf := make([]byte, FrameSize)
	copy(buf, inquiryHeader[:])
	return buf
}

// DecodeFrame decodes the first channels groups of a response frame.
func DecodeFrame(frame []byte, channels int) (Frame, error) {
	if len(frame) != FrameSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, len(frame))
	}
	if channels < 0 || channels > MaxChannels {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	out := make(Frame, channels)
	for c := 1; c <= channels; c++ {
		i := groupOffset + groupStride*(c-1)
		t1, t2, hu := frame[i], frame[i+1], frame[i+2]
		if t1 == 0x7f && t2 == 0xff && hu == 0xff {
			continue
		}
		out[c] = physic.Env{
			Temperature: decodeTemperature(t1, t2),
			Humidity:    physic.RelativeHumidity(hu) * physic.PercentRH,
		}
	}
	return out, nil
}

// decodeTemperature reads a big-endian two's complement value in tenths of a degree.
func decodeTemperature(t1, t2 byte) physic.Temperature {
	tenths := int16(uint16(t1)<<8 | uint16(t2))
	return physic.ZeroCelsius + physic.Temperature(tenths)*100*physic.MilliKelvin
}

// Celsius converts a physic temperature to degrees Celsius.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

// Percent converts a physic relative humidity to percent.
func Percent(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}

// reading converts decoded values into a ChannelReading.
func reading(channel int, env physic.Env) ChannelReading {
	return ChannelReading{
		Channel:     channel,
		Temperature: Celsius(env.Temperature),
		Humidity:    Percent(env.Humidity),
		Present:     true,
	}
}
