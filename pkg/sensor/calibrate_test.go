package sensor

import (
	"math"
	"testing"
)

func TestCalibrate(t *testing.T) {
	in := ReadingSet{
		{Channel: 1, Temperature: 20.0, Humidity: 50, Present: true},
		{Channel: 2, Temperature: 21.0, Humidity: 52, Present: true},
		Absent(3),
	}
	out := Calibrate(in, []float64{0.5, -1, 3}, []float64{0, 2})
	if out[0].Temperature != 20.5 || out[0].Humidity != 50 {
		t.Fatalf("channel 1: %+v", out[0])
	}
	if out[1].Temperature != 20.0 || out[1].Humidity != 54 {
		t.Fatalf("channel 2: %+v", out[1])
	}
	if out[2].Present {
		t.Fatalf("channel 3 became present: %+v", out[2])
	}
	if tmp, hum := out[2].Values(); !math.IsNaN(tmp) || !math.IsNaN(hum) {
		t.Fatalf("channel 3 values: %v %v", tmp, hum)
	}
	if in[0].Temperature != 20.0 {
		t.Fatalf("input modified: %+v", in[0])
	}
}

func TestCalibrateNoOffsets(t *testing.T) {
	in := ReadingSet{{Channel: 1, Temperature: 20.0, Humidity: 50, Present: true}}
	out := Calibrate(in, nil, nil)
	if out[0] != in[0] {
		t.Fatalf("got %+v want %+v", out[0], in[0])
	}
}
