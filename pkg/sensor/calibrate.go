package sensor

// Calibrate returns a copy of readings with the per-channel offsets added.
// Offsets are indexed by channel-1; a short slice means zero for the rest.
// Absent channels stay absent.
func Calibrate(readings ReadingSet, tempOffsets, humidityOffsets []float64) ReadingSet {
	out := make(ReadingSet, len(readings))
	for i, r := range readings {
		out[i] = r
		if !r.Present {
			continue
		}
		out[i].Temperature += offsetAt(tempOffsets, r.Channel)
		out[i].Humidity += offsetAt(humidityOffsets, r.Channel)
	}
	return out
}

func offsetAt(offsets []float64, channel int) float64 {
	if channel < 1 || channel > len(offsets) {
		return 0
	}
	return offsets[channel-1]
}
