package sensor

import "github.com/ericogr/rs500-logger/pkg/config"

// buildChannelSettings expands the sparse per-channel config into slices
// indexed by channel-1, one entry for each configured channel.
func buildChannelSettings(cfg config.Config) (tempOffsets, humidityOffsets []float64) {
	tempOffsets = make([]float64, cfg.Channels)
	humidityOffsets = make([]float64, cfg.Channels)
	for _, c := range cfg.Probes {
		if c.Channel < 1 || c.Channel > cfg.Channels {
			continue
		}
		tempOffsets[c.Channel-1] = c.TemperatureOffset
		humidityOffsets[c.Channel-1] = c.HumidityOffset
	}
	return
}
