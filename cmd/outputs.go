package cmd

import (
	"fmt"
	"strings"

	"github.com/ericogr/rs500-logger/pkg/config"
	"github.com/ericogr/rs500-logger/pkg/output"
	"github.com/ericogr/rs500-logger/pkg/output/console"
	"github.com/ericogr/rs500-logger/pkg/output/csvlog"
	"github.com/ericogr/rs500-logger/pkg/output/mqtt"
)

func initOutputs(cfg config.Config) ([]output.Output, error) {
	outs := make([]output.Output, 0, len(cfg.Outputs))
	for _, oc := range cfg.Outputs {
		var out output.Output
		switch strings.ToLower(oc.Type) {
		case "csv":
			out = csvlog.NewCSV(cfg.DataDir, cfg.HumidityDecimals, cfg.SkipIncomplete)
		case "console":
			out = console.NewConsole(cfg.Names())
		case "mqtt":
			mc := config.MQTTConfig{}
			if oc.MQTT != nil {
				mc = *oc.MQTT
			}
			var err error
			out, err = mqtt.NewMQTT(mc, cfg.Names())
			if err != nil {
				closeOutputs(outs)
				return nil, err
			}
		default:
			closeOutputs(outs)
			return nil, fmt.Errorf("unknown output type %q", oc.Type)
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func closeOutputs(outs []output.Output) {
	for _, o := range outs {
		_ = o.Close()
	}
}
