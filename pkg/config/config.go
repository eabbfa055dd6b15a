package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type MQTTConfig struct {
	Server   string `json:"server" mapstructure:"server"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client_id" mapstructure:"client_id"`
	Topic    string `json:"topic" mapstructure:"topic"`
}

type OutputConfig struct {
	Type string      `json:"type" mapstructure:"type"`
	MQTT *MQTTConfig `json:"mqtt,omitempty" mapstructure:"mqtt"`
}

// ChannelConfig holds per-probe settings. Channels without an entry use no
// offsets and a generated name.
type ChannelConfig struct {
	Channel           int     `json:"channel" mapstructure:"channel"`
	Name              string  `json:"name" mapstructure:"name"`
	TemperatureOffset float64 `json:"temperature_offset" mapstructure:"temperature_offset"`
	HumidityOffset    float64 `json:"humidity_offset" mapstructure:"humidity_offset"`
}

type Config struct {
	VendorID         int             `json:"vendor_id" mapstructure:"vendor_id"`
	ProductID        int             `json:"product_id" mapstructure:"product_id"`
	SensorType       string          `json:"sensor_type" mapstructure:"sensor_type"`
	SimulatedAbsent  []int           `json:"simulation_dropped" mapstructure:"simulation_dropped"`
	Channels         int             `json:"channels" mapstructure:"channels"`
	MaxTries         int             `json:"max_tries" mapstructure:"max_tries"`
	SettleDelay      time.Duration   `json:"-" mapstructure:"settle"`
	Probes           []ChannelConfig `json:"probes" mapstructure:"probes"`
	DataDir          string          `json:"data_dir" mapstructure:"data_dir"`
	HumidityDecimals int             `json:"humidity_decimals" mapstructure:"humidity_decimals"`
	SkipIncomplete   bool            `json:"skip_incomplete" mapstructure:"skip_incomplete"`
	BucketDays       int             `json:"bucket_days" mapstructure:"bucket_days"`
	Interval         time.Duration   `json:"-" mapstructure:"interval"`
	Outputs          []OutputConfig  `json:"outputs" mapstructure:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		VendorID:         0x0483,
		ProductID:        0x5750,
		SensorType:       "hid",
		Channels:         5,
		MaxTries:         10,
		SettleDelay:      750 * time.Millisecond,
		DataDir:          "./database",
		HumidityDecimals: 0,
		BucketDays:       1,
		Interval:         time.Minute,
		Outputs:          []OutputConfig{{Type: "csv"}},
	}
}

// AddFlags registers the configuration flags on fs, with defaults taken from
// DefaultConfig.
func AddFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("vendor-id", fmt.Sprintf("0x%04x", d.VendorID), "USB vendor id (decimal or 0x hex)")
	fs.String("product-id", fmt.Sprintf("0x%04x", d.ProductID), "USB product id (decimal or 0x hex)")
	fs.String("sensor-type", d.SensorType, "sensor type: hid|simulation")
	fs.IntSlice("simulation-dropped", nil, "Channels the simulated station never reports e.g. 3,5")
	fs.Int("channels", d.Channels, "Number of probes attached to the station (1-8)")
	fs.Int("max-tries", d.MaxTries, "Polls before missing channels are given up")
	fs.Duration("settle", d.SettleDelay, "Wait between inquiry and response read")
	fs.String("temperature-offsets", "", "Per-channel temperature offsets e.g. 1=0.5,3=-0.2")
	fs.String("humidity-offsets", "", "Per-channel humidity offsets e.g. 1=2,2=-1")
	fs.String("names", "", "Per-channel names e.g. 1=Kitchen,2=Studio")
	fs.String("data-dir", d.DataDir, "Root directory of the weekly CSV logs")
	fs.Int("humidity-decimals", d.HumidityDecimals, "Decimals written for humidity (0 or 1)")
	fs.Bool("skip-incomplete", d.SkipIncomplete, "Do not write rows with missing channels")
	fs.Int("bucket-days", d.BucketDays, "Days per averaged bucket")
	fs.String("output", "", "Comma-separated outputs (csv,console,mqtt)")
	fs.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	fs.String("mqtt-user", "", "MQTT username")
	fs.String("mqtt-pass", "", "MQTT password")
	fs.String("mqtt-client-id", "", "MQTT client id")
	fs.String("mqtt-topic", "", "MQTT topic base")
}

// BindFlags binds every flag of fs to the viper key with dashes replaced by
// underscores.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

// Load builds a Config from v. Flag style keys (offsets, names, output and
// mqtt_*) override the structured values read from a config file.
func Load(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.SimulatedAbsent) == 0 {
		cfg.SimulatedAbsent = nil
	}

	if s := v.GetString("temperature_offsets"); s != "" {
		m, err := parseKeyFloatMap(s)
		if err != nil {
			return cfg, fmt.Errorf("temperature-offsets: %w", err)
		}
		for ch, off := range m {
			cfg.probe(ch).TemperatureOffset = off
		}
	}
	if s := v.GetString("humidity_offsets"); s != "" {
		m, err := parseKeyFloatMap(s)
		if err != nil {
			return cfg, fmt.Errorf("humidity-offsets: %w", err)
		}
		for ch, off := range m {
			cfg.probe(ch).HumidityOffset = off
		}
	}
	if s := v.GetString("names"); s != "" {
		m, err := parseKeyStringMap(s)
		if err != nil {
			return cfg, fmt.Errorf("names: %w", err)
		}
		for ch, name := range m {
			cfg.probe(ch).Name = name
		}
	}
	if s := v.GetString("output"); s != "" {
		parts := parseCSV(s)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: p})
		}
		cfg.Outputs = outs
	}
	applyMQTT(&cfg, MQTTConfig{
		Server:   v.GetString("mqtt_server"),
		Username: v.GetString("mqtt_user"),
		Password: v.GetString("mqtt_pass"),
		ClientID: v.GetString("mqtt_client_id"),
		Topic:    v.GetString("mqtt_topic"),
	})

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Channels < 1 || c.Channels > 8 {
		return fmt.Errorf("channels must be within 1..8, got %d", c.Channels)
	}
	if c.MaxTries < 1 {
		return errors.New("max-tries must be > 0")
	}
	if c.BucketDays < 1 {
		return errors.New("bucket-days must be > 0")
	}
	if c.HumidityDecimals != 0 && c.HumidityDecimals != 1 {
		return fmt.Errorf("humidity-decimals must be 0 or 1, got %d", c.HumidityDecimals)
	}
	for _, p := range c.Probes {
		if p.Channel < 1 || p.Channel > c.Channels {
			return fmt.Errorf("channel %d settings outside 1..%d", p.Channel, c.Channels)
		}
	}
	for _, ch := range c.SimulatedAbsent {
		if ch < 1 || ch > c.Channels {
			return fmt.Errorf("simulation-dropped channel %d outside 1..%d", ch, c.Channels)
		}
	}
	if c.VendorID < 0 || c.VendorID > 0xffff || c.ProductID < 0 || c.ProductID > 0xffff {
		return fmt.Errorf("invalid usb id %04x:%04x", c.VendorID, c.ProductID)
	}
	return nil
}

// Settle returns the delay between inquiry and response read.
func (c Config) Settle() time.Duration {
	return c.SettleDelay
}

// Names returns one label per configured channel.
func (c Config) Names() []string {
	names := make([]string, c.Channels)
	for i := range names {
		names[i] = fmt.Sprintf("S%d", i+1)
	}
	for _, p := range c.Probes {
		if p.Channel >= 1 && p.Channel <= c.Channels && p.Name != "" {
			names[p.Channel-1] = p.Name
		}
	}
	return names
}

// probe returns the entry for channel ch, appending one if needed.
func (c *Config) probe(ch int) *ChannelConfig {
	for i := range c.Probes {
		if c.Probes[i].Channel == ch {
			return &c.Probes[i]
		}
	}
	c.Probes = append(c.Probes, ChannelConfig{Channel: ch})
	return &c.Probes[len(c.Probes)-1]
}

// applyMQTT copies the non-empty fields of m into every mqtt output. When m
// carries a server and no mqtt output exists, one is added.
func applyMQTT(cfg *Config, m MQTTConfig) {
	if m == (MQTTConfig{}) {
		return
	}
	applied := false
	for i := range cfg.Outputs {
		if strings.ToLower(cfg.Outputs[i].Type) != "mqtt" {
			continue
		}
		if cfg.Outputs[i].MQTT == nil {
			cfg.Outputs[i].MQTT = &MQTTConfig{}
		}
		mergeMQTT(cfg.Outputs[i].MQTT, m)
		applied = true
	}
	if !applied && m.Server != "" {
		out := OutputConfig{Type: "mqtt", MQTT: &MQTTConfig{}}
		mergeMQTT(out.MQTT, m)
		cfg.Outputs = append(cfg.Outputs, out)
	}
}

func mergeMQTT(dst *MQTTConfig, src MQTTConfig) {
	if src.Server != "" {
		dst.Server = src.Server
	}
	if src.Username != "" {
		dst.Username = src.Username
	}
	if src.Password != "" {
		dst.Password = src.Password
	}
	if src.ClientID != "" {
		dst.ClientID = src.ClientID
	}
	if src.Topic != "" {
		dst.Topic = src.Topic
	}
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseKeyValues(s string, fn func(key int, value string) error) error {
	for _, p := range parseCSV(s) {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("invalid entry '%s': want channel=value", p)
		}
		k, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return fmt.Errorf("invalid channel '%s': %w", kv[0], err)
		}
		if err := fn(k, strings.TrimSpace(kv[1])); err != nil {
			return err
		}
	}
	return nil
}

func parseKeyFloatMap(s string) (map[int]float64, error) {
	out := map[int]float64{}
	err := parseKeyValues(s, func(k int, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid value for channel %d: %w", k, err)
		}
		out[k] = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseKeyStringMap(s string) (map[int]string, error) {
	out := map[int]string{}
	err := parseKeyValues(s, func(k int, v string) error {
		out[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
