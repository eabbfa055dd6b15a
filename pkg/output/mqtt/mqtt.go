package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ericogr/rs500-logger/pkg/config"
	"github.com/ericogr/rs500-logger/pkg/output"
	"github.com/ericogr/rs500-logger/pkg/sensor"
)

const (
	// defaults
	DefaultServer      = "tcp://localhost:1883"
	DefaultClientID    = "rs500-client"
	DefaultStateTopic  = "rs500"
	perChannelTopicFmt = "%s/channel/%d"
)

type MQTTOutput struct {
	client     mqtt.Client
	stateTopic string
	names      []string
}

// payload is the per-channel state message. Absent channels carry null values.
type payload struct {
	Name        string   `json:"name"`
	Channel     int      `json:"channel"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Present     bool     `json:"present"`
	Timestamp   string   `json:"timestamp"`
}

func NewMQTT(cfg config.MQTTConfig, names []string) (output.Output, error) {
	server := cfg.Server
	if server == "" {
		server = DefaultServer
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	opts := mqtt.NewClientOptions().AddBroker(server).SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTOutput{client: client, stateTopic: cfg.Topic, names: names}, nil
}

func (m *MQTTOutput) Publish(s sensor.Sample) error {
	for _, r := range s.Readings {
		b, err := json.Marshal(buildPayload(s.Timestamp, r, m.names))
		if err != nil {
			return err
		}
		token := m.client.Publish(formatStateTopic(m.stateTopic, r.Channel), 0, false, b)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
	}
	return nil
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

// helper: format a state topic for a channel using an optional formatter
func formatStateTopic(base string, ch int) string {
	if base == "" {
		base = DefaultStateTopic
	}
	if strings.Contains(base, "%d") {
		return fmt.Sprintf(base, ch)
	}
	return fmt.Sprintf(perChannelTopicFmt, strings.TrimRight(base, "/"), ch)
}

func buildPayload(ts time.Time, r sensor.ChannelReading, names []string) payload {
	p := payload{
		Name:      fmt.Sprintf("S%d", r.Channel),
		Channel:   r.Channel,
		Present:   r.Present,
		Timestamp: ts.Format(time.RFC3339),
	}
	if r.Channel >= 1 && r.Channel <= len(names) {
		p.Name = names[r.Channel-1]
	}
	if r.Present {
		t, h := r.Temperature, r.Humidity
		p.Temperature, p.Humidity = &t, &h
	}
	return p
}
