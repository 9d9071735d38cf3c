package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/gridpulse/core/model"
	"github.com/kilianp07/gridpulse/core/session"
	"github.com/kilianp07/gridpulse/infra/logger"
	"github.com/kilianp07/gridpulse/internal/eventbus"
)

// Config defines the connection parameters for the plan announcer.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "gridpulse-" + uuid.NewString()[:8]
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "gridpulse"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("mqtt broker required when enabled")
	}
	return nil
}

// planMessage is the payload published for every committed cycle.
type planMessage struct {
	Region     string                   `json:"region"`
	Status     model.BackendStatus      `json:"status"`
	DataSource model.DataSource         `json:"data_source"`
	Result     model.OptimizationResult `json:"result"`
	Published  time.Time                `json:"published"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Announcer publishes committed dispatch plans to an MQTT broker so external
// consumers can follow the active schedule. Publish failures are logged and
// never propagate to the session.
type Announcer struct {
	cli    pahoClient
	prefix string
	qos    byte
	log    logger.Logger
}

// NewAnnouncer connects to the broker described by the configuration.
func NewAnnouncer(cfg Config) (*Announcer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	log := logger.New("plan-announcer")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Announcer{cli: c, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// Run consumes cycle events from the bus until the context is canceled.
func (a *Announcer) Run(ctx context.Context, bus *eventbus.Bus[session.CycleEvent]) {
	sub, cancel := bus.Subscribe(8)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			a.announce(ev)
		}
	}
}

func (a *Announcer) announce(ev session.CycleEvent) {
	payload, err := json.Marshal(planMessage{
		Region:     ev.Region.ID,
		Status:     ev.Status,
		DataSource: ev.Profile.DataSource,
		Result:     *ev.Result,
		Published:  time.Now(),
	})
	if err != nil {
		a.log.Errorf("encode plan: %v", err)
		return
	}
	topic := fmt.Sprintf("%s/%s/plan", a.prefix, ev.Region.ID)
	if token := a.cli.Publish(topic, a.qos, true, payload); token.Wait() && token.Error() != nil {
		a.log.Errorf("publish plan to %s: %v", topic, token.Error())
		return
	}
	a.log.Debugw("plan published", map[string]any{"topic": topic, "seq": ev.Seq})
}

// Close disconnects from the broker.
func (a *Announcer) Close() {
	if a.cli != nil && a.cli.IsConnected() {
		a.cli.Disconnect(250)
	}
}
