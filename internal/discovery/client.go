package discovery

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/wiz-platform/internal/infrastructure/mqtt"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// Protocol is the bridge name used in topic paths.
const Protocol = "wiz"

// Bridge commands published on the config topic.
const (
	CommandStartDiscovery = "start_discovery"
	CommandStopDiscovery  = "stop_discovery"
)

const defaultBufferSize = 64

// Transport is the part of the MQTT client the discovery client uses.
// *mqtt.Client satisfies it.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Command is the message sent to the bridge on the config topic.
type Command struct {
	Command   string    `json:"command"`
	Options   *Options  `json:"options,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Protocol overrides the topic protocol segment. Default: "wiz".
	Protocol string

	QoS byte

	// BufferSize is the capacity of the Events channel. Default: 64.
	BufferSize int

	Logger Logger
}

// Client drives a discovery bridge over MQTT.
//
// Events are delivered on Events in the order the bridge published them.
// Delivery continues after StopDiscovery until Close, since the bridge may
// still flush messages that were in flight.
type Client struct {
	transport Transport
	protocol  string
	qos       byte
	logger    Logger

	events chan wiz.Event
	done   chan struct{}

	mu         sync.RWMutex
	opts       Options
	started    bool
	running    bool
	subscribed bool
	closeOnce  sync.Once
}

// NewClient creates a discovery client on top of transport.
func NewClient(transport Transport, opts ClientOptions) *Client {
	if opts.Protocol == "" {
		opts.Protocol = Protocol
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Client{
		transport: transport,
		protocol:  opts.Protocol,
		qos:       opts.QoS,
		logger:    opts.Logger,
		events:    make(chan wiz.Event, opts.BufferSize),
		done:      make(chan struct{}),
	}
}

// Events returns the ordered stream of accepted discovery events.
func (c *Client) Events() <-chan wiz.Event {
	return c.events
}

// StartDiscovery subscribes to the bridge's discovery topic (once) and asks
// the bridge to start discovering with opts. It does not wait for the bridge
// to act on the command.
func (c *Client) StartDiscovery(opts Options) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	if opts.FilterCallback == nil {
		opts.FilterCallback = DefaultFilter
	}

	c.mu.Lock()
	c.opts = opts
	c.started = true
	needSubscribe := !c.subscribed
	c.mu.Unlock()

	topics := mqtt.Topics{}
	if needSubscribe {
		if err := c.transport.Subscribe(topics.Discovery(c.protocol), c.qos, c.handleMessage); err != nil {
			return fmt.Errorf("subscribing to discovery events: %w", err)
		}
		c.mu.Lock()
		c.subscribed = true
		c.mu.Unlock()
	}

	if err := c.publish(Command{Command: CommandStartDiscovery, Options: &opts}); err != nil {
		return err
	}

	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	c.logger.Debug("discovery started",
		"broadcast", opts.Broadcast,
		"discovery_interval_ms", opts.DiscoveryInterval,
		"device_types", opts.DeviceTypes,
	)
	return nil
}

// StopDiscovery asks the bridge to stop. Stopping an already stopped client
// is a no-op; stopping one that was never started returns ErrNotStarted.
func (c *Client) StopDiscovery() error {
	c.mu.Lock()
	started, running := c.started, c.running
	c.running = false
	c.mu.Unlock()

	if !started {
		return ErrNotStarted
	}
	if !running {
		return nil
	}

	if err := c.publish(Command{Command: CommandStopDiscovery}); err != nil {
		return err
	}
	c.logger.Debug("discovery stopped")
	return nil
}

// Running reports whether discovery has been started and not stopped.
func (c *Client) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Close stops delivery and drops the subscription. The Events channel is
// left open; consumers should stop reading on their own context.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		subscribed := c.subscribed
		c.subscribed = false
		c.running = false
		c.mu.Unlock()

		if subscribed {
			err = c.transport.Unsubscribe(mqtt.Topics{}.Discovery(c.protocol))
		}
	})
	return err
}

func (c *Client) publish(cmd Command) error {
	cmd.Timestamp = time.Now().UTC()
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", cmd.Command, err)
	}
	if err := c.transport.Publish(mqtt.Topics{}.Config(c.protocol), payload, c.qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", cmd.Command, err)
	}
	return nil
}

// handleMessage is the MQTT handler for the discovery topic. Bad messages
// are logged and dropped; the returned error is only logged by the transport.
func (c *Client) handleMessage(topic string, payload []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	ev, err := decodeEvent(payload)
	if err != nil {
		c.logger.Warn("dropping discovery message", "topic", topic, "error", err)
		return err
	}

	c.mu.RLock()
	opts := c.opts
	c.mu.RUnlock()

	if !opts.Accept(ev.Device) {
		c.logger.Debug("device filtered", append(ev.Device.LogArgs(), "event", string(ev.Kind))...)
		return nil
	}

	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// decodeEvent parses and validates one bridge message.
func decodeEvent(payload []byte) (wiz.Event, error) {
	var ev wiz.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return wiz.Event{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if err := ev.Kind.Validate(); err != nil {
		return wiz.Event{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return ev, nil
}
