package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/wiz-platform/internal/infrastructure/mqtt"
)

// Subscriber is the MQTT surface the Monitor needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Report is the last health message received from the bridge.
type Report struct {
	Status     string    `json:"status"`
	ClientID   string    `json:"client_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Monitor tracks the status a bridge publishes on its health topic.
type Monitor struct {
	protocol string
	maxAge   time.Duration
	logger   Logger
	now      func() time.Time

	mu   sync.RWMutex
	last *Report
}

// NewMonitor creates a monitor for the bridge serving protocol. Reports older
// than maxAge are treated as stale; a zero maxAge disables the age check.
func NewMonitor(protocol string, maxAge time.Duration, logger Logger) *Monitor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Monitor{
		protocol: protocol,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe starts listening on the bridge health topic.
func (m *Monitor) Subscribe(sub Subscriber, qos byte) error {
	topic := mqtt.Topics{}.BridgeHealth(m.protocol)
	if err := sub.Subscribe(topic, qos, m.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

// handle records one health message. Malformed payloads are logged and
// dropped so the subscription stays alive.
func (m *Monitor) handle(topic string, payload []byte) error {
	var msg mqtt.StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Status == "" {
		m.logger.Warn("malformed bridge health message", "topic", topic, "error", err)
		return nil
	}

	report := Report{
		Status:     msg.Status,
		ClientID:   msg.ClientID,
		Reason:     msg.Reason,
		ReceivedAt: m.now(),
	}

	m.mu.Lock()
	prev := m.last
	m.last = &report
	m.mu.Unlock()

	switch {
	case prev == nil:
		m.logger.Info("bridge health reported", "protocol", m.protocol, "status", report.Status)
	case prev.Status != report.Status:
		m.logger.Info("bridge health changed", "protocol", m.protocol, "from", prev.Status, "to", report.Status, "reason", report.Reason)
	}
	return nil
}

// Last returns the most recent report, if any.
func (m *Monitor) Last() (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return Report{}, false
	}
	return *m.last, true
}

// Check reports whether the bridge is online with a fresh report. It has
// the signature of Options.HealthCheck.
func (m *Monitor) Check(_ context.Context) error {
	report, ok := m.Last()
	if !ok {
		return ErrNoReport
	}
	if report.Status != mqtt.StatusOnline {
		if report.Reason != "" {
			return fmt.Errorf("%w: %s", ErrOffline, report.Reason)
		}
		return ErrOffline
	}
	if m.maxAge > 0 {
		if age := m.now().Sub(report.ReceivedAt); age > m.maxAge {
			return fmt.Errorf("%w: last report %s ago", ErrStale, age.Truncate(time.Second))
		}
	}
	return nil
}
