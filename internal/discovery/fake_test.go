package discovery

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/nerrad567/wiz-platform/internal/infrastructure/mqtt"
)

type published struct {
	topic   string
	command Command
}

// fakeTransport records publishes and lets tests inject bridge messages.
type fakeTransport struct {
	mu           sync.Mutex
	published    []published
	handlers     map[string]mqtt.MessageHandler
	subscribes   int
	unsubscribes int
	publishErr   error
	subscribeErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeTransport) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return err
	}
	f.published = append(f.published, published{topic: topic, command: cmd})
	return nil
}

func (f *fakeTransport) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscribes++
	f.handlers[topic] = handler
	return nil
}

func (f *fakeTransport) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes++
	delete(f.handlers, topic)
	return nil
}

// deliver simulates the bridge publishing payload on topic.
func (f *fakeTransport) deliver(topic string, payload []byte) error {
	f.mu.Lock()
	handler, ok := f.handlers[topic]
	f.mu.Unlock()
	if !ok {
		return errors.New("no subscriber")
	}
	return handler(topic, payload)
}

func (f *fakeTransport) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.published))
	for _, p := range f.published {
		out = append(out, p.command.Command)
	}
	return out
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
