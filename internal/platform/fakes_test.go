package platform

import (
	"context"
	"sync"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/discovery"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

type hostCall struct {
	pluginID     string
	platformName string
	shells       []*accessory.Shell
}

type fakeHost struct {
	mu            sync.Mutex
	registered    []hostCall
	unregistered  []hostCall
	registerErr   error
	unregisterErr error
}

func (h *fakeHost) RegisterAccessories(_ context.Context, pluginID, platformName string, shells []*accessory.Shell) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered = append(h.registered, hostCall{pluginID, platformName, shells})
	return h.registerErr
}

func (h *fakeHost) UnregisterAccessories(_ context.Context, pluginID, platformName string, shells []*accessory.Shell) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregistered = append(h.unregistered, hostCall{pluginID, platformName, shells})
	return h.unregisterErr
}

type fakeDiscovery struct {
	mu      sync.Mutex
	starts  []discovery.Options
	stops   int
	started bool
	err     error
}

func (d *fakeDiscovery) StartDiscovery(opts discovery.Options) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.starts = append(d.starts, opts)
	d.started = true
	return nil
}

func (d *fakeDiscovery) StopDiscovery() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return discovery.ErrNotStarted
	}
	d.stops++
	return nil
}

type livenessPoint struct {
	deviceID string
	kind     wiz.EventKind
}

type fakeLiveness struct {
	mu     sync.Mutex
	points []livenessPoint
	counts [][2]int
}

func (f *fakeLiveness) RecordLiveness(d wiz.Descriptor, kind wiz.EventKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, livenessPoint{d.ID, kind})
}

func (f *fakeLiveness) RecordAccessoryCount(bindings, shells int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, [2]int{bindings, shells})
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.log("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}
