package influxdb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

type fakeWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (f *fakeWriter) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
}

func (f *fakeWriter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func connectedClient() (*Client, *fakeWriter) {
	w := &fakeWriter{}
	return &Client{writeAPI: w, connected: true}, w
}

func tags(p *write.Point) map[string]string {
	out := make(map[string]string)
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}
	return out
}

func fields(p *write.Point) map[string]any {
	out := make(map[string]any)
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestRecordLiveness(t *testing.T) {
	c, w := connectedClient()
	d := wiz.Descriptor{ID: "a8bb50d2c3f4", DeviceType: wiz.DeviceTypeBulb, Host: "192.168.1.20"}

	c.RecordLiveness(d, wiz.EventDeviceOnline)
	c.RecordLiveness(d, wiz.EventDeviceOffline)

	require.Len(t, w.points, 2)
	p := w.points[0]
	assert.Equal(t, MeasurementLiveness, p.Name())
	assert.Equal(t, map[string]string{
		"device_id":   "a8bb50d2c3f4",
		"device_type": "bulb",
		"event":       "device-online",
	}, tags(p))
	assert.Equal(t, true, fields(p)["online"])
	assert.Equal(t, "192.168.1.20", fields(p)["host"])

	assert.Equal(t, false, fields(w.points[1])["online"])
}

func TestRecordAccessoryCount(t *testing.T) {
	c, w := connectedClient()
	c.RecordAccessoryCount(3, 4)

	require.Len(t, w.points, 1)
	assert.Equal(t, MeasurementAccessories, w.points[0].Name())
	assert.Equal(t, int64(3), fields(w.points[0])["bindings"])
	assert.Equal(t, int64(4), fields(w.points[0])["shells"])
}

func TestWritePointWithTime(t *testing.T) {
	c, w := connectedClient()
	ts := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	c.WritePointWithTime("custom", map[string]string{"k": "v"}, map[string]any{"x": 1.5}, ts)

	require.Len(t, w.points, 1)
	assert.Equal(t, ts, w.points[0].Time())
}

func TestWrite_DroppedWhenDisconnected(t *testing.T) {
	w := &fakeWriter{}
	c := &Client{writeAPI: w}

	c.RecordLiveness(wiz.Descriptor{ID: "x"}, wiz.EventDeviceNew)
	c.Flush()

	assert.Empty(t, w.points)
	assert.Zero(t, w.flushes)
}

func TestClose(t *testing.T) {
	c, w := connectedClient()

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
	assert.Equal(t, 1, w.flushes)

	// Second close does not flush again.
	require.NoError(t, c.Close())
	assert.Equal(t, 1, w.flushes)

	assert.NoError(t, (&Client{}).Close())
}

func TestHealthCheck_NotConnected(t *testing.T) {
	assert.ErrorIs(t, (&Client{}).HealthCheck(context.Background()), ErrNotConnected)
}

func TestHandleWriteErrors(t *testing.T) {
	c, _ := connectedClient()

	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	errs := make(chan error, 1)
	errs <- os.ErrDeadlineExceeded
	close(errs)
	c.handleWriteErrors(errs)

	assert.ErrorIs(t, <-got, os.ErrDeadlineExceeded)
}
