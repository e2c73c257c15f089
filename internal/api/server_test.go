package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/discovery"
	"github.com/nerrad567/wiz-platform/internal/host"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/logging"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/mqtt"
	"github.com/nerrad567/wiz-platform/internal/platform"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

type stubHost struct {
	mu           sync.Mutex
	unregistered []string
	err          error
}

func (h *stubHost) RegisterAccessories(context.Context, string, string, []*accessory.Shell) error {
	return nil
}

func (h *stubHost) UnregisterAccessories(_ context.Context, _, _ string, shells []*accessory.Shell) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range shells {
		h.unregistered = append(h.unregistered, s.UUID)
	}
	return h.err
}

type stubDiscovery struct{}

func (stubDiscovery) StartDiscovery(discovery.Options) error { return nil }
func (stubDiscovery) StopDiscovery() error                   { return nil }

type stubSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
}

func (s *stubSubscriber) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	s.topic = topic
	s.handler = handler
	return nil
}

type fixture struct {
	srv        *Server
	controller *platform.Controller
	host       *stubHost
	mqtt       *stubSubscriber
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()

	h := &stubHost{}
	controller, err := platform.New(platform.Options{Host: h, Discovery: stubDiscovery{}})
	require.NoError(t, err)

	sub := &stubSubscriber{}
	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{JWT: config.JWTConfig{Secret: secret}},
		Logger:   logging.Discard(),
		Platform: controller,
		MQTT:     sub,
		Version:  "test",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.hub.Run(ctx)

	return &fixture{srv: srv, controller: controller, host: h, mqtt: sub}
}

func (f *fixture) discover(t *testing.T, id, alias string) {
	t.Helper()
	d := wiz.Descriptor{ID: id, DeviceType: wiz.DeviceTypeBulb, Alias: alias, Host: "192.168.1.20", Port: 38899}
	require.NoError(t, f.controller.Dispatch(context.Background(), platform.DeviceEvent{Event: wiz.Event{Kind: wiz.EventDeviceNew, Device: d}}))
}

func (f *fixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, testSecret)

	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

type stubBridge struct{ err error }

func (b stubBridge) Check(context.Context) error { return b.err }

func TestHealthBridge(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
		wantBridge string
	}{
		{name: "online", wantStatus: "ok", wantBridge: "ok"},
		{name: "offline", err: errors.New("bridge: offline"), wantStatus: "degraded", wantBridge: "bridge: offline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			f.srv.bridge = stubBridge{err: tt.err}

			rec := f.do(t, http.MethodGet, "/api/v1/health", "")
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, tt.wantBridge, body["bridge"])
		})
	}
}

func TestListAccessories(t *testing.T) {
	f := newFixture(t, "")

	cached, err := accessory.NewShell("a8bb5006f8ff", "Garage", 0)
	require.NoError(t, err)
	require.NoError(t, f.controller.ConfigureAccessory(cached))
	f.discover(t, "a8bb5006f8a1", "Desk")

	rec := f.do(t, http.MethodGet, "/api/v1/accessories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Accessories []accessoryView `json:"accessories"`
		Count       int             `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 2, body.Count)

	byDevice := map[string]accessoryView{}
	for _, v := range body.Accessories {
		byDevice[v.DeviceID] = v
	}
	assert.True(t, byDevice["a8bb5006f8a1"].Bound)
	assert.Equal(t, "Desk", byDevice["a8bb5006f8a1"].DisplayName)
	assert.Equal(t, "192.168.1.20:38899", byDevice["a8bb5006f8a1"].Host)
	assert.Equal(t, "Lightbulb", byDevice["a8bb5006f8a1"].Category)
	assert.NotEmpty(t, byDevice["a8bb5006f8a1"].Services)
	assert.False(t, byDevice["a8bb5006f8ff"].Bound)
}

func TestAccessoryStats(t *testing.T) {
	f := newFixture(t, "")
	f.discover(t, "a8bb5006f8a1", "Desk")

	rec := f.do(t, http.MethodGet, "/api/v1/accessories/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body["bindings"])
	assert.Equal(t, 1, body["shells"])
	assert.Equal(t, 0, body["unbound_shells"])
}

func TestGetAccessory(t *testing.T) {
	f := newFixture(t, "")
	f.discover(t, "a8bb5006f8a1", "Desk")
	uuid := accessory.MustDeriveStableID("a8bb5006f8a1")

	rec := f.do(t, http.MethodGet, "/api/v1/accessories/"+uuid, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view accessoryView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, uuid, view.UUID)
	assert.True(t, view.Bound)

	rec = f.do(t, http.MethodGet, "/api/v1/accessories/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveAccessory(t *testing.T) {
	f := newFixture(t, "")
	f.discover(t, "a8bb5006f8a1", "Desk")
	uuid := accessory.MustDeriveStableID("a8bb5006f8a1")

	rec := f.do(t, http.MethodDelete, "/api/v1/accessories/"+uuid, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.controller.Bindings())
	assert.Equal(t, []string{uuid}, f.host.unregistered)

	rec = f.do(t, http.MethodDelete, "/api/v1/accessories/"+uuid, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveAccessory_HostFailure(t *testing.T) {
	f := newFixture(t, "")
	f.discover(t, "a8bb5006f8a1", "Desk")
	f.host.err = errors.New("store failure")

	rec := f.do(t, http.MethodDelete, "/api/v1/accessories/"+accessory.MustDeriveStableID("a8bb5006f8a1"), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuth(t *testing.T) {
	f := newFixture(t, testSecret)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/accessories", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := IssueToken("admin", "another-secret", time.Minute)
		require.NoError(t, err)
		rec := f.do(t, http.MethodGet, "/api/v1/accessories", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueToken("admin", testSecret, time.Minute)
		require.NoError(t, err)
		rec := f.do(t, http.MethodGet, "/api/v1/accessories", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("token query parameter", func(t *testing.T) {
		token, err := IssueToken("admin", testSecret, time.Minute)
		require.NoError(t, err)
		rec := f.do(t, http.MethodGet, "/api/v1/accessories?token="+token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health is public", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	f := newFixture(t, "")
	f.srv.cfg.CORS.AllowedOrigins = []string{"http://admin.local"}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/accessories", nil)
	req.Header.Set("Origin", "http://admin.local")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://admin.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketRelay(t *testing.T) {
	f := newFixture(t, testSecret)
	require.NoError(t, f.srv.subscribeEvents())
	assert.Equal(t, mqtt.Topics{}.AllEvents(), f.mqtt.topic)

	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	token, err := IssueToken("admin", testSecret, time.Minute)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?token=" + token
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelAccessoryRegistered}},
	}))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var response WSMessage
	require.NoError(t, ws.ReadJSON(&response))
	assert.Equal(t, WSTypeResponse, response.Type)
	assert.Equal(t, "sub-1", response.ID)
	assert.Equal(t, 1, f.srv.hub.ClientCount())

	payload, err := json.Marshal(host.AccessoryEvent{
		Type:        host.EventAccessoryRegistered,
		UUID:        accessory.MustDeriveStableID("a8bb5006f8a1"),
		DisplayName: "Desk",
		DeviceID:    "a8bb5006f8a1",
	})
	require.NoError(t, err)

	// Not subscribed to unregistered events: dropped.
	unregistered, err := json.Marshal(host.AccessoryEvent{Type: host.EventAccessoryUnregistered, UUID: "x"})
	require.NoError(t, err)
	require.NoError(t, f.mqtt.handler("wizplatform/event/accessory_unregistered", unregistered))
	require.NoError(t, f.mqtt.handler("wizplatform/event/accessory_registered", payload))

	var event WSMessage
	require.NoError(t, ws.ReadJSON(&event))
	assert.Equal(t, WSTypeEvent, event.Type)
	assert.Equal(t, ChannelAccessoryRegistered, event.EventType)
	body, ok := event.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a8bb5006f8a1", body["device_id"])
}

func TestWebSocket_RequiresToken(t *testing.T) {
	f := newFixture(t, testSecret)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_PingAndBadMessage(t *testing.T) {
	f := newFixture(t, "")
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	ws, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	require.NoError(t, ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}))
	var msg WSMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, WSTypePong, msg.Type)
	assert.Equal(t, "p1", msg.ID)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, WSTypeError, msg.Type)
}

func TestRelayEvent_Malformed(t *testing.T) {
	f := newFixture(t, "")
	assert.NoError(t, f.srv.relayEvent("wizplatform/event/x", []byte("{")))
}

func TestStartClose(t *testing.T) {
	f := newFixture(t, "")

	require.Error(t, f.srv.HealthCheck(context.Background()))
	require.NoError(t, f.srv.Start(context.Background()))
	assert.Error(t, f.srv.Start(context.Background()))
	assert.NoError(t, f.srv.HealthCheck(context.Background()))
	assert.Equal(t, mqtt.Topics{}.AllEvents(), f.mqtt.topic)

	require.NoError(t, f.srv.Close())
	assert.NoError(t, f.srv.Close())
}
