package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"opsecho/models"
	"opsecho/store"
)

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := read(t, conn)
	require.Equal(t, "connection", welcome.Type)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": msgType, "data": data}))
}

// settle round-trips a ping so earlier client messages are known to be handled
func settle(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	send(t, conn, "ping", nil)
	require.Equal(t, "pong", read(t, conn).Type)
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.BroadcastAlert(&models.Alert{ChannelID: "machine_0_1_pressure", Severity: models.SeverityCritical})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := read(t, conn)
		assert.Equal(t, models.MessageSystemAlert, msg.Type)
		assert.Contains(t, string(msg.Data), "machine_0_1_pressure")
	}
}

func TestHub_SubscriptionsFilterTopics(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	send(t, conn, "subscribe", map[string][]string{"topics": {models.MessageIncidentUpdate}})
	settle(t, conn)

	hub.Broadcast(models.MessageTelemetryData, map[string]float64{"value": 1})
	hub.Broadcast(models.MessageIncidentUpdate, models.Incident{ID: "incident_1"})

	msg := read(t, conn)
	assert.Equal(t, models.MessageIncidentUpdate, msg.Type)

	send(t, conn, "unsubscribe", map[string][]string{"topics": {models.MessageIncidentUpdate}})
	settle(t, conn)

	hub.Broadcast(models.MessageTelemetryData, map[string]float64{"value": 2})
	assert.Equal(t, models.MessageTelemetryData, read(t, conn).Type)
}

func TestHub_ForwardChanges(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	changes := make(chan store.Change, 4)
	changes <- store.Change{Action: store.UpdateTelemetryChannel{}}
	changes <- store.Change{Action: store.UpdateIncident{Incident: models.Incident{ID: "incident_7"}}}
	changes <- store.Change{
		Action: store.TransitionIncident{ID: "incident_8", Status: models.StatusResolved},
		State:  store.State{Incidents: []models.Incident{{ID: "incident_8", Status: models.StatusResolved}}},
	}
	changes <- store.Change{Action: store.ToggleLayer{Layer: "humans"}}
	close(changes)

	hub.ForwardChanges(context.Background(), changes)

	msg := read(t, conn)
	assert.Equal(t, models.MessageIncidentUpdate, msg.Type)
	assert.Contains(t, string(msg.Data), "incident_7")

	msg = read(t, conn)
	assert.Equal(t, models.MessageIncidentUpdate, msg.Type)
	assert.Contains(t, string(msg.Data), `"status":"resolved"`)

	msg = read(t, conn)
	assert.Equal(t, models.MessageStateChanged, msg.Type)
	assert.Contains(t, string(msg.Data), "TOGGLE_LAYER")
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(r))

	r.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(r))

	assert.True(t, originChecker([]string{"*"})(r))
}
