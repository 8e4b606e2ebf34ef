package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/services"
)

type fakeStatus struct {
	status *services.SimulationStatus
	err    error
}

func (f fakeStatus) Status(context.Context) (*services.SimulationStatus, error) {
	return f.status, f.err
}

func runningStatus() fakeStatus {
	return fakeStatus{status: &services.SimulationStatus{
		Running:         true,
		CompletedTasks:  11,
		ProgressPercent: 50,
		Job:             &models.SimulationJob{ID: 4, TotalTasks: 22, CompletedTasks: 11, Status: models.JobRunning},
	}}
}

func startServer(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:], nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) models.WSMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNew_InitializesChannels(t *testing.T) {
	hub := New(logger.New(), nil)
	if hub.clients == nil || hub.broadcast == nil || hub.register == nil || hub.unregister == nil || hub.done == nil {
		t.Fatal("expected hub channels to be initialized")
	}
}

func TestServeWs_SendsJobStatusOnConnect(t *testing.T) {
	hub := New(logger.New(), runningStatus())
	hub.Start()
	defer hub.Stop()

	ws := startServer(t, hub)
	msg := readMessage(t, ws)

	if msg.Type != models.MsgJobStatus {
		t.Fatalf("first message type = %q, want %q", msg.Type, models.MsgJobStatus)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload = %T", msg.Payload)
	}
	if payload["running"] != true || payload["completed_tasks"] != float64(11) {
		t.Errorf("payload = %v", payload)
	}
}

func TestServeWs_StatusErrorSkipsGreeting(t *testing.T) {
	hub := New(logger.New(), fakeStatus{err: errors.New("database is locked")})
	hub.Start()
	defer hub.Stop()

	ws := startServer(t, hub)
	waitForClients(t, hub, 1)

	hub.BroadcastMessage(models.MsgJobFinished, map[string]string{"status": "COMPLETED"})
	if msg := readMessage(t, ws); msg.Type != models.MsgJobFinished {
		t.Errorf("first message = %q, want the broadcast", msg.Type)
	}
}

func TestServeWs_BroadcastToAllClients(t *testing.T) {
	hub := New(logger.New(), nil)
	hub.Start()
	defer hub.Stop()

	a := startServer(t, hub)
	b := startServer(t, hub)
	waitForClients(t, hub, 2)

	hub.BroadcastMessage(models.MsgRankingPublished, services.RankingPublished{DrawNumber: 1100, Strategies: 22, Top: []string{"HOT", "COLD", "MIRROR"}})

	for _, ws := range []*websocket.Conn{a, b} {
		msg := readMessage(t, ws)
		if msg.Type != models.MsgRankingPublished {
			t.Errorf("type = %q", msg.Type)
		}
		payload := msg.Payload.(map[string]interface{})
		if payload["draw_number"] != float64(1100) {
			t.Errorf("payload = %v", payload)
		}
	}
}

func TestServeWs_ClientDisconnect(t *testing.T) {
	hub := New(logger.New(), nil)
	hub.Start()
	defer hub.Stop()

	ws := startServer(t, hub)
	waitForClients(t, hub, 1)

	ws.Close()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := New(logger.New(), nil)
	hub.Start()
	defer hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.BroadcastMessage(models.MsgJobProgress, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastMessage blocked with no clients")
	}
}

func TestHub_BroadcastAfterStopIsNoop(t *testing.T) {
	hub := New(logger.New(), nil)
	hub.Start()
	hub.Stop()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.BroadcastMessage(models.MsgJobProgress, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastMessage blocked after Stop")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := New(logger.New(), nil)
	hub.Start()

	ws := startServer(t, hub)
	waitForClients(t, hub, 1)
	hub.Stop()
	waitForClients(t, hub, 0)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected connection to close after Stop")
	}
}

func TestHub_ImplementsBroadcaster(t *testing.T) {
	var _ services.Broadcaster = New(logger.New(), nil)
}

func TestServeWs_UpgradeError(t *testing.T) {
	hub := New(logger.NewWithLevel(100), nil)
	rec := httptest.NewRecorder()
	hub.ServeWs(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a plain HTTP request", rec.Code)
	}
}
