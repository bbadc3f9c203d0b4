package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/hostflow/hostflow/internal/state"
)

func setupTestStore(t *testing.T) *state.Store {
	t.Helper()

	inv, err := state.DefaultInventory()
	if err != nil {
		t.Fatalf("Failed to load default inventory: %v", err)
	}
	return state.NewStore(inv, state.DefaultStayPackages(), "1.0.0")
}

func setupTestServer(t *testing.T, store *state.Store) *Server {
	t.Helper()

	config := &Config{
		Port:   0, // Use random available port
		Logger: log.New(io.Discard, "", 0),
	}
	server := NewServer(store, nil, config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server
}

func TestServerStartStop(t *testing.T) {
	store := setupTestStore(t)
	config := &Config{
		Port:   0,
		Logger: log.New(io.Discard, "", 0),
	}

	server := NewServer(store, nil, config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if addr := server.GetAddr(); addr == "" {
		t.Fatal("Server address is empty")
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketWelcomeCarriesStats(t *testing.T) {
	store := setupTestStore(t)
	store.AddProperty(state.PropertyConfig{ID: "prop-1", Name: "Asteya Farms", IsConfigured: true})
	store.AddBooking(state.Booking{
		ID: "bk-1", PropertyID: "prop-1", GuestName: "Priya Nair",
		CheckIn: "2026-03-10", Status: state.BookingCheckedIn,
	})

	server := setupTestServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeStats {
		t.Fatalf("Expected welcome message type %s, got %s", MessageTypeStats, msg.Type)
	}

	var stats StatsData
	if err := json.Unmarshal(msg.Data, &stats); err != nil {
		t.Fatalf("Failed to unmarshal stats: %v", err)
	}
	if stats.Properties != 1 || stats.Bookings != 1 || stats.CheckedIn != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	store := setupTestStore(t)
	server := setupTestServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"

	numClients := 3
	clients := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		clients[i] = conn

		// Drain the welcome message
		if _, _, err := conn.Read(ctx); err != nil {
			t.Fatalf("Failed to read welcome for client %d: %v", i, err)
		}
	}

	if count := server.ClientCount(); count != numClients {
		t.Fatalf("Expected %d clients, got %d", numClients, count)
	}

	server.BroadcastStats()

	for i, conn := range clients {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Client %d failed to read broadcast: %v", i, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Client %d failed to unmarshal: %v", i, err)
		}
		if msg.Type != MessageTypeStats {
			t.Errorf("Client %d expected stats broadcast, got %s", i, msg.Type)
		}
	}
}

func TestStatsComputation(t *testing.T) {
	store := setupTestStore(t)
	store.AddTransaction(state.Transaction{ID: "t1", PropertyID: "prop-1", Date: "2026-03-01", Type: state.Income, Amount: 12000})
	store.AddTransaction(state.Transaction{ID: "t2", PropertyID: "prop-1", Date: "2026-03-02", Type: state.Expense, Amount: 3000})
	store.AddInventoryItem(state.InventoryItem{ID: "inv-x", Name: "Lanterns", Category: state.CategoryUsables, Quantity: 0, MinThreshold: 2})

	server := NewServer(store, nil, &Config{Port: 0, Logger: log.New(io.Discard, "", 0)})

	stats := server.computeStats()
	if stats.Revenue != 12000 {
		t.Errorf("Expected revenue 12000, got %v", stats.Revenue)
	}
	if stats.Expenses != 3000 {
		t.Errorf("Expected expenses 3000, got %v", stats.Expenses)
	}
	if stats.LowStock < 1 {
		t.Errorf("Expected at least 1 low-stock item, got %d", stats.LowStock)
	}
}

func TestHealthEndpoint(t *testing.T) {
	store := setupTestStore(t)
	server := setupTestServer(t, store)

	resp, err := http.Get("http://" + server.GetAddr() + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	store := setupTestStore(t)
	server := setupTestServer(t, store)

	resp, err := http.Get("http://" + server.GetAddr() + "/status")
	if err != nil {
		t.Fatalf("Status request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode status response: %v", err)
	}
	if _, ok := body["stats"]; !ok {
		t.Error("Expected stats in status response")
	}
}
