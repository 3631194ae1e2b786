package liveedit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/host"
)

func TestDeriveChannelURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{"http to ws", "http://127.0.0.1:7737", "ws://127.0.0.1:7737/updates/live-edit/ws", false},
		{"https to wss", "https://updates.example.test/api", "wss://updates.example.test/updates/live-edit/ws", false},
		{"query stripped", "http://h:1?x=1", "ws://h:1/updates/live-edit/ws", false},
		{"unsupported scheme", "ftp://h", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveChannelURL(tt.base)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeriveChannelURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DeriveChannelURL() = %s, want %s", got, tt.want)
			}
		})
	}
}

// testBridge records live-edit actions.
type testBridge struct {
	mu      sync.Mutex
	saved   map[string][]byte
	reloads []string
}

var _ host.Bridge = (*testBridge)(nil)

func newTestBridge() *testBridge {
	return &testBridge{saved: map[string][]byte{}}
}

func (b *testBridge) SaveFile(path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved[path] = append([]byte(nil), data...)
	return nil
}

func (b *testBridge) DeleteFile(string) error { return nil }

func (b *testBridge) ReloadScript(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloads = append(b.reloads, path)
	return nil
}

func (b *testBridge) RestartProcess() error           { return host.ErrUnsupported }
func (b *testBridge) OpenFolder(string) error         { return host.ErrUnsupported }
func (b *testBridge) CurrentVersion() (string, error) { return "1.0.0", nil }

func (b *testBridge) reloadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.reloads)
}

// liveEditServer upgrades the channel path and pushes the given messages.
func liveEditServer(t *testing.T, messages []Message) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ChannelPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		for _, m := range messages {
			data, _ := json.Marshal(m)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		// Keep the connection open; the client closes on context cancel.
		time.Sleep(5 * time.Second)
		_ = conn.Close()
	}))
}

func fastPolicy() Policy {
	return Policy{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, MaxRetries: 3}
}

func TestChannelDispatchesScriptAndConfigEdits(t *testing.T) {
	ts := liveEditServer(t, []Message{
		{Type: MessageTypeLiveEdit, FilePath: "scripts/menu.lua", Payload: []byte("print('hi')")},
		{Type: MessageTypeLiveEdit, FilePath: "settings/game.yaml", Payload: []byte("a: 1")},
		{Type: "unknown-type", FilePath: "ignored.lua"},
	})
	defer ts.Close()

	bridge := newTestBridge()
	channel, err := NewChannel(api.NewClient(ts.URL, "launcher"), bridge, fastPolicy())
	if err != nil {
		t.Fatalf("NewChannel() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- channel.Run(ctx) }()

	// Config edits surface as local reload events.
	select {
	case e := <-channel.Events():
		if e.Kind != EventConfigReload || e.Path != "settings/game.yaml" {
			t.Errorf("event = %+v, want config-reload for settings/game.yaml", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no config reload event received")
	}

	// Script edits go through the host reload capability.
	deadline := time.Now().Add(5 * time.Second)
	for bridge.reloadCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if bridge.reloadCount() != 1 {
		t.Fatalf("reloads = %d, want 1", bridge.reloadCount())
	}

	bridge.mu.Lock()
	if string(bridge.saved["scripts/menu.lua"]) != "print('hi')" {
		t.Error("script payload not written through bridge")
	}
	bridge.mu.Unlock()

	if got := channel.State(); got != StateConnected {
		t.Errorf("State() = %s, want connected", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop on context cancel")
	}
}

func TestChannelGivesUpAfterRetryBudget(t *testing.T) {
	// No server listening here.
	client := api.NewClient("http://127.0.0.1:1", "launcher")
	channel, err := NewChannel(client, newTestBridge(), Policy{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		MaxRetries:   2,
	})
	if err != nil {
		t.Fatalf("NewChannel() error = %v", err)
	}

	start := time.Now()
	err = channel.Run(context.Background())
	if err == nil {
		t.Fatal("expected Run() to give up")
	}
	if !strings.Contains(err.Error(), "gave up") {
		t.Errorf("err = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("retry budget not honored")
	}
	if channel.State() != StateDisconnected {
		t.Errorf("State() = %s, want disconnected", channel.State())
	}
}

func TestChannelPushRaisesOptimisticEvent(t *testing.T) {
	var body map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/updates/live-edit" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
	}))
	defer ts.Close()

	channel, err := NewChannel(api.NewClient(ts.URL, "launcher"), newTestBridge(), fastPolicy())
	if err != nil {
		t.Fatalf("NewChannel() error = %v", err)
	}

	content := []byte("local x = 1")
	if err := channel.Push(context.Background(), "scripts/x.lua", content); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	decoded, _ := base64.StdEncoding.DecodeString(body["content_base64"])
	if string(decoded) != string(content) {
		t.Errorf("pushed payload = %q, want %q", decoded, content)
	}

	select {
	case e := <-channel.Events():
		if e.Kind != EventFileUpdated || e.Path != "scripts/x.lua" {
			t.Errorf("event = %+v, want file-updated for scripts/x.lua", e)
		}
	default:
		t.Error("expected optimistic file-updated event")
	}
}

func TestChannelPushFailurePropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	channel, err := NewChannel(api.NewClient(ts.URL, "launcher"), newTestBridge(), fastPolicy())
	if err != nil {
		t.Fatalf("NewChannel() error = %v", err)
	}

	err = channel.Push(context.Background(), "a.lua", []byte("x"))
	var netErr *api.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *api.NetworkError, got %v", err)
	}

	select {
	case <-channel.Events():
		t.Error("failed push must not raise a local event")
	default:
	}
}
