package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rivenlabs/patchd/internal/api"
)

func TestRollbackPostsThenRestarts(t *testing.T) {
	var gotPath, gotMethod string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"status":"whatever"}`))
	}))
	defer ts.Close()

	bridge := newFakeBridge("1.1.0")
	r := NewRollback(api.NewClient(ts.URL, "launcher"), bridge)

	if err := r.RollbackVersion(context.Background(), "1.0.0"); err != nil {
		t.Fatalf("RollbackVersion() error = %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/updates/rollback/1.0.0" {
		t.Errorf("request = %s %s, want POST /updates/rollback/1.0.0", gotMethod, gotPath)
	}
	if !bridge.restarted {
		t.Error("host restart must follow the rollback request")
	}
}

func TestRollbackRestartsEvenWhenPostFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	bridge := newFakeBridge("1.1.0")
	r := NewRollback(api.NewClient(ts.URL, "launcher"), bridge)

	if err := r.RollbackVersion(context.Background(), "1.0.0"); err != nil {
		t.Fatalf("RollbackVersion() error = %v", err)
	}
	if !bridge.restarted {
		t.Error("restart is unconditional; a failed POST must not prevent it")
	}
}
