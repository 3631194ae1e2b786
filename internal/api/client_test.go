package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://example.test/", "launcher")
	if c.BaseURL() != "http://example.test" {
		t.Errorf("BaseURL() = %s, want http://example.test", c.BaseURL())
	}
}

func TestFetchFileEscapesNestedPaths(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("bytes"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "launcher")
	data, err := c.FetchFile(context.Background(), "scripts/sub dir/a.lua")
	if err != nil {
		t.Fatalf("FetchFile() error = %v", err)
	}
	if string(data) != "bytes" {
		t.Errorf("data = %q", data)
	}
	if gotPath != "/updates/files/scripts/sub dir/a.lua" {
		t.Errorf("server saw path %q", gotPath)
	}
}

func TestFetchFileNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer ts.Close()

	c := NewClient(ts.URL, "launcher")
	_, err := c.FetchFile(context.Background(), "missing.txt")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
	if !netErr.IsNotFound() {
		t.Errorf("StatusCode = %d, want 404", netErr.StatusCode)
	}
}

func TestPushLiveEditEncodesBase64(t *testing.T) {
	content := []byte{0x00, 0x01, 0xff, 'a'}
	var body map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/updates/live-edit" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "launcher")
	if err := c.PushLiveEdit(context.Background(), "scripts/a.lua", content); err != nil {
		t.Fatalf("PushLiveEdit() error = %v", err)
	}

	if body["file_path"] != "scripts/a.lua" {
		t.Errorf("file_path = %s", body["file_path"])
	}
	decoded, err := base64.StdEncoding.DecodeString(body["content_base64"])
	if err != nil {
		t.Fatalf("content_base64 is not valid base64: %v", err)
	}
	if string(decoded) != string(content) {
		t.Errorf("decoded payload = %v, want %v", decoded, content)
	}
}

func TestFetchDeltaPrefersV2(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/updates/delta" {
			t.Errorf("path = %s, want /v2/updates/delta", r.URL.Path)
		}
		if r.URL.Query().Get("from") != "1.0.0" || r.URL.Query().Get("to") != "1.1.0" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"from_version":"1.0.0","to_version":"1.1.0"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "launcher")
	patch, err := c.FetchDelta(context.Background(), "1.0.0", "1.1.0")
	if err != nil {
		t.Fatalf("FetchDelta() error = %v", err)
	}
	if patch.FromVersion != "1.0.0" {
		t.Errorf("FromVersion = %s", patch.FromVersion)
	}
}

func TestFetchDeltaLegacyFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/updates/delta", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	legacyHit := false
	mux.HandleFunc("/updates/delta", func(w http.ResponseWriter, r *http.Request) {
		legacyHit = true
		_, _ = w.Write([]byte(`{"from_version":"1.0.0","to_version":"1.1.0"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(ts.URL, "launcher")
	if _, err := c.FetchDelta(context.Background(), "1.0.0", "1.1.0"); err != nil {
		t.Fatalf("FetchDelta() error = %v", err)
	}
	if !legacyHit {
		t.Error("legacy endpoint was not tried")
	}
}

func TestFetchDeltaBothEndpointsFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "launcher")
	_, err := c.FetchDelta(context.Background(), "1.0.0", "1.1.0")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
	if netErr.Op != "delta-legacy" {
		t.Errorf("Op = %s, want delta-legacy (the final attempt)", netErr.Op)
	}
}
