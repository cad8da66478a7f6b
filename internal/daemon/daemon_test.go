package daemon

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/config"
	"github.com/matheus3301/wppmcp/internal/lock"
	"github.com/matheus3301/wppmcp/internal/store"
)

func testStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "messages.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	return db
}

func testRouter(t *testing.T, db *store.DB) http.Handler {
	t.Helper()
	mcpStub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			t.Error("mcp handler lost http.Flusher")
		}
		w.WriteHeader(http.StatusAccepted)
	})
	return NewRouter(mcpStub, db, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	db := testStore(t)
	router := testRouter(t, db)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}

	_ = db.Close()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status after close = %d, want 503", rec.Code)
	}
}

func TestMCPRouteKeepsFlusher(t *testing.T) {
	router := testRouter(t, testStore(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t, testStore(t))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		`wppmcp_http_requests_total{method="GET",path="/healthz",status="200"}`,
		`wppmcp_http_requests_total{method="GET",path="other",status="404"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/mcp", "/mcp"},
		{"/metrics", "/metrics"},
		{"/healthz", "/healthz"},
		{"/mcp/extra", "other"},
		{"/", "other"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()

	w, err := sql.Open("sqlite3", filepath.Join(dir, "whatsapp.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Exec(`CREATE TABLE whatsmeow_contacts (our_jid TEXT, their_jid TEXT,
		first_name TEXT, full_name TEXT, push_name TEXT, business_name TEXT)`); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	cfg := config.Default()
	cfg.MessagesDB = filepath.Join(dir, "messages.db")
	cfg.WhatsAppDB = filepath.Join(dir, "whatsapp.db")
	cfg.LogFile = ""
	cfg.LogLevel = "error"
	cfg.Transport = config.TransportHTTP
	cfg.ListenAddr = "127.0.0.1:0"
	return cfg, dir
}

func TestModuleServesHTTP(t *testing.T) {
	cfg, dir := testConfig(t)
	lockDir := filepath.Join(dir, "run")

	var hs *HTTPServer
	app := fx.New(
		Module(Params{Config: cfg, Version: "test", LockDir: lockDir}),
		fx.Populate(&hs),
	)
	if err := app.Err(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	info, err := lock.Holder(lockDir)
	if err != nil || info == nil {
		t.Fatalf("Holder() = %v, %v, want running server", info, err)
	}
	if info.Addr != cfg.ListenAddr {
		t.Errorf("lock addr = %q", info.Addr)
	}

	resp, err := http.Get("http://" + hs.Addr() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if info, _ := lock.Holder(lockDir); info != nil {
		t.Errorf("lock still held after stop: %+v", info)
	}
}

func TestModuleRefusesSecondHTTPServer(t *testing.T) {
	cfg, dir := testConfig(t)
	lockDir := filepath.Join(dir, "run")

	held, err := lock.Acquire(lockDir, "127.0.0.1:9999")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = held.Release() }()

	app := fx.New(Module(Params{Config: cfg, Version: "test", LockDir: lockDir}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = app.Start(ctx)
	if err == nil {
		_ = app.Stop(ctx)
		t.Fatal("Start() should fail while the lock is held")
	}
	if !strings.Contains(err.Error(), "already serving on 127.0.0.1:9999") {
		t.Errorf("error = %v", err)
	}
}

func TestModuleFailsWithoutRoster(t *testing.T) {
	cfg, dir := testConfig(t)
	cfg.WhatsAppDB = filepath.Join(dir, "missing.db")

	app := fx.New(Module(Params{Config: cfg, Version: "test", LockDir: dir}))
	if app.Err() == nil {
		t.Fatal("expected construction error for a missing whatsapp.db")
	}
}
