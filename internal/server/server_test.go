package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/honeyfile/internal/auth"
	"github.com/mmynk/honeyfile/internal/catalog"
	"github.com/mmynk/honeyfile/internal/metrics"
	"github.com/mmynk/honeyfile/internal/service"
	"github.com/mmynk/honeyfile/internal/settlement"
	"github.com/mmynk/honeyfile/internal/stats"
	"github.com/mmynk/honeyfile/internal/storage/sqlite"
)

func setupServer(t *testing.T, ping func(*http.Request) error) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	engine := settlement.NewEngine(store, settlement.Config{UploadBonus: 50}, m, logger)
	files := catalog.New(store, engine, catalog.Config{DefaultPrice: 10}, m, logger)
	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)

	if ping == nil {
		ping = func(r *http.Request) error { return store.Ping(r.Context()) }
	}

	srv := httptest.NewServer(NewHandler(Deps{
		Auth:     service.NewAuthService(auth.NewPasswordAuthenticator(store, 1000), jwtManager, logger),
		Ledger:   service.NewLedgerService(engine, stats.NewAggregator(store, logger), logger),
		Files:    service.NewFileService(files, logger),
		JWT:      jwtManager,
		Gatherer: reg,
		Ping:     ping,
		Logger:   logger,
	}))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := setupServer(t, nil)
		code, body := get(t, srv.URL+"/health")
		if code != http.StatusOK || !strings.Contains(body, `"ok"`) {
			t.Errorf("got %d %s", code, body)
		}
	})

	t.Run("storage down", func(t *testing.T) {
		srv := setupServer(t, func(*http.Request) error { return errors.New("closed") })
		code, body := get(t, srv.URL+"/health")
		if code != http.StatusServiceUnavailable || !strings.Contains(body, "unavailable") {
			t.Errorf("got %d %s", code, body)
		}
	})
}

func TestRPCThroughRouter(t *testing.T) {
	srv := setupServer(t, nil)
	client := service.NewClient(http.DefaultClient, srv.URL)
	ctx := context.Background()

	session, err := client.Register.CallUnary(ctx, connect.NewRequest(&service.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = client.GetBalance.CallUnary(ctx, connect.NewRequest(&service.GetBalanceRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("code = %v, want Unauthenticated", connect.CodeOf(err))
	}

	req := connect.NewRequest(&service.PublishFileRequest{Name: "clip.mp4", Size: 10})
	req.Header().Set("Authorization", "Bearer "+session.Msg.Token)
	if _, err := client.PublishFile.CallUnary(ctx, req); err != nil {
		t.Fatalf("PublishFile failed: %v", err)
	}

	code, body := get(t, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics status = %d", code)
	}
	for _, name := range []string{"honeyfile_points_total", "honeyfile_upload_rollbacks_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := setupServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/"+service.LedgerServiceName+"/GetBalance", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}
