package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturedIncident struct {
	Incident struct {
		Title       string `json:"title"`
		IncidentKey string `json:"incident_key"`
		Body        struct {
			Details string `json:"details"`
		} `json:"body"`
	} `json:"incident"`
}

func newNodeServer(t *testing.T, blockTime time.Time) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"result":{"block":{"header":{"height":"4242","time":%q},`+
			`"last_commit":{"signatures":[{"validator_address":%q}]}}}}`,
			blockTime.UTC().Format(time.RFC3339Nano), testValidator)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newPagerDutyServer(t *testing.T) (*httptest.Server, func() []capturedIncident) {
	t.Helper()
	var (
		mu        sync.Mutex
		incidents []capturedIncident
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var inc capturedIncident
		if err := json.NewDecoder(r.Body).Decode(&inc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		incidents = append(incidents, inc)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"incident":{"id":"PINC001"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedIncident {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedIncident(nil), incidents...)
	}
}

func TestEndToEnd_StaleBlockOpensIncident(t *testing.T) {
	node := newNodeServer(t, time.Now().Add(-2*time.Minute))
	pd, incidents := newPagerDutyServer(t)

	cfg := testConfig()
	cfg.Node.URL = node.URL
	cfg.Node.Timeout = 2 * time.Second
	cfg.PagerDuty.URL = pd.URL

	w, err := NewWatcher(cfg, Options{})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	report, err := w.CheckOnce(context.Background())
	if err != nil {
		t.Fatalf("CheckOnce failed: %v", err)
	}
	if report.Counters.LastHeight != 4242 {
		t.Errorf("expected height 4242, got %d", report.Counters.LastHeight)
	}

	// Second iteration falls inside the throttle window.
	if _, err := w.CheckOnce(context.Background()); err != nil {
		t.Fatalf("CheckOnce failed: %v", err)
	}

	got := incidents()
	if len(got) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(got))
	}
	if got[0].Incident.IncidentKey != "node-lag" {
		t.Errorf("unexpected incident key %q", got[0].Incident.IncidentKey)
	}
	if !strings.Contains(got[0].Incident.Body.Details, "testnet") {
		t.Errorf("details should name the chain: %q", got[0].Incident.Body.Details)
	}
	if !strings.Contains(got[0].Incident.Body.Details, w.InstanceID()) {
		t.Errorf("details should carry the instance id: %q", got[0].Incident.Body.Details)
	}
}

func TestEndToEnd_GracefulShutdown(t *testing.T) {
	node := newNodeServer(t, time.Now())
	pd, incidents := newPagerDutyServer(t)

	cfg := testConfig()
	cfg.Node.URL = node.URL
	cfg.Node.Timeout = 2 * time.Second
	cfg.PagerDuty.URL = pd.URL
	cfg.Monitor.PollInterval = 20 * time.Millisecond

	w, err := NewWatcher(cfg, Options{})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}

	if n := len(incidents()); n != 0 {
		t.Errorf("healthy node should not page, got %d incidents", n)
	}
}
