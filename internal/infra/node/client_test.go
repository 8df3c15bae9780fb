package node

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/sigwatch/internal/core/domain"
)

const blockJSON = `{
  "jsonrpc": "2.0",
  "id": -1,
  "result": {
    "block_id": {"hash": "AB12"},
    "block": {
      "header": {"chain_id": "osmosis-1", "height": "1234567", "time": "2024-03-01T10:00:00.123456789Z"},
      "last_commit": {
        "height": "1234566",
        "signatures": [
          {"block_id_flag": 2, "validator_address": "AAAA1111", "signature": "sig1"},
          {"block_id_flag": 1, "validator_address": "", "signature": null},
          {"block_id_flag": 2, "validatorAddress": "BBBB2222", "signature": "sig2"}
        ]
      }
    }
  }
}`

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchLatestBlock(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, blockJSON)
	client := NewClient(srv.URL, time.Second)

	snap, err := client.FetchLatestBlock(context.Background())
	if err != nil {
		t.Fatalf("FetchLatestBlock failed: %v", err)
	}

	if snap.Height != 1234567 {
		t.Errorf("expected height 1234567, got %d", snap.Height)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	if !snap.Time.Equal(want) {
		t.Errorf("expected time %v, got %v", want, snap.Time)
	}
	if len(snap.Signers) != 2 {
		t.Fatalf("expected 2 signers, got %d", len(snap.Signers))
	}
	if !snap.SignedBy("AAAA1111") || !snap.SignedBy("BBBB2222") {
		t.Errorf("expected both validator address spellings to be read, got %v", snap.Signers)
	}
	if snap.SignedBy("aaaa1111") {
		t.Error("address match must be case-sensitive")
	}
}

func TestFetchLatestBlock_NonOK(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, "node is syncing")
	client := NewClient(srv.URL, time.Second)

	_, err := client.FetchLatestBlock(context.Background())
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if domain.KindOf(err) != domain.KindFetch {
		t.Errorf("expected fetch error, got %s", domain.KindOf(err))
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "node is syncing") {
		t.Errorf("error should carry status and body, got %q", err.Error())
	}
}

func TestFetchLatestBlock_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"bad time", `{"result":{"block":{"header":{"height":"1","time":"yesterday"},"last_commit":{"signatures":[]}}}}`},
		{"bad height", `{"result":{"block":{"header":{"height":"abc","time":"2024-03-01T10:00:00Z"}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, tt.body)
			_, err := NewClient(srv.URL, time.Second).FetchLatestBlock(context.Background())
			if domain.KindOf(err) != domain.KindFetch {
				t.Errorf("expected fetch error, got %v", err)
			}
		})
	}
}

func TestFetchLatestBlock_MissingFields(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"result":{"block":{"header":{"height":"7"}}}}`)

	snap, err := NewClient(srv.URL, time.Second).FetchLatestBlock(context.Background())
	if err != nil {
		t.Fatalf("missing fields should be left for the evaluator, got %v", err)
	}
	if !snap.Time.IsZero() {
		t.Errorf("expected zero time, got %v", snap.Time)
	}
	if snap.Signers != nil {
		t.Errorf("expected nil signer set, got %v", snap.Signers)
	}
}

func TestFetchLatestBlock_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 50*time.Millisecond).FetchLatestBlock(context.Background())
	if domain.KindOf(err) != domain.KindFetch {
		t.Errorf("expected fetch error on timeout, got %v", err)
	}
}
