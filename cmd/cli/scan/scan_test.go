package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crucial707/hci-lending/cmd/cli/client"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards the output written from the controller's worker goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunScan_LoanOnConfirmedScan(t *testing.T) {
	var mu sync.Mutex
	var loanBodies []map[string]int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/assets/8":
			_ = json.NewEncoder(w).Encode(models.Asset{ID: 8, Name: "Osciloscopio Rigol", State: models.AssetAvailable})
		case r.Method == http.MethodPost && r.URL.Path == "/loans":
			assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
			var body map[string]int
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			loanBodies = append(loanBodies, body)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.Loan{ID: 31, AssetID: 8, BorrowerID: 7})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := &client.Client{BaseURL: srv.URL, Token: "tok", HTTP: srv.Client()}
	out := &syncBuffer{}
	in := strings.NewReader("not a label\nequipos://detalles/8\n")

	err := runScan(context.Background(), c, scanOpts{action: actionLoan, borrowerID: 7, yes: true, cooldown: 2}, in, out)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, loanBodies, 1)
	assert.Equal(t, map[string]int{"asset_id": 8, "borrower_id": 7}, loanBodies[0])
	assert.Contains(t, out.String(), `ignored "not a label"`)
	assert.Contains(t, out.String(), "Loan 31 created")
}

// slowLendingServer answers asset lookups after a delay and counts created loans.
func slowLendingServer(t *testing.T, lookupDelay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var loans atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/assets/8":
			time.Sleep(lookupDelay)
			_ = json.NewEncoder(w).Encode(models.Asset{ID: 8, Name: "Osciloscopio Rigol", State: models.AssetAvailable})
		case r.Method == http.MethodPost && r.URL.Path == "/loans":
			n := loans.Add(1)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.Loan{ID: 30 + int(n), AssetID: 8, BorrowerID: 7})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &loans
}

func TestRunScan_PipedAnswerDuringSlowLookup(t *testing.T) {
	srv, loans := slowLendingServer(t, 20*time.Millisecond)
	c := &client.Client{BaseURL: srv.URL, Token: "tok", HTTP: srv.Client()}
	out := &syncBuffer{}

	err := runScan(context.Background(), c, scanOpts{action: actionLoan, borrowerID: 7}, strings.NewReader("8\ny\n"), out)
	require.NoError(t, err)

	assert.Equal(t, int32(1), loans.Load())
	assert.Contains(t, out.String(), "Accept? [y/N]")
	assert.Contains(t, out.String(), "Loan 31 created")
}

func TestRunScan_DeclineThenAccept(t *testing.T) {
	srv, loans := slowLendingServer(t, 5*time.Millisecond)
	c := &client.Client{BaseURL: srv.URL, Token: "tok", HTTP: srv.Client()}
	out := &syncBuffer{}

	err := runScan(context.Background(), c, scanOpts{action: actionLoan, borrowerID: 7}, strings.NewReader("8\nn\n8\ny\n"), out)
	require.NoError(t, err)

	assert.Equal(t, int32(1), loans.Load())
	assert.Equal(t, 2, strings.Count(out.String(), "Accept? [y/N]"))
}

func TestRunScan_UnknownAssetIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"asset 404 not found","code":"asset_not_found"}`))
	}))
	defer srv.Close()

	c := &client.Client{BaseURL: srv.URL, Token: "tok", HTTP: srv.Client()}
	out := &syncBuffer{}

	err := runScan(context.Background(), c, scanOpts{action: actionShow, yes: true}, strings.NewReader("404\n"), out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "asset 404 not found")
}

func TestScanCmd_ValidatesFlags(t *testing.T) {
	cmd := scanCmd()
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"--action", "loan"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "--borrower is required")

	cmd = scanCmd()
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"--action", "maintenance", "--type", "cosmetic"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "invalid --type")
}
