package tickers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "FinScreen/pkg/http"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFileProviderReadsGroups(t *testing.T) {
	path := writeFile(t, `
ALL: [AAPL, " msft ", AAPL, ""]
otc:
  - GRLT
`)
	lists, err := NewFileProvider(path).TickerLists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, lists["ALL"])
	assert.Equal(t, []string{"GRLT"}, lists["OTC"])
}

func TestFileProviderErrors(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "missing.yaml")).TickerLists(context.Background())
	assert.Error(t, err)

	_, err = NewFileProvider(writeFile(t, "ALL: {not: a list}")).TickerLists(context.Background())
	assert.Error(t, err)

	_, err = NewFileProvider(writeFile(t, "")).TickerLists(context.Background())
	assert.Error(t, err)
}

func TestHTTPProviderFetchesGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ALL":["AAPL","TSLA"],"SPAC":["DWAC"]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, xhttp.NewClient(xhttp.WithTimeout(time.Second)))
	lists, err := p.TickerLists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA"}, lists["ALL"])
	assert.Equal(t, []string{"DWAC"}, lists["SPAC"])
}

func TestHTTPProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, xhttp.NewClient()).TickerLists(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
