package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserClient(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "bill_a.pdf", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chunks":[{"text":"Total usage: 100 kWh","page":1}]}`))
	}))
	defer ts.Close()

	tmpDir := t.TempDir()
	pdfPath := filepath.Join(tmpDir, "bill_a.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	client, err := NewParserClient(ParserConfig{
		URL:    ts.URL,
		APIKey: "pk-test",
		OutDir: filepath.Join(tmpDir, "generic"),
	})
	require.NoError(t, err)

	outPath, err := client.Parse(context.Background(), pdfPath)
	require.NoError(t, err)

	assert.Equal(t, "Bearer pk-test", gotAuth)
	assert.Equal(t, filepath.Join(tmpDir, "generic", "bill_a.json"), outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total usage: 100 kWh")
}

func TestParserClientServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	tmpDir := t.TempDir()
	pdfPath := filepath.Join(tmpDir, "bill_a.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	client, err := NewParserClient(ParserConfig{
		URL:    ts.URL,
		APIKey: "pk-test",
		OutDir: tmpDir,
	})
	require.NoError(t, err)

	_, err = client.Parse(context.Background(), pdfPath)
	assert.Error(t, err)
}

func TestNewParserClientRequiresCredential(t *testing.T) {
	_, err := NewParserClient(ParserConfig{URL: "https://example.com"})
	assert.Error(t, err)

	_, err = NewParserClient(ParserConfig{APIKey: "pk"})
	assert.Error(t, err)
}
