package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/componentry/wkg/config"
	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/fetch"
	"github.com/componentry/wkg/internal/httpclient"
	"github.com/componentry/wkg/registry"
)

const testWitText = "package wasi:cli@0.2.0;\n\nworld command {\n}\n"

// witPackageBinary is a component binary whose "wit" custom section carries
// testWitText.
func witPackageBinary(t *testing.T) []byte {
	t.Helper()
	payload := append([]byte{0x03, 'w', 'i', 't'}, testWitText...)
	require.Less(t, len(payload), 0x80)

	binary := []byte{0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00}
	binary = append(binary, 0x00, byte(len(payload)))
	return append(binary, payload...)
}

// newTestClient stands up an httptest registry serving one wasi:cli release
// and returns a registry client pointed at it.
func newTestClient(t *testing.T, content []byte) registry.Client {
	t.Helper()

	digest := sha256.Sum256(content)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/packages/wasi/cli/releases", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"releases":[{"version":"0.1.0","yanked":true},{"version":"0.2.0","yanked":false}]}`)
	})
	mux.HandleFunc("/v1/packages/wasi/cli/releases/0.2.0", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":"0.2.0","content_digest":"sha256:%s","content_url":"content/wasi/cli/0.2.0"}`,
			hex.EncodeToString(digest[:]))
	})
	mux.HandleFunc("/content/wasi/cli/0.2.0", func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.SetNamespaceRegistry("wasi", srv.URL)
	return registry.NewHTTPClientWith(cfg, httpclient.WrapClient(srv.Client()))
}

func TestGetAutoDirModeWritesWit(t *testing.T) {
	client := newTestClient(t, witPackageBinary(t))
	dir := t.TempDir()

	err := runGet(context.Background(), getOptions{
		packageSpec: "wasi:cli",
		output:      dir + "/",
		format:      fetch.FormatAuto,
		client:      client,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "wasi_cli@0.2.0.wit"))
	require.NoError(t, err)
	assert.Equal(t, testWitText, string(got))
}

func TestGetForcedWasmKeepsBinary(t *testing.T) {
	content := witPackageBinary(t)
	client := newTestClient(t, content)
	dir := t.TempDir()

	err := runGet(context.Background(), getOptions{
		packageSpec: "wasi:cli@0.2.0",
		output:      dir + "/",
		format:      fetch.FormatWasm,
		client:      client,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "wasi_cli@0.2.0.wasm"))
	require.NoError(t, err)
	assert.Equal(t, content, got, "forced wasm output must be the raw binary")
}

func TestGetExplicitOutputPath(t *testing.T) {
	client := newTestClient(t, witPackageBinary(t))
	out := filepath.Join(t.TempDir(), "cli.wasm")

	err := runGet(context.Background(), getOptions{
		packageSpec: "wasi:cli",
		output:      out,
		format:      fetch.FormatAuto,
		client:      client,
	})
	require.NoError(t, err)

	// .wasm extension forces raw binary despite decodable content
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, witPackageBinary(t), got)
}

func TestGetRefusesExistingOutput(t *testing.T) {
	client := newTestClient(t, witPackageBinary(t))
	dir := t.TempDir()
	opts := getOptions{
		packageSpec: "wasi:cli",
		output:      dir + "/",
		format:      fetch.FormatAuto,
		client:      client,
	}

	require.NoError(t, runGet(context.Background(), opts))

	err := runGet(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.IsOutputExists(err))

	opts.overwrite = true
	require.NoError(t, runGet(context.Background(), opts))

	// No temp files left behind in any of the three runs
	leftovers, err := filepath.Glob(filepath.Join(dir, fetch.TempPrefix+"*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestGetInvalidSpec(t *testing.T) {
	err := runGet(context.Background(), getOptions{
		packageSpec: "not-a-ref",
		output:      t.TempDir() + "/",
		client:      newTestClient(t, nil),
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidReference(err))
}

func TestGetUnknownPackage(t *testing.T) {
	err := runGet(context.Background(), getOptions{
		packageSpec: "wasi:missing",
		output:      t.TempDir() + "/",
		client:      newTestClient(t, nil),
	})
	require.Error(t, err)
	assert.True(t, errors.IsNoReleases(err))
}

func TestGetForcedWitDecodeFailureFatal(t *testing.T) {
	client := newTestClient(t, []byte("definitely not wasm"))
	dir := t.TempDir()

	err := runGet(context.Background(), getOptions{
		packageSpec: "wasi:cli",
		output:      dir + "/",
		format:      fetch.FormatWit,
		client:      client,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDecode))

	// Fatal decode leaves nothing behind
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestGetAutoUndetectableFallsBackToBinary(t *testing.T) {
	content := []byte("opaque artifact bytes")
	client := newTestClient(t, content)
	dir := t.TempDir()

	err := runGet(context.Background(), getOptions{
		packageSpec: "wasi:cli",
		output:      dir + "/",
		format:      fetch.FormatAuto,
		client:      client,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "wasi_cli@0.2.0.wasm"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
