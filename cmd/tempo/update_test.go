package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tarGz returns a gzipped tarball with the given regular files.
func tarGz(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range entries {
		hdr := &tar.Header{
			Name:     name,
			Size:     int64(len(content)),
			Mode:     0o755,
			Typeflag: tar.TypeReg,
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestExtractBinary(t *testing.T) {
	dir := t.TempDir()

	t.Run("finds the binary in a subdirectory", func(t *testing.T) {
		tarPath := filepath.Join(dir, "ok.tar.gz")
		writeFile(t, tarPath, tarGz(t, map[string]string{
			"README.md":         "docs",
			"tempo_1.2.0/tempo": "new binary",
		}))
		dest := filepath.Join(dir, "tempo-out")
		require.NoError(t, extractBinary(tarPath, dest))
		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "new binary", string(got))
	})

	t.Run("missing binary", func(t *testing.T) {
		tarPath := filepath.Join(dir, "empty.tar.gz")
		writeFile(t, tarPath, tarGz(t, map[string]string{"LICENSE": "mit"}))
		err := extractBinary(tarPath, filepath.Join(dir, "nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("not gzip", func(t *testing.T) {
		tarPath := filepath.Join(dir, "plain.tar.gz")
		writeFile(t, tarPath, []byte("plain text"))
		require.Error(t, extractBinary(tarPath, filepath.Join(dir, "nope")))
	})
}

func TestVerifyChecksum(t *testing.T) {
	dir := t.TempDir()
	data := []byte("release tarball")
	file := filepath.Join(dir, "tempo_linux_amd64.tar.gz")
	writeFile(t, file, data)

	sums := filepath.Join(dir, "checksums.txt")
	writeFile(t, sums, []byte(fmt.Sprintf("%s  tempo_linux_amd64.tar.gz.sbom\n%s  tempo_linux_amd64.tar.gz\n",
		strings.Repeat("0", 64), sha256Hex(data))))
	require.NoError(t, verifyChecksum(file, sums, "tempo_linux_amd64.tar.gz"))

	writeFile(t, sums, []byte(strings.Repeat("a", 64)+"  tempo_linux_amd64.tar.gz\n"))
	err := verifyChecksum(file, sums, "tempo_linux_amd64.tar.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	err = verifyChecksum(file, sums, "tempo_darwin_arm64.tar.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checksum found")
}

// releaseServer serves a release with a tarball and, unless omitted, its
// checksums.
type releaseServer struct {
	tag       string
	tarball   []byte
	checksums bool
}

func (rs releaseServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		rel := ghRelease{TagName: rs.tag}
		add := func(name string) {
			rel.Assets = append(rel.Assets, struct {
				Name               string `json:"name"`
				BrowserDownloadURL string `json:"browser_download_url"`
			}{name, srv.URL + "/download/" + name})
		}
		add("tempo_linux_amd64.tar.gz")
		if rs.checksums {
			add("checksums.txt")
		}
		_ = json.NewEncoder(w).Encode(rel)
	})
	mux.HandleFunc("/download/tempo_linux_amd64.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(rs.tarball)
	})
	mux.HandleFunc("/download/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  tempo_linux_amd64.tar.gz\n", sha256Hex(rs.tarball))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestUpdater(t *testing.T, srv *httptest.Server) *updater {
	t.Helper()
	execPath := filepath.Join(t.TempDir(), "tempo")
	writeFile(t, execPath, []byte("old binary"))
	return &updater{
		httpClient: srv.Client(),
		releaseURL: srv.URL + "/latest",
		execPath:   execPath,
		goos:       "linux",
		goarch:     "amd64",
		log:        zerolog.Nop(),
	}
}

func TestUpdaterInstallsNewerRelease(t *testing.T) {
	srv := releaseServer{
		tag:       "v1.3.0",
		tarball:   tarGz(t, map[string]string{"tempo": "new binary"}),
		checksums: true,
	}.start(t)
	u := newTestUpdater(t, srv)

	res, err := u.Run(context.Background(), "1.2.0")
	require.NoError(t, err)
	assert.Equal(t, updateResult{From: "v1.2.0", To: "v1.3.0", Updated: true}, res)

	got, err := os.ReadFile(u.execPath)
	require.NoError(t, err)
	assert.Equal(t, "new binary", string(got))
	_, err = os.Stat(u.execPath + ".new")
	assert.True(t, os.IsNotExist(err), "staged binary should be cleaned up")
}

func TestUpdaterAlreadyCurrent(t *testing.T) {
	srv := releaseServer{tag: "v1.2.0", checksums: true}.start(t)
	u := newTestUpdater(t, srv)

	res, err := u.Run(context.Background(), "v1.2.0")
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, "v1.2.0", res.To)

	got, err := os.ReadFile(u.execPath)
	require.NoError(t, err)
	assert.Equal(t, "old binary", string(got))
}

func TestUpdaterRequiresChecksums(t *testing.T) {
	srv := releaseServer{
		tag:     "v2.0.0",
		tarball: tarGz(t, map[string]string{"tempo": "new binary"}),
	}.start(t)
	u := newTestUpdater(t, srv)

	_, err := u.Run(context.Background(), "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksums.txt")

	got, err := os.ReadFile(u.execPath)
	require.NoError(t, err)
	assert.Equal(t, "old binary", string(got))
}

func TestUpdaterNoAssetForPlatform(t *testing.T) {
	srv := releaseServer{tag: "v2.0.0", checksums: true}.start(t)
	u := newTestUpdater(t, srv)
	u.goos = "plan9"

	_, err := u.Run(context.Background(), "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tempo_plan9_amd64.tar.gz")
}

func TestUpdaterDevBuild(t *testing.T) {
	u := &updater{log: zerolog.Nop()}
	_, err := u.Run(context.Background(), "dev")
	assert.ErrorIs(t, err, errDevBuild)
}

func TestUpdaterReleaseAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	u := newTestUpdater(t, srv)

	_, err := u.Run(context.Background(), "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestUpdateMessages(t *testing.T) {
	var buf bytes.Buffer
	printUpdateSuccess(&buf, "v1.0.0", "v1.1.0")
	assert.Contains(t, buf.String(), "v1.0.0")
	assert.Contains(t, buf.String(), "v1.1.0")

	buf.Reset()
	printAlreadyCurrent(&buf, "v1.1.0")
	assert.Contains(t, buf.String(), "current")
}
