package main

import (
	"archive/zip"
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thesisgen/internal/config"
	"thesisgen/internal/thesis"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	// a nil slice would make cobra fall back to os.Args
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuild_DefaultsInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "4 placeholder image(s) created")
	assert.Contains(t, out, "SkripsiBelumFix.docx")

	for _, f := range thesis.Figures {
		assert.FileExists(t, filepath.Join(dir, f.Name))
	}

	zr, err := zip.OpenReader(filepath.Join(dir, "SkripsiBelumFix.docx"))
	require.NoError(t, err)
	defer zr.Close()
	media := 0
	for _, f := range zr.File {
		if filepath.Dir(f.Name) == "word/media" {
			media++
		}
	}
	assert.Equal(t, 4, media)
}

func TestBuild_ExistingFiguresAreKept(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")

	_, err := execute(t, "placeholders")
	require.NoError(t, err)
	first := filepath.Join(dir, thesis.Figures[0].Name)
	before, err := os.ReadFile(first)
	require.NoError(t, err)

	out, err := execute(t, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "0 placeholder image(s) created")
	after, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBuild_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
output:
  path: "from-config.docx"
document:
  font_name: "Cambria"
logger:
  file: "`+filepath.Join(dir, "thesisgen.log")+`"
  level: "debug"
`), 0o644))

	figs := filepath.Join(dir, "figs")
	outPath := filepath.Join(dir, "build", "preview.html")
	_, err := execute(t, "--config", cfgPath, "--figures-dir", figs, "-o", outPath)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "from-config.docx"))
	assert.FileExists(t, filepath.Join(figs, thesis.Figures[3].Name))
	html, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), `font-family: "Cambria"`)
	assert.FileExists(t, filepath.Join(dir, "thesisgen.log"))
}

func TestBuild_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")

	_, err := execute(t, "--output", "thesis.odt")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "thesis.odt"))
}

func TestBuild_RejectsArguments(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "build", "extra")
	assert.Error(t, err)
}

func TestLoad_InvalidConfigPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pdf:\n  margin: 9\n"), 0o644))
	opts := &rootOptions{configPath: path}
	assert.Panics(t, func() { opts.load() })
}

func TestLoad_ChromeBinEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CHROME_BIN", "/opt/chrome/chrome")
	cfg := (&rootOptions{}).load()
	assert.Equal(t, "/opt/chrome/chrome", cfg.PDF.ChromePath)
}

func TestStartServer_GracefulShutdownOnSignal(t *testing.T) {
	app := fiber.New()
	var cfg config.Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":0"

	idleConnsClosed := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- startServer(app, cfg, idleConnsClosed) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-idleConnsClosed:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for graceful shutdown")
	}
	assert.NoError(t, <-done)
}

// busyPort holds a TCP port for the duration of the test.
func busyPort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
}

func TestStartServer_ListenErrorIsReturned(t *testing.T) {
	var cfg config.Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":" + busyPort(t)

	idleConnsClosed := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- startServer(fiber.New(), cfg, idleConnsClosed) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), cfg.Server.Port)
	case <-time.After(3 * time.Second):
		t.Fatalf("startServer kept running after the listener failed")
	}
	select {
	case <-idleConnsClosed:
	default:
		t.Fatalf("idleConnsClosed left open after a listen error")
	}
}

func TestServe_PortInUseFails(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgPath := filepath.Join(dir, "serve.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  host: "127.0.0.1"
  port: ":`+busyPort(t)+`"
cache:
  document_cache_enabled: false
  redis_host: ""
logger:
  file: "`+filepath.Join(dir, "thesisgen.log")+`"
`), 0o644))

	done := make(chan error, 1)
	go func() {
		_, err := execute(t, "serve", "--config", cfgPath)
		done <- err
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("serve kept running on a port already in use")
	}
}
