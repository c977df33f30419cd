package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"tailbreeze/internal/config"
	"tailbreeze/internal/process"
	"tailbreeze/internal/tools"
	"tailbreeze/internal/tui"
	"tailbreeze/pkg/tailbreeze"
)

// runCLI executes the root command with fresh flag state and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	projectDir, configFile, envName, logLevel, outputJSON = "", "", "", "", false
	cleanDryRun, installPlain, configShowTOML = false, false, false
	t.Setenv(tools.CacheDirEnv, filepath.Join(t.TempDir(), "cache"))

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInitThenConfigShowAndCheck(t *testing.T) {
	root := t.TempDir()

	out, err := runCLI(t, "--project", root, "init", "--tool-version", "3.4.17")
	require.NoError(t, err)
	require.Contains(t, out, "Initialized project")
	require.FileExists(t, filepath.Join(root, "tailbreeze.yaml"))
	require.FileExists(t, filepath.Join(root, "tailwind.config.js"))

	out, err = runCLI(t, "--project", root, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "tool_version:")
	require.Contains(t, out, "3.4.17")

	out, err = runCLI(t, "--project", root, "config", "show", "--toml")
	require.NoError(t, err)
	require.Contains(t, out, "tool_version = ")

	out, err = runCLI(t, "--project", root, "--json", "config", "check")
	require.NoError(t, err)
	var results []config.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	for _, r := range results {
		require.NotEqual(t, "error", r.Level, r.Message)
	}
}

func TestConfigCheckFailsOnInvalidConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tailbreeze.yaml"), []byte("tool_version: banana\n"), 0o644))

	out, err := runCLI(t, "--project", root, "config", "check")
	require.Error(t, err)
	require.Contains(t, out, "tool_version")
}

func TestCommandsRejectInvalidConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tailbreeze.yaml"), []byte("serve_path: nope\n"), 0o644))

	_, err := runCLI(t, "--project", root, "tools", "list")
	require.Error(t, err)
	require.ErrorContains(t, err, "serve_path")
}

func TestToolsListEmptyCache(t *testing.T) {
	out, err := runCLI(t, "--project", t.TempDir(), "--json", "tools", "list")
	require.NoError(t, err)
	require.Equal(t, "[]", strings.TrimSpace(out))

	out, err = runCLI(t, "--project", t.TempDir(), "tools", "list")
	require.NoError(t, err)
	require.Contains(t, out, "(no cached versions)")
}

func TestVersionJSON(t *testing.T) {
	out, err := runCLI(t, "--json", "version")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, Version, info["version"])
	require.NotEmpty(t, info["v3"])
}

func TestCleanOutputDryRun(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(root, "wwwroot", "css", "app.css")
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0o755))
	require.NoError(t, os.WriteFile(output, []byte("body{}"), 0o644))

	out, err := runCLI(t, "--project", root, "clean", "output", "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, "would remove")
	require.FileExists(t, output)

	_, err = runCLI(t, "--project", root, "clean", "output")
	require.NoError(t, err)
	require.NoFileExists(t, output)
}

type scriptDownloader struct{ fail bool }

func (d scriptDownloader) Download(_ context.Context, _ string, w io.Writer) (int64, error) {
	if d.fail {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write([]byte("#!/bin/sh\nexit 0\n"))
	return int64(n), err
}

// helpRunner passes every self-check and build.
type helpRunner struct{}

func (helpRunner) Run(context.Context, string, []string, process.RunOptions) (int, error) {
	return 0, nil
}

func (helpRunner) StartWatch(context.Context, string, []string, process.RunOptions) (process.Watch, error) {
	return nil, io.EOF
}

func TestInstallVersionsReportsRows(t *testing.T) {
	prov, err := tools.NewProvisioner(t.TempDir(),
		tools.WithDownloader(scriptDownloader{}),
		tools.WithRunner(helpRunner{}),
		tools.WithPlatform("linux", "amd64"),
	)
	require.NoError(t, err)

	var mu sync.Mutex
	var updates []tui.RowUpdateMsg
	send := func(msg tea.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if u, ok := msg.(tui.RowUpdateMsg); ok {
			updates = append(updates, u)
		}
	}

	specs := []tools.VersionSpec{tools.MustParseVersion("4.1.0"), tools.MustParseVersion("4.1.0")}
	results := installVersions(context.Background(), prov, specs, send)
	require.Len(t, results, 2)
	require.Equal(t, "installed", results[0].Status)
	require.Equal(t, "cached", results[1].Status)
	require.Equal(t, results[0].Path, results[1].Path)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "resolving", updates[0].Fields["STATUS"])
	require.Equal(t, "cached", updates[len(updates)-1].Fields["STATUS"])
}

func TestInstallVersionsCarriesHints(t *testing.T) {
	prov, err := tools.NewProvisioner(t.TempDir(),
		tools.WithDownloader(scriptDownloader{fail: true}),
		tools.WithRunner(helpRunner{}),
		tools.WithPlatform("linux", "amd64"),
	)
	require.NoError(t, err)

	results := installVersions(context.Background(), prov, []tools.VersionSpec{tools.Latest()}, func(tea.Msg) {})
	require.Len(t, results, 1)
	require.Equal(t, "failed", results[0].Status)
	require.NotEmpty(t, results[0].Hints)
}

func TestPlainSender(t *testing.T) {
	var buf bytes.Buffer
	send := plainSender(&buf)
	send(tui.StatusUpdate("4.1.0", "installed", "/cache/4.1.0/tailwindcss"))
	send(tui.WorkDoneMsg{})
	require.Equal(t, "4.1.0      installed  /cache/4.1.0/tailwindcss\n", buf.String())
}

func TestServeRouter(t *testing.T) {
	root := t.TempDir()
	opts := config.Default()
	opts.CacheDir = t.TempDir()
	opts.EnableWatch = config.Bool(false)

	engine, err := tailbreeze.New(opts, tailbreeze.Environment{Name: "Development", ContentRoot: root},
		tailbreeze.WithRunner(helpRunner{}), tailbreeze.WithDownloader(scriptDownloader{}))
	require.NoError(t, err)
	require.NoError(t, engine.Start(context.Background()))

	webRoot := engine.Paths().WebRoot
	require.NoError(t, os.MkdirAll(webRoot, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(webRoot, "robots.txt"), []byte("User-agent: *"), 0o644))
	h := newServeRouter(engine, webRoot)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `href="/tailbreeze/app.css"`)

	rec = get("/robots.txt")
	require.Equal(t, "User-agent: *", rec.Body.String())

	rec = get("/tailbreeze/app.css")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = get("/healthz")
	require.Contains(t, rec.Body.String(), `"state":"disabled"`)

	rec = get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "tailbreeze_serve_requests_total")

	require.NoError(t, os.WriteFile(filepath.Join(webRoot, "index.html"), []byte("<p>mine</p>"), 0o644))
	rec = get("/")
	require.Equal(t, "<p>mine</p>", rec.Body.String())
}
