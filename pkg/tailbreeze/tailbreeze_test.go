package tailbreeze

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"tailbreeze/internal/config"
	"tailbreeze/internal/process"
	"tailbreeze/internal/supervisor"
)

type scriptDownloader struct{}

func (scriptDownloader) Download(_ context.Context, _ string, w io.Writer) (int64, error) {
	n, err := w.Write([]byte("#!/bin/sh\nexit 0\n"))
	return int64(n), err
}

type stubWatch struct {
	once sync.Once
	done chan struct{}
}

func (w *stubWatch) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}

func (w *stubWatch) Done() <-chan struct{} { return w.done }

// stubRunner passes self-checks and writes the -o target for builds.
type stubRunner struct {
	mu      sync.Mutex
	watches []*stubWatch
	builds  [][]string
}

func (r *stubRunner) Run(_ context.Context, _ string, args []string, _ process.RunOptions) (int, error) {
	if slices.Equal(args, []string{"--help"}) {
		return 0, nil
	}
	r.mu.Lock()
	r.builds = append(r.builds, args)
	r.mu.Unlock()
	if i := slices.Index(args, "-o"); i >= 0 {
		if err := os.WriteFile(args[i+1], []byte("body{}"), 0o644); err != nil {
			return -1, err
		}
	}
	return 0, nil
}

func (r *stubRunner) StartWatch(context.Context, string, []string, process.RunOptions) (process.Watch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := &stubWatch{done: make(chan struct{})}
	r.watches = append(r.watches, w)
	return w, nil
}

func newEngine(t *testing.T, envName string, mutate func(*Options)) (*Engine, *stubRunner) {
	t.Helper()
	opts := config.Default()
	opts.CacheDir = t.TempDir()
	if mutate != nil {
		mutate(&opts)
	}
	runner := &stubRunner{}
	e, err := New(opts, Environment{Name: envName, ContentRoot: t.TempDir()},
		WithRunner(runner), WithDownloader(scriptDownloader{}))
	require.NoError(t, err)
	return e, runner
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := config.Default()
	opts.ToolVersion = "banana"
	_, err := New(opts, Environment{ContentRoot: t.TempDir()})
	require.Error(t, err)
}

func TestEngineLifecycleAndServing(t *testing.T) {
	e, runner := newEngine(t, "Development", nil)

	require.NoError(t, e.Start(context.Background()))
	require.Equal(t, supervisor.Watching, e.State())
	require.Len(t, runner.watches, 1)
	require.FileExists(t, e.Paths().Input)

	r := chi.NewRouter()
	e.Register(r)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "home") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, e.StylesheetPath(), nil))
	require.Equal(t, http.StatusFound, rec.Code)

	require.NoError(t, os.WriteFile(e.Paths().Output, []byte("body{}"), 0o644))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, e.StylesheetPath(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "home", rec.Body.String())

	e.Stop(context.Background())
	e.Stop(context.Background())
	require.Equal(t, supervisor.Stopped, e.State())
	select {
	case <-runner.watches[0].Done():
	default:
		t.Fatal("watch was not closed")
	}
}

func TestEngineCompile(t *testing.T) {
	e, runner := newEngine(t, "Production", nil)

	res := e.Compile(context.Background(), e.CompileRequest())
	require.NoError(t, res.Err)
	require.True(t, res.OK)
	require.FileExists(t, e.Paths().Output)
	require.Len(t, runner.builds, 1)
	require.Contains(t, runner.builds[0], "--minify")
	require.NotContains(t, runner.builds[0], "--watch")
}

func TestEngineLinkTag(t *testing.T) {
	e, _ := newEngine(t, "Production", func(o *Options) { o.ServePath = "/assets/site.css" })
	require.Contains(t, string(e.LinkTag(false)), `href="/assets/site.css"`)
	require.Contains(t, e.TemplateFuncs(), "tailwindLink")
}

func TestRunServesUntilCancelled(t *testing.T) {
	e, _ := newEngine(t, "Development", nil)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: e.Middleware(mux)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, srv) }()

	require.Eventually(t, func() bool { return e.State() == supervisor.Watching }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return")
	}
	require.Equal(t, supervisor.Stopped, e.State())
}

func TestRunReturnsStartupFailure(t *testing.T) {
	e, _ := newEngine(t, "Production", func(o *Options) {
		o.AutoInstall = config.Bool(false)
	})
	err := e.Run(context.Background(), &http.Server{Addr: "127.0.0.1:0"})
	require.Error(t, err)
	require.ErrorContains(t, err, "start tailwind")
	require.Equal(t, supervisor.Stopped, e.State())
	require.FileExists(t, filepath.Join(e.Paths().Root, "Styles", "app.css"))
}
