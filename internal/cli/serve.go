package cli

import (
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"tailbreeze/internal/config"
	"tailbreeze/internal/observability"
	"tailbreeze/internal/paths"
	"tailbreeze/pkg/tailbreeze"
)

var (
	serveAddr    string
	serveNoWatch bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web root with the compiled stylesheet and a watch process",
		RunE:  runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:5000", "Listen address")
	cmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Serve without starting the watch process")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	proj, err := loadProject(cmd, true)
	if err != nil {
		return err
	}
	defer proj.Close()

	opts := proj.opts
	if serveNoWatch {
		opts.EnableWatch = config.Bool(false)
	}

	engine, err := tailbreeze.New(opts, proj.env, tailbreeze.WithLogger(proj.logger))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           newServeRouter(engine, proj.paths.WebRoot),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	proj.logger.Info().Str("root", proj.paths.Root).Str("stylesheet", engine.StylesheetPath()).Msg("tailbreeze serve")
	return engine.Run(ctx, srv)
}

// newServeRouter mounts the stylesheet middleware ahead of the static web
// root, plus health and metrics endpoints.
func newServeRouter(engine *tailbreeze.Engine, webRoot string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	engine.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]string{"state": engine.State().String()}
		if err := engine.Err(); err != nil {
			body["error"] = err.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	r.Handle("/metrics", observability.Handler())

	static := http.FileServer(http.Dir(webRoot))
	index := indexHandler(engine, webRoot)
	r.Get("/", index)
	r.Handle("/*", static)
	return r
}

var indexTemplate = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>tailbreeze</title>
{{ tailwindLink true }}
</head>
<body class="p-8 font-sans">
<h1 class="text-2xl font-bold">tailbreeze</h1>
<p class="text-gray-600">Add an index.html to {{ .WebRoot }} to replace this page.</p>
</body>
</html>
`

// indexHandler serves webRoot/index.html when present and a starter page
// that links the stylesheet otherwise.
func indexHandler(engine *tailbreeze.Engine, webRoot string) http.HandlerFunc {
	tmpl := template.Must(template.New("index").Funcs(engine.TemplateFuncs()).Parse(indexTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if ok, _ := paths.FileExists(filepath.Join(webRoot, "index.html")); ok {
			http.ServeFile(w, r, filepath.Join(webRoot, "index.html"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, map[string]string{"WebRoot": webRoot}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
