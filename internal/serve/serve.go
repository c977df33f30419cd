package serve

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"tailbreeze/internal/config"
	"tailbreeze/internal/observability"
	"tailbreeze/internal/paths"
	"tailbreeze/internal/tools"
)

// ErrArtifactMissing means the compiled stylesheet is not on disk.
var ErrArtifactMissing = errors.New("compiled stylesheet missing")

const (
	contentType    = "text/css; charset=utf-8"
	devCache       = "no-cache, no-store, must-revalidate"
	immutableCache = "public, max-age=31536000, immutable"
)

// Layer serves the compiled stylesheet at the configured path, or redirects
// to the CDN build when it is missing and fallback is permitted.
type Layer struct {
	enabled   bool
	servePath string
	artifact  string
	dev       bool
	fallback  bool
	cdnURL    string
	logger    zerolog.Logger
}

// New resolves the serving decisions once from opts and env.
func New(opts config.Options, env config.Environment, pp paths.ProjectPaths, logger zerolog.Logger) (*Layer, error) {
	opts.ApplyDefaults()
	spec, err := tools.ParseVersion(opts.ToolVersion)
	if err != nil {
		return nil, err
	}
	releases, err := opts.ReleaseTable()
	if err != nil {
		return nil, err
	}

	isDev := env.IsDevelopment()
	return &Layer{
		enabled:   opts.MiddlewareEnabled(),
		servePath: strings.TrimRight(opts.ServePath, "/"),
		artifact:  pp.Output,
		dev:       isDev,
		fallback:  opts.CDNFallback.Resolve(isDev),
		cdnURL:    releases.CDNURL(spec),
		logger:    logger.With().Str("component", "serve").Logger(),
	}, nil
}

// ServePath is the URL path the stylesheet is served at.
func (l *Layer) ServePath() string { return l.servePath }

// CDNURL is the fallback location for the configured major version.
func (l *Layer) CDNURL() string { return l.cdnURL }

// Matches reports whether path is the serve path or below it, compared
// case-insensitively segment by segment.
func (l *Layer) Matches(path string) bool {
	if l.servePath == "" {
		return false
	}
	if len(path) < len(l.servePath) || !strings.EqualFold(path[:len(l.servePath)], l.servePath) {
		return false
	}
	return len(path) == len(l.servePath) || path[len(l.servePath)] == '/'
}

// Middleware intercepts stylesheet requests and passes everything else to next.
func (l *Layer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.enabled || !l.Matches(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		l.ServeHTTP(w, r)
	})
}

// ServeHTTP answers a stylesheet request without checking the path.
func (l *Layer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	// Opened per request: the watch process replaces the file by rename.
	f, info, err := l.open()
	if err != nil {
		l.logger.Warn().Err(err).Str("path", l.artifact).Msg("tailwind css file not found")
		if l.fallback {
			l.redirect(w)
			return
		}
		observability.RecordServe(observability.OutcomeNotFound)
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", contentType)
	if l.dev {
		h.Set("Cache-Control", devCache)
	} else {
		h.Set("Cache-Control", immutableCache)
	}
	observability.RecordServe(observability.OutcomeServed)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (l *Layer) open() (*os.File, fs.FileInfo, error) {
	f, err := os.Open(l.artifact)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrArtifactMissing, l.artifact)
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s is a directory", ErrArtifactMissing, l.artifact)
	}
	return f, info, nil
}

func (l *Layer) redirect(w http.ResponseWriter) {
	l.logger.Debug().Str("url", l.cdnURL).Msg("serving tailwind css from cdn")
	observability.RecordServe(observability.OutcomeRedirected)
	w.Header().Set("Location", l.cdnURL)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusFound)
	_, _ = fmt.Fprintf(w, "/* Redirecting to Tailwind CDN: %s */", l.cdnURL)
}
