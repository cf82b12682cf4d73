// Package server previews a content directory in the browser.
//
// It renders articles and book chapters on every request, so the page always
// reflects the files on disk, and optionally pushes a reload to open pages
// when those files change.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/content"
	"github.com/alnah/go-md2html/internal/pipeline"
)

// Routes served outside content pages.
const (
	wsPath      = "/ws"
	stylePath   = "/static/style.css"
	metricsPath = "/metrics"
	imagesPath  = "/images/"
)

// defaultShutdownTimeout bounds graceful shutdown.
const defaultShutdownTimeout = 5 * time.Second

// ErrServer wraps failures to start or run the HTTP listener.
var ErrServer = errors.New("preview server failed")

// Converter turns Markdown into an HTML fragment.
type Converter interface {
	Convert(ctx context.Context, text string) (string, error)
	HighlightCSS(w io.Writer) error
}

// Config configures the preview server.
type Config struct {
	Addr       string // host:port to listen on
	ContentDir string // directory holding articles/ and books/
	LiveReload bool
	Lang       string // lang attribute of rendered pages

	// ShutdownTimeout bounds graceful shutdown. Zero means 5s.
	ShutdownTimeout time.Duration
}

// Server renders content pages over HTTP.
type Server struct {
	cfg        Config
	store      *content.Store
	converter  Converter
	page       *pipeline.PageTemplate
	index      *pipeline.PageTemplate
	css        string
	injector   pipeline.Injection
	logger     *slog.Logger
	metrics    *Metrics
	liveReload *LiveReload
	handler    http.Handler
}

// New builds a server. The loader provides the stylesheet and templates;
// a nil logger discards logs and a nil metrics records nothing.
func New(cfg Config, converter Converter, loader assets.AssetLoader, logger *slog.Logger, metrics *Metrics) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Lang == "" {
		cfg.Lang = "ja"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	store, err := content.NewStore(cfg.ContentDir)
	if err != nil {
		return nil, err
	}

	page, err := loadTemplate(loader, assets.PageTemplateName)
	if err != nil {
		return nil, err
	}
	index, err := loadTemplate(loader, assets.IndexTemplateName)
	if err != nil {
		return nil, err
	}

	style, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, err
	}
	var highlight strings.Builder
	if err := converter.HighlightCSS(&highlight); err != nil {
		return nil, fmt.Errorf("generating highlight CSS: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		converter: converter,
		page:      page,
		index:     index,
		css:       style + "\n" + highlight.String(),
		logger:    logger,
		metrics:   metrics,
	}

	if cfg.LiveReload {
		s.liveReload, err = NewLiveReload(store.Root(), logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("starting file watcher: %w", err)
		}
	}

	s.handler = withLogging(logger, s.routes())
	return s, nil
}

func loadTemplate(loader assets.AssetLoader, name string) (*pipeline.PageTemplate, error) {
	text, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPageTemplate(name, text)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /articles/{slug}", s.handleArticle)
	mux.HandleFunc("GET /books/{book}", s.handleBook)
	mux.HandleFunc("GET /books/{book}/{chapter}", s.handleChapter)
	mux.HandleFunc("GET "+stylePath, s.handleStyle)
	mux.Handle("GET "+imagesPath, http.StripPrefix(imagesPath,
		http.FileServer(http.Dir(filepath.Join(s.store.Root(), "images")))))
	mux.Handle("GET "+metricsPath, s.metrics.Handler())
	if s.liveReload != nil {
		mux.Handle("GET "+wsPath, s.liveReload)
	}
	return mux
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// LiveReload returns the reloader, or nil when live reload is off.
func (s *Server) LiveReload() *LiveReload {
	return s.liveReload
}

// Close stops the file watcher and disconnects live reload clients. Serve
// does this itself; Close is for servers used only through Handler.
func (s *Server) Close() {
	if s.liveReload != nil {
		s.liveReload.close()
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. It closes the
// file watcher and live reload clients before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	watchDone := make(chan struct{})
	if s.liveReload != nil {
		go func() {
			defer close(watchDone)
			s.liveReload.Run(watchCtx)
		}()
	} else {
		close(watchDone)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("preview server listening",
		slog.String("url", "http://"+ln.Addr().String()),
		slog.String("content_dir", s.store.Root()),
		slog.Bool("live_reload", s.liveReload != nil))

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("%w: %v", ErrServer, err)
		}
	case <-ctx.Done():
		s.logger.Info("shutting down preview server")
		stopWatch()
		<-watchDone
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("%w: shutdown: %v", ErrServer, err)
		}
	}
	stopWatch()
	<-watchDone
	return serveErr
}

// renderPage wraps a converted fragment in the page template.
func (s *Server) renderPage(ctx context.Context, tmpl *pipeline.PageTemplate, data pipeline.PageData) (string, error) {
	data.Lang = s.cfg.Lang
	data.CSS = template.CSS(s.css) // #nosec G203 -- embedded or operator-provided stylesheet
	out, err := tmpl.Render(ctx, data)
	if err != nil {
		return "", err
	}
	if s.liveReload != nil {
		out = s.injector.InjectScript(ctx, out, reloadScript)
	}
	return out, nil
}
