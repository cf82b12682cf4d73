package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
)

// reloadMessage is sent to every client when content changes.
const reloadMessage = "reload"

// defaultDebounce coalesces bursts of file events, such as an editor's
// write-rename-chmod sequence, into one reload.
const defaultDebounce = 100 * time.Millisecond

// writeWait bounds a single websocket write.
const writeWait = 5 * time.Second

// reloadScript connects a page to the live reload endpoint.
const reloadScript = `(function(){var p=location.protocol==="https:"?"wss://":"ws://";` +
	`var ws=new WebSocket(p+location.host+"` + wsPath + `");` +
	`ws.onmessage=function(e){if(e.data==="` + reloadMessage + `"){location.reload();}};})();`

// LiveReload watches a content directory and tells connected browsers to
// reload when a watched file changes.
type LiveReload struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger
	metrics  *Metrics
	upgrader websocket.Upgrader

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewLiveReload creates a watcher for root and every directory below it,
// skipping hidden directories.
func NewLiveReload(root string, logger *slog.Logger, metrics *Metrics) (*LiveReload, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	lr := &LiveReload{
		root:     root,
		debounce: defaultDebounce,
		logger:   logger,
		metrics:  metrics,
		watcher:  watcher,
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: sameHost,
		},
	}
	if err := lr.watchTree(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return lr, nil
}

// sameHost accepts websocket upgrades from pages served by this server.
func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, host, ok := strings.Cut(origin, "://")
	return ok && host == r.Host
}

// watchTree adds dir and its non-hidden subdirectories to the watcher.
func (lr *LiveReload) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return lr.watcher.Add(path)
	})
}

// watched reports whether a change to path should trigger a reload.
func watched(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".yaml", ".yml", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp":
		return true
	}
	return false
}

// Run processes file events until ctx is done, then closes the watcher and
// every client connection.
func (lr *LiveReload) Run(ctx context.Context) {
	defer lr.close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-lr.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := lr.watchTree(event.Name); err != nil {
						lr.logger.Warn("watching new directory failed", slog.String("dir", event.Name), slog.Any("error", err))
					}
					continue
				}
			}
			if !watched(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			lr.logger.Debug("content changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(lr.debounce)
			} else {
				timer.Reset(lr.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			lr.Broadcast()

		case err, ok := <-lr.watcher.Errors:
			if !ok {
				return
			}
			lr.logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}

// Broadcast sends the reload message to every client, dropping clients
// whose connection fails.
func (lr *LiveReload) Broadcast() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	lr.metrics.incReload()
	lr.logger.Info("reloading clients", slog.Int("clients", len(lr.clients)))
	for conn := range lr.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reloadMessage)); err != nil {
			lr.logger.Debug("dropping live reload client", slog.Any("error", err))
			lr.removeLocked(conn)
		}
	}
}

// ServeHTTP upgrades the request to a websocket and keeps the client until
// it disconnects.
func (lr *LiveReload) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := lr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		lr.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	lr.mu.Lock()
	lr.clients[conn] = struct{}{}
	lr.mu.Unlock()
	lr.metrics.addClients(1)

	go func() {
		defer func() {
			lr.mu.Lock()
			lr.removeLocked(conn)
			lr.mu.Unlock()
		}()
		// Clients send nothing; reading detects the disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				var closeErr *websocket.CloseError
				if !errors.As(err, &closeErr) {
					lr.logger.Debug("live reload client gone", slog.Any("error", err))
				}
				return
			}
		}
	}()
}

// Clients returns the number of connected clients.
func (lr *LiveReload) Clients() int {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return len(lr.clients)
}

func (lr *LiveReload) removeLocked(conn *websocket.Conn) {
	if _, ok := lr.clients[conn]; !ok {
		return
	}
	delete(lr.clients, conn)
	_ = conn.Close()
	lr.metrics.addClients(-1)
}

func (lr *LiveReload) close() {
	_ = lr.watcher.Close()
	lr.mu.Lock()
	defer lr.mu.Unlock()
	for conn := range lr.clients {
		lr.removeLocked(conn)
	}
}
