package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/assets"
)

// writeTree creates files under root from a path-to-content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
}

func sampleContent(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"articles/hello.md":       "---\ntitle: \"Hello World\"\nemoji: \"👋\"\n---\n# Greeting\n\nSome text.\n\n![diagram](../images/diagram.png)\n",
		"articles/other.md":       "plain article without front matter\n",
		"books/guide/config.yaml": "title: \"The Guide\"\nchapters:\n  - intro\n  - usage\n",
		"books/guide/intro.md":    "---\ntitle: \"Introduction\"\n---\n## Start here\n",
		"books/guide/usage.md":    "---\ntitle: \"Usage\"\n---\nUse it.\n",
		"images/diagram.png":      "not really a png",
	})
	return root
}

type testServer struct {
	*Server
	metrics *Metrics
}

func newTestServer(t *testing.T, root string, liveReload bool) testServer {
	t.Helper()
	renderer, err := md2html.NewRenderer(md2html.WithPreview(true))
	require.NoError(t, err)
	metrics := NewMetrics(prom.NewRegistry())
	srv, err := New(Config{ContentDir: root, LiveReload: liveReload}, renderer, assets.NewEmbeddedLoader(), nil, metrics)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return testServer{Server: srv, metrics: metrics}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, sampleContent(t), false)

	tests := []struct {
		name         string
		target       string
		wantStatus   int
		wantType     string
		wantContains []string
		wantNot      []string
		wantLocation string
	}{
		{
			name:         "index lists articles and books",
			target:       "/",
			wantStatus:   http.StatusOK,
			wantType:     "text/html",
			wantContains: []string{`href="/articles/hello"`, "👋 Hello World", `href="/articles/other"`, `href="/books/guide"`, "The Guide"},
		},
		{
			name:         "article renders in page template",
			target:       "/articles/hello",
			wantStatus:   http.StatusOK,
			wantType:     "text/html",
			wantContains: []string{"<title>Hello World</title>", `class="znc"`, "Some text.", `data-line="0"`, `class="toc-depth-1"`},
			wantNot:      []string{"title: "},
		},
		{
			name:         "relative image path is resolved against the page",
			target:       "/articles/hello",
			wantStatus:   http.StatusOK,
			wantContains: []string{`src="/images/diagram.png"`},
		},
		{
			name:         "article without front matter uses slug as title",
			target:       "/articles/other",
			wantStatus:   http.StatusOK,
			wantContains: []string{"<title>other</title>"},
		},
		{
			name:       "missing article",
			target:     "/articles/missing",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed slug",
			target:     "/articles/Not.Valid",
			wantStatus: http.StatusNotFound,
		},
		{
			name:         "book lists chapters",
			target:       "/books/guide",
			wantStatus:   http.StatusOK,
			wantContains: []string{`href="/books/guide/intro"`, "Introduction", `href="/books/guide/usage"`},
		},
		{
			name:       "missing book",
			target:     "/books/missing",
			wantStatus: http.StatusNotFound,
		},
		{
			name:         "chapter renders with chapter navigation",
			target:       "/books/guide/intro",
			wantStatus:   http.StatusOK,
			wantContains: []string{"<title>Introduction</title>", "Start here", `class="current"`},
		},
		{
			name:         "missing chapter redirects to the book",
			target:       "/books/guide/nope",
			wantStatus:   http.StatusMovedPermanently,
			wantLocation: "/books/guide",
		},
		{
			name:       "chapter of missing book",
			target:     "/books/missing/intro",
			wantStatus: http.StatusNotFound,
		},
		{
			name:         "stylesheet includes highlight rules",
			target:       "/static/style.css",
			wantStatus:   http.StatusOK,
			wantType:     "text/css",
			wantContains: []string{".znc", ".chroma"},
		},
		{
			name:         "images are served from the content directory",
			target:       "/images/diagram.png",
			wantStatus:   http.StatusOK,
			wantContains: []string{"not really a png"},
		},
		{
			name:       "no live reload endpoint when disabled",
			target:     "/ws",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := get(t, srv.Handler(), tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantType != "" {
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantType)
			}
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
			body := rec.Body.String()
			for _, want := range tt.wantContains {
				assert.Contains(t, body, want)
			}
			for _, not := range tt.wantNot {
				assert.NotContains(t, body, not)
			}
			assert.NotContains(t, body, reloadScript)
		})
	}
}

func TestServer_EmptyContentDir(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, t.TempDir(), false)
	rec := get(t, srv.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="index-empty"`)
}

func TestNew_InvalidContentDir(t *testing.T) {
	t.Parallel()

	renderer, err := md2html.NewRenderer()
	require.NoError(t, err)
	_, err = New(Config{ContentDir: filepath.Join(t.TempDir(), "absent")}, renderer, assets.NewEmbeddedLoader(), nil, nil)
	require.Error(t, err)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, sampleContent(t), false)
	require.Equal(t, http.StatusOK, get(t, srv.Handler(), "/articles/hello").Code)
	require.Equal(t, http.StatusOK, get(t, srv.Handler(), "/books/guide/intro").Code)

	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `md2html_renders_total{kind="article",result="success"} 1`)
	assert.Contains(t, body, `md2html_renders_total{kind="chapter",result="success"} 1`)
	assert.Contains(t, body, "md2html_render_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeRender(kindArticle, time.Millisecond, nil)
		m.incReload()
		m.addClients(1)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_LiveReloadScriptInjected(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, sampleContent(t), true)
	for _, target := range []string{"/", "/articles/hello", "/books/guide/intro"} {
		body := get(t, srv.Handler(), target).Body.String()
		assert.Contains(t, body, `new WebSocket(p+location.host+"/ws")`, target)
		assert.Less(t, strings.Index(body, "<script>"), strings.Index(body, "</body>"), target)
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + wsPath
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestLiveReload_Broadcast(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, sampleContent(t), true)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	lr := srv.LiveReload()
	first := dialWS(t, ts)
	second := dialWS(t, ts)
	require.Eventually(t, func() bool { return lr.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	lr.Broadcast()
	assert.Equal(t, reloadMessage, readMessage(t, first))
	assert.Equal(t, reloadMessage, readMessage(t, second))

	_ = first.Close()
	require.Eventually(t, func() bool { return lr.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := get(t, srv.Handler(), "/metrics")
	assert.Contains(t, rec.Body.String(), "md2html_reloads_total 1")
	assert.Contains(t, rec.Body.String(), "md2html_livereload_clients 1")
}

func TestLiveReload_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, sampleContent(t), true)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + wsPath
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLiveReload_FileChangeTriggersReload(t *testing.T) {
	t.Parallel()

	root := sampleContent(t)
	srv := newTestServer(t, root, true)
	lr := srv.LiveReload()
	lr.debounce = 10 * time.Millisecond

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	conn := dialWS(t, ts)
	require.Eventually(t, func() bool { return lr.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		lr.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Ignored: not a content file.
	writeTree(t, root, map[string]string{"articles/notes.txt": "x"})
	writeTree(t, root, map[string]string{"articles/hello.md": "# Changed\n"})
	assert.Equal(t, reloadMessage, readMessage(t, conn))
}

func TestLiveReload_WatchesNewDirectories(t *testing.T) {
	t.Parallel()

	root := sampleContent(t)
	srv := newTestServer(t, root, true)
	lr := srv.LiveReload()
	lr.debounce = 10 * time.Millisecond

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	conn := dialWS(t, ts)
	require.Eventually(t, func() bool { return lr.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		lr.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	newBook := filepath.Join(root, "books", "second")
	require.NoError(t, os.Mkdir(newBook, 0o750))
	// Let the watcher pick up the new directory before writing into it.
	time.Sleep(100 * time.Millisecond)
	writeTree(t, root, map[string]string{"books/second/config.yaml": "title: Second\n"})
	assert.Equal(t, reloadMessage, readMessage(t, conn))
}

func TestWatched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"articles/a.md", true},
		{"books/b/config.yaml", true},
		{"images/x.PNG", true},
		{"articles/.a.md.swp", false},
		{"articles/.hidden.md", false},
		{"notes.txt", false},
		{"articles/a.md~", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, watched(tt.path), tt.path)
	}
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, sampleContent(t), true)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/articles/hello"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) // #nosec G107 -- test server URL
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	t.Parallel()

	renderer, err := md2html.NewRenderer()
	require.NoError(t, err)
	srv, err := New(Config{Addr: "256.0.0.1:bad", ContentDir: t.TempDir()}, renderer, assets.NewEmbeddedLoader(), nil, nil)
	require.NoError(t, err)
	err = srv.ListenAndServe(t.Context())
	assert.ErrorIs(t, err, ErrServer)
}

func TestWithLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mux := http.NewServeMux()
	mux.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := withLogging(logger, mux)

	rec := get(t, h, "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "HTTP handler panic")

	rec = get(t, h, "/teapot")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "status=418")
}

func TestSameHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "localhost:8000", true},
		{"http://localhost:8000", "localhost:8000", true},
		{"https://localhost:8000", "localhost:8000", true},
		{"http://evil.example", "localhost:8000", false},
		{"garbage", "localhost:8000", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, sameHost(r), tt.origin)
	}
}
