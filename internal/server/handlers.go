package server

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alnah/go-md2html/internal/content"
	"github.com/alnah/go-md2html/internal/pipeline"
)

// TOC depth shown next to rendered documents.
const (
	tocMinDepth = 1
	tocMaxDepth = 3
)

// indexTitle heads the page listing all content.
const indexTitle = "Preview"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	out, err := s.renderIndex(r.Context())
	s.metrics.observeRender(kindIndex, time.Since(start), err)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeHTML(w, out)
}

func (s *Server) renderIndex(ctx context.Context) (string, error) {
	articles, err := s.store.Articles()
	if err != nil {
		return "", err
	}
	books, err := s.store.Books()
	if err != nil {
		return "", err
	}
	nav := make([]pipeline.NavLink, 0, len(articles)+len(books))
	for _, a := range articles {
		nav = append(nav, pipeline.NavLink{Title: withEmoji(a.Emoji, a.Title), URL: "/articles/" + a.Slug})
	}
	for _, b := range books {
		nav = append(nav, pipeline.NavLink{Title: "📖 " + b.Title, URL: "/books/" + b.Slug})
	}
	return s.renderPage(ctx, s.index, pipeline.PageData{Title: indexTitle, Nav: nav})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	doc, err := s.store.Article(slug)
	if err != nil {
		s.contentError(w, r, err)
		return
	}
	s.serveDocument(w, r, kindArticle, doc, nil)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.store.Book(r.PathValue("book"))
	if err != nil {
		s.contentError(w, r, err)
		return
	}
	start := time.Now()
	out, err := s.renderPage(r.Context(), s.index, pipeline.PageData{
		Title: book.Title,
		Nav:   s.chapterNav(book, ""),
	})
	s.metrics.observeRender(kindIndex, time.Since(start), err)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeHTML(w, out)
}

// handleChapter renders a chapter. An unknown chapter of an existing book
// redirects to the book's chapter list.
func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	bookSlug := r.PathValue("book")
	book, err := s.store.Book(bookSlug)
	if err != nil {
		s.contentError(w, r, err)
		return
	}
	chapterSlug := r.PathValue("chapter")
	doc, err := s.store.Chapter(bookSlug, chapterSlug)
	if errors.Is(err, content.ErrChapterNotFound) || errors.Is(err, content.ErrInvalidSlug) {
		s.logger.Debug("chapter not found, redirecting to book",
			slog.String("book", bookSlug), slog.String("chapter", chapterSlug))
		http.Redirect(w, r, "/books/"+bookSlug, http.StatusMovedPermanently)
		return
	}
	if err != nil {
		s.contentError(w, r, err)
		return
	}
	s.serveDocument(w, r, kindChapter, doc, s.chapterNav(book, chapterSlug))
}

// chapterNav lists a book's chapters by title, marking current.
func (s *Server) chapterNav(book *content.Book, current string) []pipeline.NavLink {
	nav := make([]pipeline.NavLink, 0, len(book.Chapters))
	for _, ch := range book.Chapters {
		title := ch
		if doc, err := s.store.Chapter(book.Slug, ch); err == nil {
			title = doc.Title
		}
		nav = append(nav, pipeline.NavLink{
			Title:   title,
			URL:     "/books/" + book.Slug + "/" + ch,
			Current: ch == current,
		})
	}
	return nav
}

// serveDocument converts doc and writes it inside the page template.
func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, kind string, doc *content.Document, nav []pipeline.NavLink) {
	start := time.Now()
	out, err := s.renderDocument(r.Context(), r.URL, doc, nav)
	s.metrics.observeRender(kind, time.Since(start), err)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeHTML(w, out)
}

func (s *Server) renderDocument(ctx context.Context, pageURL *url.URL, doc *content.Document, nav []pipeline.NavLink) (string, error) {
	body, err := s.converter.Convert(ctx, doc.Body)
	if err != nil {
		return "", err
	}
	body, err = pipeline.RewriteRelativePaths(body, &url.URL{Path: pageURL.Path})
	if err != nil {
		return "", err
	}
	return s.renderPage(ctx, s.page, pipeline.PageData{
		Title: doc.Title,
		Emoji: doc.Emoji,
		Body:  template.HTML(body), // #nosec G203 -- renderer output escapes raw HTML
		TOC:   pipeline.ExtractTOC(body, tocMinDepth, tocMaxDepth),
		Nav:   nav,
	})
}

func (s *Server) handleStyle(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(s.css))
}

// contentError maps content lookup failures to 404, everything else to 500.
func (s *Server) contentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, content.ErrInvalidSlug),
		errors.Is(err, content.ErrArticleNotFound),
		errors.Is(err, content.ErrBookNotFound),
		errors.Is(err, content.ErrChapterNotFound):
		http.NotFound(w, r)
	default:
		s.serverError(w, r, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	s.logger.Error("render failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(page))
}

func withEmoji(emoji, title string) string {
	if emoji == "" {
		return title
	}
	return emoji + " " + title
}
