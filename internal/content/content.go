// Package content loads articles and books from a platform content directory.
//
// The layout is:
//
//	{root}/
//	├── articles/
//	│   └── {slug}.md
//	└── books/
//	    └── {slug}/
//	        ├── config.yaml      # title, summary, topics, chapters
//	        └── {chapter}.md
//
// Markdown files may open with a "---" delimited YAML front matter block.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-md2html/internal/yamlutil"
)

// Sentinel errors for content loading.
var (
	ErrInvalidRoot     = errors.New("invalid content directory")
	ErrInvalidSlug     = errors.New("invalid slug")
	ErrArticleNotFound = errors.New("article not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrFrontMatter     = errors.New("invalid front matter")
	ErrBookConfig      = errors.New("invalid book config")
	ErrContentRead     = errors.New("failed to read content")
)

// Directory names under the content root.
const (
	ArticlesDir = "articles"
	BooksDir    = "books"
)

// slugPattern admits lowercase letters, digits, hyphens and underscores.
// It rules out separators and dots, so a valid slug cannot escape its directory.
var slugPattern = regexp.MustCompile(`^[a-z0-9_-]{1,50}$`)

// chapterFilePattern matches "{n}.{slug}.md" chapter files used when a book
// config lists no chapters.
var chapterFilePattern = regexp.MustCompile(`^(\d+)\.([a-z0-9_-]{1,50})\.md$`)

// bookConfigNames are tried in order.
var bookConfigNames = []string{"config.yaml", "config.yml"}

// ValidateSlug returns ErrInvalidSlug unless s is a well-formed slug.
func ValidateSlug(s string) error {
	if !slugPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, s)
	}
	return nil
}

// FrontMatter is the metadata block of an article or chapter.
type FrontMatter struct {
	Title     string   `yaml:"title"`
	Emoji     string   `yaml:"emoji"`
	Type      string   `yaml:"type"` // "tech" or "idea"
	Topics    []string `yaml:"topics"`
	Published bool     `yaml:"published"`
	Free      bool     `yaml:"free"`
}

// Document is a Markdown file split into metadata and body.
type Document struct {
	FrontMatter

	// Slug identifies the document within its directory.
	Slug string

	// Body is the Markdown after the front matter.
	Body string

	// BodyLine is the 0-based source line where Body starts.
	BodyLine int

	// Path is the file the document was read from.
	Path string
}

// Book is a directory of chapters described by a config file.
type Book struct {
	Slug      string   `yaml:"-"`
	Title     string   `yaml:"title"`
	Summary   string   `yaml:"summary"`
	Topics    []string `yaml:"topics"`
	Published bool     `yaml:"published"`
	Price     int      `yaml:"price"`

	// Chapters lists chapter slugs in reading order.
	Chapters []string `yaml:"chapters"`

	// files maps chapter slug to file name when chapters come from numbered files.
	files map[string]string
}

// Store reads content from a root directory. It keeps no cache; every call
// reads the filesystem, so edits are visible immediately.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir. The directory must exist.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidRoot, abs)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute content directory.
func (s *Store) Root() string {
	return s.root
}

// Article loads articles/{slug}.md.
func (s *Store) Article(slug string) (*Document, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, ArticlesDir, slug+".md")
	doc, err := readDocument(path, slug)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrArticleNotFound, slug)
	}
	return doc, err
}

// Articles loads every article, sorted by slug. Files whose names are not
// valid slugs are skipped.
func (s *Store) Articles() ([]*Document, error) {
	slugs, err := s.listSlugs(ArticlesDir, func(e fs.DirEntry) (string, bool) {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") {
			return "", false
		}
		return strings.TrimSuffix(name, ".md"), true
	})
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(slugs))
	for _, slug := range slugs {
		doc, err := s.Article(slug)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Book loads books/{slug}/config.yaml.
func (s *Store) Book(slug string) (*Book, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, BooksDir, slug)

	var data []byte
	var err error
	for _, name := range bookConfigNames {
		data, err = os.ReadFile(filepath.Join(dir, name)) // #nosec G304 -- slug validated above
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrBookNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentRead, err)
	}

	book := &Book{}
	if len(data) > 0 {
		if err := yamlutil.Unmarshal(data, book); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBookConfig, slug, err)
		}
	}
	book.Slug = slug
	if book.Title == "" {
		book.Title = slug
	}

	for _, ch := range book.Chapters {
		if err := ValidateSlug(ch); err != nil {
			return nil, fmt.Errorf("%w: %s: chapter %v", ErrBookConfig, slug, err)
		}
	}
	if len(book.Chapters) == 0 {
		if err := book.discoverChapters(dir); err != nil {
			return nil, err
		}
	}
	return book, nil
}

// discoverChapters orders "{n}.{slug}.md" files by n.
func (b *Book) discoverChapters(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrContentRead, err)
	}
	type numbered struct {
		n    int
		slug string
	}
	var found []numbered
	b.files = make(map[string]string)
	for _, e := range entries {
		m := chapterFilePattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{n: n, slug: m[2]})
		b.files[m[2]] = e.Name()
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].n < found[j].n })
	for _, f := range found {
		b.Chapters = append(b.Chapters, f.slug)
	}
	return nil
}

// HasChapter reports whether slug is one of the book's chapters.
func (b *Book) HasChapter(slug string) bool {
	for _, ch := range b.Chapters {
		if ch == slug {
			return true
		}
	}
	return false
}

// Books loads every book, sorted by slug. Directories whose names are not
// valid slugs or that lack a config file are skipped.
func (s *Store) Books() ([]*Book, error) {
	slugs, err := s.listSlugs(BooksDir, func(e fs.DirEntry) (string, bool) {
		return e.Name(), e.IsDir()
	})
	if err != nil {
		return nil, err
	}
	books := make([]*Book, 0, len(slugs))
	for _, slug := range slugs {
		book, err := s.Book(slug)
		if errors.Is(err, ErrBookNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// Chapter loads one chapter of a book. A chapter missing from the book's
// chapter list, or whose file is absent, yields ErrChapterNotFound.
func (s *Store) Chapter(bookSlug, chapterSlug string) (*Document, error) {
	book, err := s.Book(bookSlug)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlug(chapterSlug); err != nil {
		return nil, err
	}
	if !book.HasChapter(chapterSlug) {
		return nil, fmt.Errorf("%w: %s/%s", ErrChapterNotFound, bookSlug, chapterSlug)
	}
	name := chapterSlug + ".md"
	if f, ok := book.files[chapterSlug]; ok {
		name = f
	}
	doc, err := readDocument(filepath.Join(s.root, BooksDir, bookSlug, name), chapterSlug)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrChapterNotFound, bookSlug, chapterSlug)
	}
	return doc, err
}

// listSlugs returns the sorted valid slugs derived from entries of dir.
// A missing dir yields no slugs.
func (s *Store) listSlugs(dir string, slugOf func(fs.DirEntry) (string, bool)) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentRead, err)
	}
	var slugs []string
	for _, e := range entries {
		slug, ok := slugOf(e)
		if ok && ValidateSlug(slug) == nil {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// readDocument reads a Markdown file and parses its front matter.
// fs.ErrNotExist is returned unwrapped for the caller to translate.
func readDocument(path, slug string) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path built from validated slugs
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrContentRead, err)
	}
	doc, err := ParseDocument(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Slug = slug
	doc.Path = path
	if doc.Title == "" {
		doc.Title = slug
	}
	return doc, nil
}

// ParseDocument splits source into front matter and body. Unknown front
// matter keys are ignored; malformed YAML yields ErrFrontMatter.
func ParseDocument(source string) (*Document, error) {
	source = strings.TrimPrefix(source, "\uFEFF")
	fm, body, lines := yamlutil.SplitFrontMatter(source)
	doc := &Document{Body: body, BodyLine: lines}
	if lines == 0 {
		return doc, nil
	}
	if len(strings.TrimSpace(string(fm))) == 0 {
		return doc, nil
	}
	if err := yamlutil.Unmarshal(fm, &doc.FrontMatter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	return doc, nil
}
