package embed

import (
	"log/slog"
	"sort"

	"github.com/alnah/go-md2html/internal/i18n"
)

// Result is the outcome of resolving one directive. Exactly one of HTML and
// Message is set; Message is plain text that callers must escape.
type Result struct {
	HTML    string
	Message string
}

// Invalid reports whether the directive argument was rejected.
func (r Result) Invalid() bool {
	return r.Message != ""
}

// Registry maps directive names to handlers. It is immutable once built and
// safe for concurrent use.
type Registry struct {
	handlers map[string]Handler
	printer  *i18n.Printer
	logger   *slog.Logger
}

// RegistryOption customizes a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	printer  *i18n.Printer
	tweetGen TweetGenerator
	logger   *slog.Logger
	extra    []Handler
}

// WithPrinter sets the language of error messages.
func WithPrinter(p *i18n.Printer) RegistryOption {
	return func(c *registryConfig) {
		if p != nil {
			c.printer = p
		}
	}
}

// WithTweetGenerator replaces the tweet markup collaborator.
func WithTweetGenerator(gen TweetGenerator) RegistryOption {
	return func(c *registryConfig) {
		if gen != nil {
			c.tweetGen = gen
		}
	}
}

// WithLogger logs rejected directive arguments at debug level.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHandler adds a handler, replacing any built-in handler of the same name.
func WithHandler(h Handler) RegistryOption {
	return func(c *registryConfig) {
		if h != nil {
			c.extra = append(c.extra, h)
		}
	}
}

// NewRegistry builds the registry of built-in providers.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{
		printer:  i18n.NewPrinter(i18n.Default),
		tweetGen: DefaultTweetHTML,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	builtins := []Handler{
		YouTube{},
		SlideShare{},
		SpeakerDeck{},
		Jsfiddle{},
		CodePen{},
		CodeSandbox{},
		StackBlitz{},
		Tweet{Generate: cfg.tweetGen},
		Gist{},
	}

	handlers := make(map[string]Handler, len(builtins)+len(cfg.extra))
	for _, h := range append(builtins, cfg.extra...) {
		handlers[h.Name()] = h
	}

	return &Registry{handlers: handlers, printer: cfg.printer, logger: cfg.logger}
}

// Has reports whether name is a registered directive.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered directive names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve renders the directive name with arg. It never fails: unknown names
// and rejected arguments produce a Message instead of HTML.
func (r *Registry) Resolve(name, arg string) Result {
	h, ok := r.handlers[name]
	if !ok {
		return Result{Message: "@[" + name + "](" + arg + ")"}
	}
	if !h.Validate(arg) {
		r.logger.Debug("directive argument rejected", slog.String("directive", name), slog.String("arg", arg))
		return Result{Message: r.printer.Text(h.Invalid())}
	}
	return Result{HTML: h.Embed(arg)}
}
