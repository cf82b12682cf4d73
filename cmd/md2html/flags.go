package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds Markdown rendering flags.
type renderFlags struct {
	locale         string
	platformOrigin string
	highlightStyle string
	sanitize       bool
	sanitizeSet    bool // --sanitize given explicitly, overriding config
	assetPath      string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	render     renderFlags
	output     string
	workers    int
	standalone bool
	preview    bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common   commonFlags
	render   renderFlags
	host     string
	port     int
	noReload bool
}

// cssFlags holds flags for the css command.
type cssFlags struct {
	common commonFlags
	style  string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.locale, "locale", "l", "", "message locale: ja, en")
	fs.StringVar(&f.platformOrigin, "origin", "", "origin whose links stay followable (e.g. https://zenn.dev)")
	fs.StringVar(&f.highlightStyle, "style", "", "code highlight style (chroma name)")
	fs.BoolVar(&f.sanitize, "sanitize", false, "sanitize output HTML")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory (styles/, templates/)")
}

// newConvertFlagSet registers every convert flag on a new FlagSet.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.standalone, "standalone", false, "wrap output in a full HTML page with CSS")
	fs.BoolVar(&f.preview, "preview", false, "emit data-line attributes for scroll sync")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	return fs
}

// newServeFlagSet registers every serve flag on a new FlagSet.
func newServeFlagSet(f *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)

	fs.StringVar(&f.host, "host", "", "listen host (default 127.0.0.1)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (default 8000)")
	fs.BoolVar(&f.noReload, "no-reload", false, "disable live reload")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	return fs
}

// newCSSFlagSet registers every css flag on a new FlagSet.
func newCSSFlagSet(f *cssFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("css", flag.ContinueOnError)

	fs.StringVar(&f.style, "style", "", "code highlight style (chroma name)")
	addCommonFlags(fs, &f.common)
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printConvertUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	f.render.sanitizeSet = fs.Changed("sanitize")
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newServeFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printServeUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	f.render.sanitizeSet = fs.Changed("sanitize")
	return f, fs.Args(), nil
}

// parseCSSFlags parses css command flags.
func parseCSSFlags(args []string, stderr io.Writer) (*cssFlags, []string, error) {
	f := &cssFlags{}
	fs := newCSSFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printCSSUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}
