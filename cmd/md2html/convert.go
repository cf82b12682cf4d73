package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/content"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/hints"
	"github.com/alnah/go-md2html/internal/pipeline"
)

// Sentinel errors for conversion.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrReadMarkdown     = errors.New("failed to read markdown file")
	ErrWriteHTML        = errors.New("failed to write HTML file")
	ErrConversionFailed = errors.New("conversion failed")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// TOC depth of standalone pages.
const (
	tocMinDepth = 1
	tocMaxDepth = 3
)

// Converter turns Markdown into an HTML fragment.
type Converter interface {
	Convert(ctx context.Context, text string) (string, error)
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// pageWrapper wraps fragments in the page template for --standalone.
type pageWrapper struct {
	tmpl *pipeline.PageTemplate
	css  string
	lang string
}

// newPageWrapper loads the page template and stylesheet, appending the
// highlight CSS of the renderer.
func newPageWrapper(loader assets.AssetLoader, highlightCSS func(io.Writer) error, lang string) (*pageWrapper, error) {
	text, err := loader.LoadTemplate(assets.PageTemplateName)
	if err != nil {
		return nil, err
	}
	tmpl, err := pipeline.NewPageTemplate(assets.PageTemplateName, text)
	if err != nil {
		return nil, err
	}
	style, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, err
	}
	var css strings.Builder
	css.WriteString(style)
	css.WriteString("\n")
	if err := highlightCSS(&css); err != nil {
		return nil, err
	}
	return &pageWrapper{tmpl: tmpl, css: css.String(), lang: lang}, nil
}

func (p *pageWrapper) wrap(ctx context.Context, doc *content.Document, body string) (string, error) {
	return p.tmpl.Render(ctx, pipeline.PageData{
		Title: doc.Title,
		Lang:  p.lang,
		Emoji: doc.Emoji,
		Body:  template.HTML(body), // #nosec G203 -- renderer output escapes raw HTML
		CSS:   template.CSS(p.css), // #nosec G203 -- embedded or operator-provided stylesheet
		TOC:   pipeline.ExtractTOC(body, tocMinDepth, tocMaxDepth),
	})
}

// runConvertCmd parses convert flags and runs the conversion.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	return runConvert(ctx, positional, flags, env)
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common)
	if err != nil {
		return err
	}
	applyRenderFlags(flags.render, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	renderer, err := newRenderer(cfg.Render, flags.preview, logger)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, inputPath)
	}

	var page *pageWrapper
	if flags.standalone {
		loader, err := newAssetLoader(cfg.Assets.BasePath)
		if err != nil {
			return err
		}
		page, err = newPageWrapper(loader, renderer.HighlightCSS, langOf(cfg.Render.Locale))
		if err != nil {
			return err
		}
	}

	workers := resolveWorkers(flags.workers, loadEnvConfig().Workers)
	logger.Debug("starting conversion",
		slog.Int("files", len(files)),
		slog.Int("workers", workers),
		slog.Bool("standalone", flags.standalone))

	start := env.Now()
	results := convertBatch(ctx, renderer, files, page, workers)
	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	logger.Debug("conversion finished", slog.Duration("elapsed", env.Now().Sub(start)))

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrConversionFailed, failed, len(results))
	}
	return nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// convertBatch converts files with at most workers conversions in flight.
// Results keep the order of files.
func convertBatch(ctx context.Context, conv Converter, files []FileToConvert, page *pageWrapper, workers int) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))
	var g errgroup.Group
	g.SetLimit(max(1, workers))

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, Err: err}
				return nil
			}
			results[i] = convertFile(ctx, conv, f, page)
			return nil
		})
	}

	// Workers record failures in results; Wait only joins them.
	_ = g.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv Converter, f FileToConvert, page *pageWrapper) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	data, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReadMarkdown, err))
	}

	doc, err := content.ParseDocument(string(data))
	if err != nil {
		return fail(err)
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(f.InputPath), filepath.Ext(f.InputPath))
	}

	out, err := conv.Convert(ctx, doc.Body)
	if err != nil {
		return fail(err)
	}
	if page != nil {
		out, err = page.wrap(ctx, doc, out)
		if err != nil {
			return fail(err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: creating output directory: %v%s", ErrWriteHTML, err, hints.ForOutputDirectory()))
	}
	if err := fileutil.WriteFileAtomic(f.OutputPath, []byte(out), filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteHTML, err))
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
