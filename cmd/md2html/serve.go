package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/content"
	"github.com/alnah/go-md2html/internal/hints"
	"github.com/alnah/go-md2html/internal/server"
)

// runServeCmd parses serve flags and runs the preview server until ctx is
// cancelled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	srv, addr, err := newPreviewServer(positional, flags, env)
	if err != nil {
		return err
	}
	defer srv.Close()

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Serving on http://%s (Ctrl+C to stop)\n", addr)
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w%s", err, hints.ForAddressInUse())
		}
		return err
	}
	return nil
}

// newPreviewServer resolves configuration and builds the server.
func newPreviewServer(positional []string, flags *serveFlags, env *Environment) (*server.Server, string, error) {
	cfg, err := loadConfig(flags.common)
	if err != nil {
		return nil, "", err
	}
	applyRenderFlags(flags.render, cfg)
	applyServeFlags(positional, flags, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	renderer, err := newRenderer(cfg.Render, true, logger)
	if err != nil {
		return nil, "", err
	}
	loader, err := newAssetLoader(cfg.Assets.BasePath)
	if err != nil {
		return nil, "", err
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv, err := server.New(server.Config{
		Addr:       addr,
		ContentDir: cfg.Server.ContentDir,
		LiveReload: cfg.Server.LiveReload,
		Lang:       langOf(cfg.Render.Locale),
	}, renderer, loader, logger, server.NewMetrics(env.Registry))
	if err != nil {
		if errors.Is(err, content.ErrInvalidRoot) {
			return nil, "", fmt.Errorf("%w%s", err, hints.ForContentLayout())
		}
		return nil, "", err
	}
	return srv, addr, nil
}

// applyServeFlags copies the content directory argument and explicitly set
// server flags into cfg.
func applyServeFlags(positional []string, flags *serveFlags, cfg *config.Config) {
	if len(positional) > 0 {
		cfg.Server.ContentDir = positional[0]
	}
	setString(&cfg.Server.Host, flags.host)
	if flags.port > 0 {
		cfg.Server.Port = flags.port
	}
	if flags.noReload {
		cfg.Server.LiveReload = false
	}
}
