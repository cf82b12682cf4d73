package main

import (
	"io"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// Registry collects preview server metrics. Nil means a fresh registry
	// per server.
	Registry *prom.Registry
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}
