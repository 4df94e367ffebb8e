package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mielalabs/mpl-magick/grimoire"
	"github.com/mielalabs/mpl-magick/mpl"
	"github.com/mielalabs/mpl-magick/ontology"
)

// runtime wires the grimoire, the knowledge bases and the engine together
// for one CLI invocation.
type runtime struct {
	engine   *mpl.Engine
	registry *grimoire.Registry
	resolver *ontology.Resolver
	logger   *log.Logger
}

type runtimeOptions struct {
	Config *config
	Output mpl.Output
	Logger *log.Logger
	// Stdin feeds divination.omen; Stdout receives divination.inscribe.
	Stdin  io.Reader
	Stdout io.Writer
}

func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg := opts.Config
	registry, err := grimoire.New(grimoire.Options{
		Logger:         opts.Logger,
		HTTPTimeout:    cfg.Grimoire.HTTPTimeout.Duration,
		AllowProcesses: cfg.Grimoire.AllowProcesses,
		Input:          opts.Stdin,
		Output:         opts.Stdout,
	})
	if err != nil {
		return nil, err
	}

	resolver, err := ontology.New(ontology.Options{
		Paths:  cfg.Ontology.Paths,
		Logger: opts.Logger,
	})
	if err != nil {
		registry.Close()
		return nil, err
	}
	if cfg.Ontology.Watch && len(cfg.Ontology.Paths) > 0 {
		if err := resolver.Watch(ctx); err != nil {
			opts.Logger.Warn("knowledge base watch disabled", "err", err)
		}
	}

	engine, err := mpl.NewEngine(mpl.Config{
		StepQuota:   cfg.Engine.StepQuota,
		Resolver:    resolver,
		Invoker:     ontology.NewInvoker(opts.Logger),
		Registry:    registry,
		Output:      opts.Output,
		Logger:      opts.Logger,
		StrictParse: cfg.Engine.StrictParse,
	})
	if err != nil {
		registry.Close()
		return nil, err
	}

	return &runtime{
		engine:   engine,
		registry: registry,
		resolver: resolver,
		logger:   opts.Logger,
	}, nil
}

func (rt *runtime) Close() error {
	return rt.registry.Close()
}

// ritualError labels a failed run by stage and, for runtime failures, by kind.
func ritualError(err error) error {
	var (
		scanErr    *mpl.ScanError
		parseErr   *mpl.ParseError
		runtimeErr *mpl.RuntimeError
	)
	switch {
	case errors.As(err, &scanErr):
		return fmt.Errorf("scan error: %w", err)
	case errors.As(err, &parseErr):
		return fmt.Errorf("parse error: %w", err)
	case errors.As(err, &runtimeErr):
		return fmt.Errorf("runtime error (%s): %w", runtimeErr.Kind, err)
	default:
		return err
	}
}

// echoWriter forwards whole lines written by grimoire handlers to an
// mpl.Output, so inscriptions land next to echoes in the shell.
type echoWriter struct {
	mu  sync.Mutex
	out mpl.Output
	buf bytes.Buffer
}

func (w *echoWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			return len(p), nil
		}
		w.out.Echo(line[:len(line)-1])
	}
}
