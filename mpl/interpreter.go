package mpl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const defaultStepQuota = 1_000_000

// EntityResolver looks up knowledge-base records by case-insensitive id.
type EntityResolver interface {
	Resolve(id string) (Value, bool)
	// Suggest returns known ids close to id, best match first.
	Suggest(id string) []string
}

// Invoker performs the host side of `invoke.Entity(...)` for a resolved entity.
type Invoker interface {
	Invoke(ctx context.Context, entity string, record Value, params []Arg) (Value, error)
}

// Registry dispatches standard-library calls. Unknown modules or functions
// are reported with an error wrapping ErrFizzle.
type Registry interface {
	HasModule(module string) bool
	Call(ctx context.Context, module, function string, args []Value) (Value, error)
}

// Output receives everything a program prints.
type Output interface {
	Echo(text string)
	Diagnostic(err error)
}

// Arg is an evaluated named parameter.
type Arg struct {
	Name  string
	Value Value
}

// Config controls engine limits and wires the external collaborators.
type Config struct {
	StepQuota   int
	Resolver    EntityResolver
	Invoker     Invoker
	Registry    Registry
	Output      Output
	Logger      *log.Logger
	StrictParse bool
}

// Engine holds validated configuration shared by independent sessions.
type Engine struct {
	config Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.StepQuota < 0 {
		return nil, fmt.Errorf("step quota must be positive, got %d", cfg.StepQuota)
	}
	if cfg.StepQuota == 0 {
		cfg.StepQuota = defaultStepQuota
	}
	if cfg.Output == nil {
		cfg.Output = NewWriterOutput(os.Stdout, os.Stderr)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Invoker == nil {
		cfg.Invoker = recordInvoker{}
	}
	return &Engine{config: cfg}, nil
}

func (e *Engine) Config() Config {
	return e.config
}

// Execute runs source in a fresh session.
func (e *Engine) Execute(ctx context.Context, source string) (Result, error) {
	return e.NewSession().Run(ctx, source)
}

// Session owns one environment across successive runs.
type Session struct {
	engine   *Engine
	env      *Env
	summoned map[string]struct{}
}

func (e *Engine) NewSession() *Session {
	return &Session{
		engine:   e,
		env:      NewEnv(),
		summoned: make(map[string]struct{}),
	}
}

func (s *Session) Env() *Env {
	return s.env
}

func (s *Session) Summoned() []string {
	names := make([]string, 0, len(s.summoned))
	for name := range s.summoned {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset drops all bindings, seals and summoned modules.
func (s *Session) Reset() {
	s.env.Purge()
	clear(s.summoned)
}

// Result describes one run.
type Result struct {
	RunID       string
	Statements  int
	Steps       int
	ParseErrors []error
}

// Run scans, parses and interprets source against the session environment.
// Parse errors are reported and the well-formed statements still execute,
// unless StrictParse is set.
func (s *Session) Run(ctx context.Context, source string) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	logger := s.engine.config.Logger.With("run", result.RunID)

	tokens, err := Scan(source)
	if err != nil {
		logger.Debug("scan failed", "err", err)
		return result, err
	}
	stmts, parseErrs := newParser(tokens, source).ParseProgram()
	result.Statements = len(stmts)
	if len(parseErrs) > 0 {
		result.ParseErrors = parseErrs
		if s.engine.config.StrictParse {
			return result, combineErrors(parseErrs)
		}
		for _, perr := range parseErrs {
			s.engine.config.Output.Diagnostic(perr)
			logger.Warn("statement dropped", "err", perr)
		}
	}

	return s.interpret(ctx, source, stmts, result, logger)
}

// Interpret runs already parsed statements against the session environment.
// Runtime errors carry no code frame since the source text is unknown.
func (s *Session) Interpret(ctx context.Context, stmts []Statement) (Result, error) {
	result := Result{RunID: uuid.NewString(), Statements: len(stmts)}
	logger := s.engine.config.Logger.With("run", result.RunID)
	return s.interpret(ctx, "", stmts, result, logger)
}

func (s *Session) interpret(ctx context.Context, source string, stmts []Statement, result Result, logger *log.Logger) (Result, error) {
	exec := s.newExecution(ctx, source, logger)
	err := exec.Interpret(ctx, stmts)
	result.Steps = exec.Steps()
	if err != nil {
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			logger.Debug("ritual aborted", "kind", rerr.Kind, "line", rerr.Pos.Line)
		}
		return result, err
	}
	logger.Debug("ritual concluded", "statements", result.Statements, "steps", result.Steps)
	return result, nil
}

func (s *Session) newExecution(ctx context.Context, source string, logger *log.Logger) *Execution {
	return &Execution{
		session: s,
		config:  s.engine.config,
		ctx:     ctx,
		source:  source,
		quota:   s.engine.config.StepQuota,
		env:     s.env,
		logger:  logger,
	}
}

// recordInvoker returns the resolved record with the invocation parameters
// merged over it.
type recordInvoker struct{}

func (recordInvoker) Invoke(_ context.Context, _ string, record Value, params []Arg) (Value, error) {
	merged := make(map[string]Value, len(record.Vessel())+len(params))
	for k, v := range record.Vessel() {
		merged[k] = v
	}
	for _, p := range params {
		merged[p.Name] = p.Value
	}
	return NewVessel(merged), nil
}
