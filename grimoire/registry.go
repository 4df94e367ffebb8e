package grimoire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/mielalabs/mpl-magick/mpl"
)

// Handler implements one standard-library function.
type Handler func(ctx context.Context, args []mpl.Value) (mpl.Value, error)

// Function describes a callable entry. Params lists the parameter names;
// the first Required of them must be supplied.
type Function struct {
	Name     string
	Params   []string
	Required int
	Doc      string
	Handler  Handler
}

func (f Function) Signature() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		if i >= f.Required {
			p += "?"
		}
		parts[i] = p
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, ", "))
}

type Module struct {
	Name      string
	Doc       string
	Functions []Function
}

// Options configures the host capabilities exposed to programs.
type Options struct {
	Logger         *log.Logger
	HTTPClient     *http.Client
	HTTPTimeout    time.Duration
	Dialer         *websocket.Dialer
	AllowProcesses bool
	Input          io.Reader
	Output         io.Writer
}

// Registry is a closed table of (module, function) handlers built and
// validated once at startup. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	outMu   sync.Mutex
	modules map[string]*Module
	index   map[string]map[string]Function
	logger  *log.Logger
	opts    Options

	daemons *daemonTable
	omens   *omenReader
}

var (
	errDuplicate = errors.New("duplicate registration")
	errInvalid   = errors.New("invalid registration")
)

// New builds the standard grimoire.
func New(opts Options) (*Registry, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.HTTPTimeout}
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: opts.HTTPTimeout}
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Registry{
		modules: make(map[string]*Module),
		index:   make(map[string]map[string]Function),
		logger:  opts.Logger.WithPrefix("grimoire"),
		opts:    opts,
		daemons: newDaemonTable(),
		omens:   newOmenReader(opts.Input),
	}

	for _, module := range []Module{
		r.hermeticModule(),
		r.solomonicModule(),
		r.teslaModule(),
		r.divinationModule(),
		r.runicModule(),
		r.occultatorModule(),
	} {
		if err := r.Register(module); err != nil {
			return nil, fmt.Errorf("failed to register module %s: %w", module.Name, err)
		}
	}

	r.logger.Debug("grimoire initialized", "modules", len(r.modules))
	return r, nil
}

// Register adds a module after validating every entry.
func (r *Registry) Register(module Module) error {
	name := strings.TrimSpace(module.Name)
	if name == "" {
		return fmt.Errorf("%w: module name cannot be empty", errInvalid)
	}

	functions := make(map[string]Function, len(module.Functions))
	for _, fn := range module.Functions {
		if strings.TrimSpace(fn.Name) == "" {
			return fmt.Errorf("%w: %s has a function without a name", errInvalid, name)
		}
		if fn.Handler == nil {
			return fmt.Errorf("%w: %s.%s has no handler", errInvalid, name, fn.Name)
		}
		if fn.Required < 0 || fn.Required > len(fn.Params) {
			return fmt.Errorf("%w: %s.%s requires %d of %d params", errInvalid, name, fn.Name, fn.Required, len(fn.Params))
		}
		if _, exists := functions[fn.Name]; exists {
			return fmt.Errorf("%w: %s.%s", errDuplicate, name, fn.Name)
		}
		functions[fn.Name] = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("%w: module %s", errDuplicate, name)
	}
	module.Name = name
	r.modules[name] = &module
	r.index[name] = functions
	return nil
}

func (r *Registry) HasModule(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[module]
	return ok
}

// Call dispatches to module.function. Unknown names wrap mpl.ErrFizzle.
func (r *Registry) Call(ctx context.Context, module, function string, args []mpl.Value) (mpl.Value, error) {
	r.mu.RLock()
	fn, ok := r.index[module][function]
	r.mu.RUnlock()
	if !ok {
		return mpl.NewVoid(), fmt.Errorf("%w: unknown ritual %s.%s", mpl.ErrFizzle, module, function)
	}
	if len(args) < fn.Required || len(args) > len(fn.Params) {
		return mpl.NewVoid(), fmt.Errorf("%s.%s expects %s, got %d arguments", module, fn.Name, arity(fn), len(args))
	}
	r.logger.Debug("ritual call", "module", module, "function", function, "args", len(args))
	return fn.Handler(ctx, args)
}

// Modules lists registered modules sorted by name.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Module, 0, len(r.modules))
	for _, module := range r.modules {
		out = append(out, *module)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close terminates daemons spawned by solomonic.summon.
func (r *Registry) Close() error {
	return r.daemons.banishAll()
}

func arity(fn Function) string {
	if fn.Required == len(fn.Params) {
		return fmt.Sprintf("%d arguments", len(fn.Params))
	}
	return fmt.Sprintf("%d to %d arguments", fn.Required, len(fn.Params))
}
