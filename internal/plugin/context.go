package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// DefaultPushTimeout bounds how long a push-async worker waits for its reply.
const DefaultPushTimeout = 5 * time.Minute

// Deps are the infrastructure collaborators available to constructors.
type Deps struct {
	Processes   domain.ProcessManager
	FileSystem  domain.FileSystemManager
	Windows     domain.WindowInspector
	Multiplexer domain.MultiplexerInspector
	Notifier    domain.Notifier
	Prompter    domain.Prompter
	Commands    domain.CommandRunner
	Store       domain.TrackerStore
	Clock       domain.Clock

	PushTimeout time.Duration
}

// Context is the dependency broker. It resolves a role and export name to
// a live worker instance and evaluates it.
type Context struct {
	registry *Registry
	deps     Deps
	logger   *zap.Logger

	mu        sync.Mutex
	instances map[domain.Role]map[string]Worker
}

// NewContext creates a context over a registry.
func NewContext(registry *Registry, deps Deps, logger *zap.Logger) *Context {
	if deps.PushTimeout <= 0 {
		deps.PushTimeout = DefaultPushTimeout
	}
	return &Context{
		registry:  registry,
		deps:      deps,
		logger:    logger,
		instances: make(map[domain.Role]map[string]Worker),
	}
}

func (c *Context) Registry() *Registry { return c.registry }

func (c *Context) Deps() Deps { return c.deps }

func (c *Context) Logger() *zap.Logger { return c.logger }

// Make returns the cached instance for (role, name, opts), constructing it
// on first use. Instances live as long as the context, so a stateful
// worker is the same object on every call.
func (c *Context) Make(role domain.Role, name string, opts domain.Options) (Worker, error) {
	key := instanceKey(name, opts)

	c.mu.Lock()
	w, ok := c.instances[role][key]
	c.mu.Unlock()
	if ok {
		return w, nil
	}

	// Constructors may call Make themselves, so build outside the lock.
	w, err := c.New(role, name, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[role][key]; ok {
		return existing, nil
	}
	if c.instances[role] == nil {
		c.instances[role] = make(map[string]Worker)
	}
	c.instances[role][key] = w
	return w, nil
}

// New constructs a fresh, uncached instance.
func (c *Context) New(role domain.Role, name string, opts domain.Options) (Worker, error) {
	class, err := c.registry.Lookup(role, name)
	if err != nil {
		return nil, err
	}
	w, err := class.New(c, opts)
	if err != nil {
		return nil, fmt.Errorf("construct %s %q: %w", role, name, err)
	}
	return w, nil
}

// Get resolves name in role, evaluates it with args and returns the result.
// ruleName is attached to the log fields only.
func (c *Context) Get(ctx context.Context, role domain.Role, name string, args domain.Args, ruleName string) (any, error) {
	w, err := c.Make(role, name, nil)
	if err != nil {
		return nil, err
	}
	return Evaluate(ctx, c.WorkerLogger(role, name, ruleName), w, args)
}

// Report evaluates a reporter.
func (c *Context) Report(ctx context.Context, name string, args domain.Args, ruleName string) (any, error) {
	return c.Get(ctx, domain.RoleReporter, name, args, ruleName)
}

// Check evaluates a checker and returns its verdict.
func (c *Context) Check(ctx context.Context, name string, args domain.Args, ruleName string) (bool, error) {
	w, err := c.Make(domain.RoleChecker, name, nil)
	if err != nil {
		return false, err
	}
	result, err := Evaluate(ctx, c.WorkerLogger(domain.RoleChecker, name, ruleName), w, args)
	if err != nil {
		return false, err
	}
	return asBool(w, result)
}

// Fix evaluates a fixer.
func (c *Context) Fix(ctx context.Context, name string, args domain.Args, ruleName string) (any, error) {
	return c.Get(ctx, domain.RoleFixer, name, args, ruleName)
}

// WorkerLogger returns the logger used for one worker invocation.
func (c *Context) WorkerLogger(role domain.Role, name, ruleName string) *zap.Logger {
	fields := []zap.Field{zap.String("role", string(role)), zap.String("worker", name)}
	if ruleName != "" {
		fields = append(fields, zap.String("rule", ruleName))
	}
	return c.logger.With(fields...)
}

// instanceKey identifies an instance by name and canonical options.
// encoding/json sorts map keys, which makes the key stable.
func instanceKey(name string, opts domain.Options) string {
	if len(opts) == 0 {
		return name
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Sprintf("%s|%v", name, opts)
	}
	return name + "|" + string(data)
}
