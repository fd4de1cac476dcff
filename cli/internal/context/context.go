package context

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	defaultsv1alpha1 "github.com/sk31337/oca/bindings/go/configuration/defaults/v1alpha1/spec"
	genericv1 "github.com/sk31337/oca/bindings/go/configuration/generic/v1/spec"
	"github.com/sk31337/oca/bindings/go/overlayfile"
)

type ctxKey string

const key ctxKey = "github.com/sk31337/oca/cli/internal/context"

// Context is the oca command line context.
// It contains pointers to centrally managed structures that are created
// once during command setup and read by the commands afterwards.
// Access always goes through [FromContext], which is an O(1) lookup.
type Context struct {
	mu sync.RWMutex

	// configuration is the flattened configuration file of the CLI.
	// In case the config is not set, default values should be used.
	configuration *genericv1.Config

	// defaults are the resolved flag defaults from the configuration.
	defaults *defaultsv1alpha1.Config

	// rules are the overlay rules that bundles are validated against.
	rules *overlayfile.Rules
}

// WithConfiguration creates a new context with the given configuration.
// After this function is called, the configuration can be retrieved from the context
// using [FromContext] and [Context.Configuration].
func WithConfiguration(ctx context.Context, cfg *genericv1.Config) context.Context {
	ctx, ocactx := retrieveOrCreateOCAContext(ctx)
	ocactx.mu.Lock()
	defer ocactx.mu.Unlock()
	ocactx.configuration = cfg
	return ctx
}

// WithDefaults creates a new context with the given defaults configuration.
func WithDefaults(ctx context.Context, cfg *defaultsv1alpha1.Config) context.Context {
	ctx, ocactx := retrieveOrCreateOCAContext(ctx)
	ocactx.mu.Lock()
	defer ocactx.mu.Unlock()
	ocactx.defaults = cfg
	return ctx
}

// WithRules creates a new context with the given overlay rules.
func WithRules(ctx context.Context, rules *overlayfile.Rules) context.Context {
	ctx, ocactx := retrieveOrCreateOCAContext(ctx)
	ocactx.mu.Lock()
	defer ocactx.mu.Unlock()
	ocactx.rules = rules
	return ctx
}

// Register registers the command to contain a new Context object.
func Register(cmd *cobra.Command) {
	ctx, _ := retrieveOrCreateOCAContext(cmd.Context())
	cmd.SetContext(ctx)
}

func (ctx *Context) Configuration() *genericv1.Config {
	if ctx == nil {
		return nil
	}
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.configuration
}

func (ctx *Context) Defaults() *defaultsv1alpha1.Config {
	if ctx == nil {
		return nil
	}
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.defaults
}

func (ctx *Context) Rules() *overlayfile.Rules {
	if ctx == nil {
		return nil
	}
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.rules
}

// FromContext retrieves the oca context from the given context.
// If the oca context does not exist, it returns nil.
// Within a command which was set up by the pre run hook
// the context is always available.
func FromContext(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}

	if v, ok := ctx.Value(key).(*Context); ok {
		return v
	}
	return nil
}

// WithContext creates a new context with the given oca context.
func WithContext(ctx context.Context, c *Context) context.Context {
	if c == nil {
		return nil
	}
	return context.WithValue(ctx, key, c)
}

func retrieveOrCreateOCAContext(ctx context.Context) (context.Context, *Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ocactx := FromContext(ctx)
	if ocactx == nil {
		ocactx = &Context{}
		ctx = WithContext(ctx, ocactx)
	}
	return ctx, ocactx
}
