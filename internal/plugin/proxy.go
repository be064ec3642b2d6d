package plugin

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// Identifier is implemented by orchestrators that have a name of their own.
type Identifier interface {
	Identifier() string
}

// IdentityOf returns v's Identifier, or its type name when it has none.
func IdentityOf(v any) string {
	if id, ok := v.(Identifier); ok {
		if name := id.Identifier(); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// Proxy is an orchestrator's view of a Context. Every call is tagged with
// the orchestrator's identity so downstream effects can be attributed.
type Proxy struct {
	context  *Context
	identity string
}

// NewProxy creates a proxy that tags calls with owner's identity.
func NewProxy(c *Context, owner any) Proxy {
	return Proxy{context: c, identity: IdentityOf(owner)}
}

func (p Proxy) Identity() string { return p.identity }

func (p Proxy) Context() *Context { return p.context }

// Logger returns the context logger tagged with the identity.
func (p Proxy) Logger() *zap.Logger {
	return p.context.Logger().With(zap.String("rule", p.identity))
}

func (p Proxy) Report(ctx context.Context, name string, args domain.Args) (any, error) {
	return p.context.Report(ctx, name, args, p.identity)
}

func (p Proxy) Check(ctx context.Context, name string, args domain.Args) (bool, error) {
	return p.context.Check(ctx, name, args, p.identity)
}

func (p Proxy) Fix(ctx context.Context, name string, args domain.Args) (any, error) {
	return p.context.Fix(ctx, name, args, p.identity)
}
