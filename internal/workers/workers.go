// Package workers provides the built-in reporters, checkers and fixers.
// Every worker registers itself with plugin.Default from init; importing
// the package for side effects makes them resolvable by name.
package workers

import (
	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// requireDep fails construction when a collaborator is not wired.
func requireDep(ok bool, field string) error {
	if !ok {
		return domain.NewConfigError(field, "collaborator not configured")
	}
	return nil
}

// pidArg extracts a positive PID from args.
func pidArg(args domain.Args) (int, error) {
	pid, ok := args.Int("pid")
	if !ok || pid <= 0 {
		return 0, domain.NewConfigError("pid", "a positive pid is required")
	}
	return pid, nil
}

// stringArg returns args[key], falling back to opts[key].
func stringArg(args domain.Args, opts domain.Options, key string) string {
	if s := args.String(key); s != "" {
		return s
	}
	return opts.String(key)
}
