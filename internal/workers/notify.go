package workers

import (
	"context"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

const (
	// NotifyInterval is the minimum spacing of notifications.
	NotifyInterval = 500 * time.Millisecond

	defaultHeadline = "Actor Alert!"
	defaultAppName  = "Actor"
)

func init() {
	plugin.Register(plugin.Class{
		Role:        domain.RoleFixer,
		Name:        "notify",
		Description: "show a desktop notification, at most one per 500ms",
		New:         newNotify,
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleFixer,
		Name:        "run_command",
		Description: "start a shell command without waiting for it",
		New:         newRunCommand,
	})
}

// notify throttles notifications, so it keeps state between calls.
type notify struct {
	notifier domain.Notifier
	clock    domain.Clock

	mu   sync.Mutex
	last time.Time
}

func newNotify(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	deps := c.Deps()
	if err := requireDep(deps.Notifier != nil, "notifier"); err != nil {
		return nil, err
	}
	if err := requireDep(deps.Clock != nil, "clock"); err != nil {
		return nil, err
	}
	return &notify{notifier: deps.Notifier, clock: deps.Clock}, nil
}

func (n *notify) Traits() plugin.Traits {
	return plugin.Traits{SideEffects: true}
}

// Run returns true when the notification was shown.
func (n *notify) Run(ctx context.Context, args domain.Args) (any, error) {
	message := args.String("message")
	if message == "" {
		return nil, domain.NewConfigError("message", "notify needs a message")
	}

	now := n.clock.Now()
	n.mu.Lock()
	if !n.last.IsZero() && now.Sub(n.last) < NotifyInterval {
		n.mu.Unlock()
		return false, nil
	}
	n.last = now
	n.mu.Unlock()

	note := domain.Notification{
		Headline: args.String("headline"),
		Message:  message,
		AppName:  args.String("app_name"),
	}
	if note.Headline == "" {
		note.Headline = defaultHeadline
	}
	if note.AppName == "" {
		note.AppName = defaultAppName
	}
	if seconds, ok := args.Int("timeout"); ok {
		note.Timeout = time.Duration(seconds) * time.Second
	}

	if err := n.notifier.Notify(ctx, note); err != nil {
		return nil, err
	}
	return true, nil
}

type runCommand struct {
	plugin.FixerTraits
	commands domain.CommandRunner
}

func newRunCommand(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	commands := c.Deps().Commands
	if err := requireDep(commands != nil, "commands"); err != nil {
		return nil, err
	}
	return &runCommand{commands: commands}, nil
}

func (r *runCommand) Run(ctx context.Context, args domain.Args) (any, error) {
	command := args.String("command")
	if command == "" {
		return nil, domain.NewConfigError("command", "run_command needs a command")
	}
	if err := r.commands.Start(ctx, command); err != nil {
		return nil, domain.Transient(err)
	}
	return nil, nil
}
