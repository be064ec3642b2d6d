package workers

import (
	"context"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

func init() {
	plugin.Register(plugin.Class{
		Role:        domain.RoleFixer,
		Name:        "prompt",
		Description: "ask the user for text; answers arrive on a later tick",
		New:         newPrompt(false),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleFixer,
		Name:        "prompt_yesno",
		Description: "ask the user a yes/no question; answers arrive on a later tick",
		New:         newPrompt(true),
	})
}

// promptPusher shows a dialog and answers through callbacks.
type promptPusher struct {
	plugin.FixerTraits
	prompter domain.Prompter
	yesno    bool
}

func (p *promptPusher) Push(ctx context.Context, args domain.Args, reply func(any), fail func(error)) error {
	message := args.String("message")
	identifier := args.String("identifier")
	if p.yesno {
		return p.prompter.PromptYesNo(ctx, message, identifier, reply, fail)
	}
	return p.prompter.PromptText(ctx, message, identifier, reply, fail)
}

// newPrompt builds a push-async prompt. Instances are keyed by their
// options, so each owner passes its own identifier to get its own dialog.
func newPrompt(yesno bool) plugin.Factory {
	return func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
		deps := c.Deps()
		if err := requireDep(deps.Prompter != nil, "prompter"); err != nil {
			return nil, err
		}
		name := "prompt"
		if yesno {
			name = "prompt_yesno"
		}
		pusher := &promptPusher{prompter: deps.Prompter, yesno: yesno}
		logger := c.WorkerLogger(domain.RoleFixer, name, opts.String("identifier"))
		return plugin.NewPushAsync(pusher, deps.PushTimeout, logger), nil
	}
}
