package workers

import (
	"context"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

func init() {
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "file_content",
		Description: "content of the file at path",
		New:         newFileContent,
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleFixer,
		Name:        "delete_path",
		Description: "delete a file, directory or glob if it exists",
		New:         newDeletePath,
	})
}

type fileContent struct {
	plugin.ReporterTraits
	fs   domain.FileSystemManager
	opts domain.Options
}

func newFileContent(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	fs := c.Deps().FileSystem
	if err := requireDep(fs != nil, "filesystem"); err != nil {
		return nil, err
	}
	return &fileContent{fs: fs, opts: opts}, nil
}

func (f *fileContent) Run(ctx context.Context, args domain.Args) (any, error) {
	path := stringArg(args, f.opts, "path")
	if path == "" {
		return nil, domain.NewConfigError("path", "file_content needs a path")
	}
	return f.fs.ReadFile(path)
}

type deletePath struct {
	plugin.FixerTraits
	fs domain.FileSystemManager
}

func newDeletePath(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	fs := c.Deps().FileSystem
	if err := requireDep(fs != nil, "filesystem"); err != nil {
		return nil, err
	}
	return &deletePath{fs: fs}, nil
}

// Run returns true when something was deleted.
func (d *deletePath) Run(ctx context.Context, args domain.Args) (any, error) {
	path := args.String("path")
	if path == "" {
		return nil, domain.NewConfigError("path", "delete_path needs a path")
	}
	if !d.fs.Exists(path) {
		return false, nil
	}
	if err := d.fs.Delete(path); err != nil {
		return nil, err
	}
	return true, nil
}
