// Package sci implements access to the resources of Sierra On-Line games
// built on the Sierra Creative Interpreter.
//
// The Sierra Creative Interpreter version 0 (SCI0) was Sierra On-Line's
// second generation game engine, succeeding the Adventure Game
// Interpreter (AGI). It implemented several upgrades over AGI, namely full
// EGA (320x200x16) support, improved audio/music support.
//
// The SCI0 was succeeded by SCI1, SCI2, and SCI32 engines that extended support
// for even more sound cards, VGA and SVGA graphics, and FVM. Each generation
// changed how resources were indexed and compressed; package resource
// detects the layout and decodes them on demand.
package sci

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/32bitkid/sciresource/resource"
)

// Root is reference to the root path of a SCI game.
type Root struct {
	Path    string
	FS      afero.Fs
	Version resource.Version
	Budget  int
	Logger  *slog.Logger
	Metrics *resource.Metrics
}

// NewRoot refers to a game on the local disk and detects its version.
func NewRoot(path string) Root {
	return Root{
		Path:    path,
		FS:      afero.NewOsFs(),
		Version: resource.Autodetect,
		Budget:  resource.DefaultMemoryBudget,
	}
}

func NewSCI0Root(path string) Root {
	root := NewRoot(path)
	root.Version = resource.SCI0
	return root
}

func NewSCI01Root(path string) Root {
	root := NewRoot(path)
	root.Version = resource.SCI01EGA
	return root
}

// NewRootFromConfig builds a Root for the game described by c on fs.
func NewRootFromConfig(fs afero.Fs, c Config) (Root, error) {
	if err := c.Validate(); err != nil {
		return Root{}, err
	}
	budget, _ := c.Budget()
	version, _ := c.ParsedVersion()
	return Root{
		Path:    c.Dir,
		FS:      fs,
		Version: version,
		Budget:  budget,
	}, nil
}

// Open indexes the game's resource files.
func (root Root) Open(opts ...resource.Option) (*resource.Manager, error) {
	fs := root.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	base := []resource.Option{
		resource.WithDirectory(root.Path),
		resource.WithVersion(root.Version),
	}
	if root.Budget > 0 {
		base = append(base, resource.WithMemoryBudget(root.Budget))
	}
	if root.Logger != nil {
		base = append(base, resource.WithLogger(root.Logger))
	}
	if root.Metrics != nil {
		base = append(base, resource.WithMetrics(root.Metrics))
	}
	return resource.New(fs, append(base, opts...)...)
}
