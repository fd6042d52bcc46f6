// Package flags defines the command-line flags of deadlockbench and turns
// them into options of the packages they configure.
package flags

import (
	"time"

	"github.com/urfave/cli/v2"
)

// FlagDesc describes a flag independently of its type and default value.
type FlagDesc struct {
	Name        string
	Category    string
	Aliases     []string
	Usage       string
	Envs        []string
	DefaultText string
}

func (fd *FlagDesc) DurationFlag(required bool, defaultValue time.Duration) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:        fd.Name,
		Category:    fd.Category,
		Aliases:     fd.Aliases,
		Usage:       fd.Usage,
		EnvVars:     fd.Envs,
		Required:    required,
		Value:       defaultValue,
		DefaultText: fd.DefaultText,
	}
}

func (fd *FlagDesc) Uint64Flag(required bool, defaultValue uint64) *cli.Uint64Flag {
	return &cli.Uint64Flag{
		Name:        fd.Name,
		Category:    fd.Category,
		Aliases:     fd.Aliases,
		Usage:       fd.Usage,
		EnvVars:     fd.Envs,
		Required:    required,
		Value:       defaultValue,
		DefaultText: fd.DefaultText,
	}
}

func (fd *FlagDesc) IntFlag(required bool, defaultValue int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:        fd.Name,
		Category:    fd.Category,
		Aliases:     fd.Aliases,
		Usage:       fd.Usage,
		EnvVars:     fd.Envs,
		Required:    required,
		Value:       defaultValue,
		DefaultText: fd.DefaultText,
	}
}

func (fd *FlagDesc) StringFlag(required bool, defaultValue string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        fd.Name,
		Category:    fd.Category,
		Aliases:     fd.Aliases,
		Usage:       fd.Usage,
		EnvVars:     fd.Envs,
		Required:    required,
		Value:       defaultValue,
		DefaultText: fd.DefaultText,
	}
}

func (fd *FlagDesc) BoolFlag(defaultValue bool) *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        fd.Name,
		Category:    fd.Category,
		Aliases:     fd.Aliases,
		Usage:       fd.Usage,
		EnvVars:     fd.Envs,
		Value:       defaultValue,
		DefaultText: fd.DefaultText,
	}
}
