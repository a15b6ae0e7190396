// Command sciresource inspects the resources of an SCI game directory.
//
//	sciresource [flags] info
//	sciresource [flags] list [type]
//	sciresource [flags] extract type.number [out]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	sci "github.com/32bitkid/sciresource"
	"github.com/32bitkid/sciresource/resource"
)

func main() {
	if err := run(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "sciresource: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: sciresource [flags] info | list [type] | extract type.number [out]")

func run(args []string, fs afero.Fs, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("sciresource", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		dir        = flags.String("dir", "", "game directory (default from config, else .)")
		configFile = flags.String("config", "", "JSON configuration file")
		budget     = flags.String("budget", "", "memory budget, e.g. 256KiB")
		version    = flags.String("version", "", "sci version, or autodetect")
		verbose    = flags.Bool("v", false, "debug logging")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	c := sci.DefaultConfig()
	if *configFile != "" {
		var err error
		if c, err = sci.LoadConfig(fs, *configFile); err != nil {
			return err
		}
	}
	if *dir != "" {
		c.Dir = *dir
	}
	if *budget != "" {
		c.MemoryBudget = *budget
	}
	if *version != "" {
		c.Version = *version
	}
	if *verbose {
		c.LogLevel = "debug"
	}

	root, err := sci.NewRootFromConfig(fs, c)
	if err != nil {
		return err
	}
	if root.Logger, err = c.Logger(stderr); err != nil {
		return err
	}

	if flags.NArg() == 0 {
		return errUsage
	}
	cmd, rest := flags.Arg(0), flags.Args()[1:]

	m, err := root.Open()
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd {
	case "info":
		return info(stdout, m)
	case "list":
		return list(stdout, m, rest)
	case "extract":
		return extract(fs, stdout, m, rest)
	}
	return errUsage
}

func info(w io.Writer, m *resource.Manager) error {
	fmt.Fprintf(w, "version:  %v\n", m.Version())
	fmt.Fprintf(w, "map:      %v\n", m.MapFormat())
	fmt.Fprintf(w, "volumes:  %v\n", m.VolumeFormat())
	for _, src := range m.Sources() {
		fmt.Fprintf(w, "source:   %v %s\n", src.Kind, src.Location)
	}
	for t := resource.TypeView; t < resource.TypeInvalid; t++ {
		if n := len(m.List(t)); n > 0 {
			fmt.Fprintf(w, "%-9s %d\n", t.Name()+":", n)
		}
	}
	for _, warning := range m.Warnings() {
		fmt.Fprintf(w, "warning:  %v\n", warning)
	}
	return nil
}

func list(w io.Writer, m *resource.Manager, args []string) error {
	var types []resource.Type
	if len(args) > 0 {
		t, ok := resource.TypeFromName(args[0])
		if !ok {
			return fmt.Errorf("unknown resource type %q", args[0])
		}
		types = append(types, t)
	}

	for _, mapping := range sci.Mappings(m, types...) {
		res := m.Test(mapping.Type(), mapping.Number())
		fmt.Fprintf(w, "%v\t%s\t%#x\n", mapping.ID(), res.Source().Location, res.Offset())
	}
	return nil
}

func extract(fs afero.Fs, w io.Writer, m *resource.Manager, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	id, err := resource.ParseID(args[0])
	if err != nil {
		return err
	}

	data, err := m.Find(id.Type(), id.Number(), false)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		_, err = w.Write(data)
		return err
	}
	return afero.WriteFile(fs, args[1], data, 0o644)
}
