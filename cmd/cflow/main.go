package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"cflow/cfg"
	"cflow/fixture"
	"cflow/model"
	"cflow/printer"
)

func main() {
	runCmd := &cli.Command{
		Name:   "run",
		Action: runAct,
		Args:   cli.Args{},
	}

	sourceCmd := &cli.Command{
		Name:   "source",
		Action: sourceAct,
		Args:   cli.Args{},
	}

	treeCmd := &cli.Command{
		Name:   "tree",
		Action: treeAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "cflow",
		Description: "cflow lowers a structured program fixture to a control-flow graph",
		Commands: []*cli.Command{
			runCmd,
			sourceCmd,
			treeCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		root, err := loadFixture(ctx, a)
		if err != nil {
			return errors.Wrap(err, "run %v", a)
		}

		prog, err := cfg.Lower(ctx, root)
		if err != nil {
			return errors.Wrap(err, "lower %v", a)
		}

		out, err := printer.CFG(ctx, prog)
		if err != nil {
			return errors.Wrap(err, "cfg dump %v", a)
		}

		fmt.Print(string(out))
	}

	return nil
}

func sourceAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		root, err := loadFixture(ctx, a)
		if err != nil {
			return errors.Wrap(err, "source %v", a)
		}

		out, err := printer.Structured(ctx, root)
		if err != nil {
			return errors.Wrap(err, "structured dump %v", a)
		}

		fmt.Print(string(out))
	}

	return nil
}

func treeAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		root, err := loadFixture(ctx, a)
		if err != nil {
			return errors.Wrap(err, "tree %v", a)
		}

		fmt.Println(printer.AsciiTree[string, string](root))
	}

	return nil
}

func loadFixture(ctx context.Context, path string) (*model.CodeBlock[string, string], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read %v", path)
	}

	root, err := fixture.Build(ctx, data)
	if err != nil {
		return nil, errors.Wrap(err, "build %v", path)
	}

	return root, nil
}
