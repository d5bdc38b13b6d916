package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"hdoc/archive"
	"hdoc/builder"
	"hdoc/state"
	"hdoc/tags"
)

func insertCommand() *cli.Command {
	return &cli.Command{
		Name:         "insert",
		Usage:        "Loads base document, inserts fragment at offset and prints the result",
		OnUsageError: usageErrorHandler,
		Action:       runInsert,
		ArgsUsage:    "BASE FRAGMENT",
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			&cli.IntFlag{Name: "at", Required: true, Usage: "character `OFFSET` in base document"},
			&cli.StringFlag{Name: "tag", Usage: "skip fragment up to element `NAME` and insert from there (overrides configuration)"},
			charsetFlag(),
			zipNamesFlag(),
		},
	}
}

func runInsert(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() != 2 {
		return errors.New("base document and fragment are required")
	}
	c := collector(env, cmd)
	base, err := single(ctx, c, cmd.Args().Get(0))
	if err != nil {
		return err
	}
	fragment, err := single(ctx, c, cmd.Args().Get(1))
	if err != nil {
		return err
	}
	charset := cmd.String("charset")

	load := env.BuilderOptions()
	load.InsertTag = nil
	doc, err := loadFile(ctx, env, base, load, charset)
	if err != nil {
		return err
	}

	opts := env.BuilderOptions()
	opts.Offset = int(cmd.Int("at"))
	if name := cmd.String("tag"); name != "" {
		t, ok := tags.Lookup(name)
		if !ok || !t.Role().IsBlock() {
			return fmt.Errorf("insert tag %q is not a known block element", name)
		}
		opts.InsertTag = t
	}
	if opts.InsertTag != nil {
		pos, err := builder.Locate(doc, opts.Offset, tags.Body)
		if err != nil {
			return fmt.Errorf("unable to position insertion: %w", err)
		}
		opts.PopDepth, opts.PushDepth = pos.PopDepth, pos.PushDepth
	}

	events, err := parseFile(fragment, charset)
	if err != nil {
		return err
	}
	before := doc.Len()
	if err := builder.Build(ctx, doc, events, opts, env.Log.With(zap.String("fragment", fragment.Name))); err != nil {
		return fmt.Errorf("unable to insert %s: %w", fragment.Name, err)
	}
	if err := doc.Check(); err != nil {
		return fmt.Errorf("inconsistent document after insertion: %w", err)
	}
	storeSource(env, fragment)
	env.Log.Info("Inserted", zap.String("fragment", fragment.Name), zap.Int("offset", opts.Offset), zap.Int("added", doc.Len()-before))

	w, closer, err := openOutput(cmd.String("output"))
	if err != nil {
		return err
	}
	defer func() {
		if er := closer(); er != nil && err == nil {
			err = er
		}
	}()
	if err := render(w, doc, cmd.String("format")); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}

// single expands argument expecting exactly one source.
func single(ctx context.Context, c *archive.Collector, arg string) (archive.Source, error) {
	found, err := collectSources(ctx, c, []string{arg})
	if err != nil {
		return archive.Source{}, err
	}
	if len(found) != 1 {
		return archive.Source{}, fmt.Errorf("%s names %d sources, expected single one", arg, len(found))
	}
	return found[0], nil
}
