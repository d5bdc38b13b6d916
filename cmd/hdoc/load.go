package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hdoc/archive"
	"hdoc/builder"
	"hdoc/config"
	"hdoc/source"
	"hdoc/state"
	"hdoc/tree"
)

const (
	formatText = "text"
	formatXML  = "xml"
)

func loadCommand() *cli.Command {
	return &cli.Command{
		Name:         "load",
		Usage:        "Builds document tree for every HTML source and prints it",
		OnUsageError: usageErrorHandler,
		Action:       runLoad,
		ArgsUsage:    "SOURCE [SOURCE...]",
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			charsetFlag(),
			zipNamesFlag(),
			&cli.IntFlag{Name: "threshold", Value: -1, Usage: "override number of buffered instructions triggering intermediate flush"},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: runtime.NumCPU(), Usage: "number of sources to process concurrently"},
			&cli.StringFlag{Name: "name-template", Aliases: []string{"t"},
				Usage: "write every tree into its own file named by `TEMPLATE` (Go template, fields: .Title .Language .Format .SourceFile .SourceDir .Index .DocID), --output names directory then"},
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatText,
		Usage: "output `FORMAT` (supported: " + formatText + ", " + formatXML + ")",
		Validator: func(v string) error {
			if v != formatText && v != formatXML {
				return fmt.Errorf("unsupported output format %q", v)
			}
			return nil
		},
	}
}

func charsetFlag() cli.Flag {
	return &cli.StringFlag{Name: "charset", Usage: "assume `ENCODING` for sources without declared one"}
}

func zipNamesFlag() cli.Flag {
	return &cli.StringFlag{Name: "force-zip-cp",
		Usage: "force `ENCODING` for all non UTF-8 file names in archives (see IANA.org for character set names)"}
}

// collector prepares source lookup according to command flags.
func collector(env *state.LocalEnv, cmd *cli.Command) *archive.Collector {
	c := archive.NewCollector(env.Log)
	if cp := cmd.String("force-zip-cp"); cp != "" {
		enc, err := archive.NameEncoding(cp)
		if err != nil {
			env.Log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
		} else {
			c.Names = enc
		}
	}
	return c
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write result to `FILE` instead of STDOUT"}
}

// parseFile reads HTML source, charset is used when source does not declare
// its own encoding.
func parseFile(src archive.Source, charset string) (source.Events, error) {
	f, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open source: %w", err)
	}
	defer f.Close()

	contentType := "text/html"
	if charset != "" {
		contentType += "; charset=" + charset
	}
	events, err := source.Parse(f, contentType)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", src.Name, err)
	}
	return events, nil
}

// loadFile builds fresh document from src.
func loadFile(ctx context.Context, env *state.LocalEnv, src archive.Source, opts builder.Options, charset string) (*tree.Document, error) {
	events, err := parseFile(src, charset)
	if err != nil {
		return nil, err
	}

	doc := env.NewDocument()
	if err := builder.Build(ctx, doc, events, opts, env.Log.With(zap.String("source", src.Name))); err != nil {
		return nil, fmt.Errorf("unable to build %s: %w", src.Name, err)
	}
	if err := doc.Check(); err != nil {
		return nil, fmt.Errorf("inconsistent document built from %s: %w", src.Name, err)
	}
	storeSource(env, src)
	return doc, nil
}

// storeSource puts source into debug report, archive entries are kept with
// their archive.
func storeSource(env *state.LocalEnv, src archive.Source) {
	if src.InArchive() {
		return
	}
	env.Rpt.Store("sources/"+config.SafeName(src.Name), src.Name)
}

// collectSources expands command arguments into list of sources.
func collectSources(ctx context.Context, c *archive.Collector, args []string) ([]archive.Source, error) {
	var out []archive.Source
	for _, arg := range args {
		found, err := c.Collect(ctx, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if len(out) == 0 {
		return nil, errors.New("no sources found")
	}
	return out, nil
}

func render(w io.Writer, doc *tree.Document, format string) error {
	if format == formatXML {
		return doc.WriteXML(w)
	}
	_, err := io.WriteString(w, doc.String())
	return err
}

// openOutput returns destination for results and function to close it.
func openOutput(name string) (io.Writer, func() error, error) {
	if name == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create destination file '%s': %w", name, err)
	}
	return f, f.Close, nil
}

func runLoad(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return errors.New("no sources to load")
	}
	sources, err := collectSources(ctx, collector(env, cmd), cmd.Args().Slice())
	if err != nil {
		return err
	}

	opts := env.BuilderOptions()
	if n := cmd.Int("threshold"); n >= 0 {
		opts.Threshold = int(n)
	}
	if opts.InsertTag != nil {
		env.Log.Debug("Insert tag is ignored when loading", zap.Stringer("tag", opts.InsertTag))
		opts.InsertTag = nil
	}

	// each source gets its own document, builders never share one
	docs := make([]*tree.Document, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, int(cmd.Int("jobs"))))
	for i, src := range sources {
		g.Go(func() error {
			doc, err := loadFile(gctx, env, src, opts, cmd.String("charset"))
			if err != nil {
				return err
			}
			docs[i] = doc
			env.Log.Info("Loaded", zap.String("source", src.Name), zap.Int("length", doc.Len()), zap.String("title", doc.Title()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	format := cmd.String("format")
	if field := cmd.String("name-template"); field != "" {
		dir := cmd.String("output")
		if dir == "" {
			dir = "."
		}
		written, err := writeNamed(dir, field, docs, sources, format)
		for _, path := range written {
			env.Log.Info("Written", zap.String("file", path))
			env.Rpt.Store("trees/"+config.SafeName(path), path)
		}
		return err
	}

	w, closer, err := openOutput(cmd.String("output"))
	if err != nil {
		return err
	}
	defer func() {
		if er := closer(); er != nil && err == nil {
			err = er
		}
	}()

	for i, doc := range docs {
		if len(docs) > 1 {
			fmt.Fprintf(w, "== %s ==\n", sources[i].Name)
		}
		if err := render(w, doc, format); err != nil {
			return fmt.Errorf("unable to write result: %w", err)
		}
		var dump strings.Builder
		if err := render(&dump, doc, format); err == nil {
			env.Rpt.StoreData("trees/"+config.SafeName(sources[i].Name)+"."+format, []byte(dump.String()))
		}
	}
	return nil
}
