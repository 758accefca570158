package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/vitalvas/svcdoc/definition"
	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/reader"
	"github.com/vitalvas/svcdoc/service"
)

// CLI is the command line of svcdoc.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Print version information."`
	Generate GenerateCmd `cmd:"" help:"Generate an OpenAPI document from a service definition file."`
}

// runtime carries the output streams into command Run methods.
type runtime struct {
	stdout io.Writer
	stderr io.Writer
}

// VersionCmd prints the build version.
type VersionCmd struct{}

// Run prints the version to stdout.
func (c *VersionCmd) Run(rt *runtime) error {
	_, err := fmt.Fprintln(rt.stdout, Version())
	return err
}

// GenerateCmd loads a service definition file, resolves its services and
// writes the resulting OpenAPI document.
type GenerateCmd struct {
	File        string   `arg:"" help:"Service definition file." type:"existingfile"`
	Format      string   `help:"Output format." enum:"json,yaml" default:"yaml" short:"f"`
	Output      string   `help:"Write the document to this file instead of stdout." short:"o" type:"path"`
	Service     []string `help:"Read only the named services." short:"s"`
	IgnoreRoute []string `help:"Leave out operations under this path prefix." name:"ignore-route"`
	LogLevel    string   `help:"Minimum level of diagnostics written to stderr." enum:"debug,info,warn,error" default:"warn" name:"log-level"`
}

// Run generates the document for c.File.
func (c *GenerateCmd) Run(rt *runtime) error {
	logger, err := newLogger(rt.stderr, c.LogLevel)
	if err != nil {
		return err
	}

	f, err := definition.Load(c.File)
	if err != nil {
		return err
	}
	set, err := f.Build()
	if err != nil {
		return err
	}

	roots, err := selectServices(set, c.Service)
	if err != nil {
		return err
	}

	r := reader.New(nil, reader.Config{
		Logger:        logger,
		Converter:     set.Converter,
		IgnoredRoutes: c.IgnoreRoute,
	})
	for _, cls := range roots {
		if _, err := r.Read(cls); err != nil {
			return err
		}
	}
	doc := r.Document()

	data, err := encode(doc, c.Format)
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = rt.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(c.Output, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	logger.Info("document written", "output", c.Output, "paths", len(doc.Paths))
	return nil
}

func selectServices(set *definition.Set, names []string) ([]*service.Class, error) {
	if len(names) == 0 {
		return set.Roots, nil
	}
	out := make([]*service.Class, 0, len(names))
	for _, name := range names {
		cls, ok := set.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown service %q", name)
		}
		out = append(out, cls)
	}
	return out, nil
}

func encode(doc *openapi.Document, format string) ([]byte, error) {
	if format == "json" {
		return openapi.MarshalJSON(doc)
	}
	return openapi.MarshalYAML(doc)
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func newParser(cli *CLI, stdout, stderr io.Writer, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("svcdoc"),
		kong.Description("Generate OpenAPI documents from service definitions."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Bind(&runtime{stdout: stdout, stderr: stderr}),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	cli := &CLI{}
	parser, err := newParser(cli, os.Stdout, os.Stderr)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
