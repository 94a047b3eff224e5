package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfwrite/builder"
	"github.com/wudi/pdfwrite/filters"
	"github.com/wudi/pdfwrite/layout"
	"github.com/wudi/pdfwrite/observability"
	"github.com/wudi/pdfwrite/writer"
	"github.com/wudi/pdfwrite/xref"
)

type imageFlags map[string]string

func (f imageFlags) String() string {
	var parts []string
	for name, path := range f {
		parts = append(parts, name+"="+path)
	}
	return strings.Join(parts, ",")
}

func (f imageFlags) Set(v string) error {
	name, path, ok := strings.Cut(v, "=")
	if !ok {
		path = v
		name = filepath.Base(v)
	}
	if name == "" || path == "" {
		return fmt.Errorf("invalid image %q, want name=path", v)
	}
	f[name] = path
	return nil
}

type options struct {
	input       string
	output      string
	format      string
	paper       string
	landscape   bool
	fontPath    string
	fontSize    float64
	filter      string
	maxImageDim int
	images      imageFlags
	verify      bool
	verbose     bool
	cfg         writer.Config
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "pdfgen: %v\n", err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "pdfgen: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	opts := options{images: imageFlags{}}
	fs := flag.NewFlagSet("pdfgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfgen [flags] <input.md|input.html|input.txt>\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.output, "o", "", "Output PDF path (defaults to the input name with .pdf)")
	fs.StringVar(&opts.format, "format", "", "Input format: markdown, html or text (defaults to the file extension)")
	fs.StringVar(&opts.cfg.Title, "title", "", "Document title")
	fs.StringVar(&opts.cfg.Author, "author", "", "Document author (defaults to the current user)")
	fs.StringVar(&opts.cfg.Subject, "subject", "", "Document subject")
	fs.StringVar(&opts.cfg.Keywords, "keywords", "", "Document keywords")
	fs.StringVar(&opts.filter, "filter", "flate", "Content stream filter: none, flate, hex or a85")
	fs.StringVar(&opts.paper, "paper", "a4", "Paper size: a4 or letter")
	fs.BoolVar(&opts.landscape, "landscape", false, "Use landscape orientation")
	fs.StringVar(&opts.fontPath, "font", "", "TrueType font file used for body text")
	fs.Float64Var(&opts.fontSize, "font-size", 11, "Body font size in points")
	fs.Var(opts.images, "image", "Image available to the document as name=path (repeatable)")
	fs.IntVar(&opts.maxImageDim, "max-image-dim", 0, "Downscale images larger than this many pixels")
	fs.BoolVar(&opts.verify, "verify", false, "Re-read the produced file and check its cross-reference table")
	fs.BoolVar(&opts.verbose, "v", false, "Log object writes")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected exactly one input file")
	}
	opts.input = fs.Arg(0)
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".pdf"
	}
	if opts.format == "" {
		opts.format = formatFromExt(opts.input)
	}
	return opts, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	}
	return "text"
}

func run(ctx context.Context, opts options, logOut io.Writer) error {
	source, err := os.ReadFile(opts.input)
	if err != nil {
		return err
	}
	paper, err := writer.ParsePageFormat(opts.paper, opts.landscape)
	if err != nil {
		return err
	}
	cfg := opts.cfg
	if cfg.TextFilter, err = filters.ParseContentFilter(opts.filter); err != nil {
		return err
	}
	cfg.MaxImageDimension = opts.maxImageDim
	cfg.Logger = observability.NewTextLogger(logOut, opts.verbose)
	if cfg.Title == "" {
		cfg.Title = strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
	}

	w, err := writer.Create(opts.output, cfg)
	if err != nil {
		return err
	}
	b := builder.NewBuilder(w)
	engineOpts := []layout.Option{
		layout.WithPaperSize(paper),
		layout.WithDefaultFontSize(opts.fontSize),
		layout.WithImageDir(filepath.Dir(opts.input)),
	}
	if opts.fontPath != "" {
		data, err := os.ReadFile(opts.fontPath)
		if err != nil {
			b.Close()
			return err
		}
		b.RegisterTrueTypeFont("Body", data)
		engineOpts = append(engineOpts, layout.WithDefaultFont("Body"))
	}
	for name, path := range opts.images {
		b.AddImageFile(name, path)
	}

	engine := layout.NewEngine(b, engineOpts...)
	switch opts.format {
	case "markdown", "md":
		err = engine.RenderMarkdown(string(source))
	case "html":
		err = engine.RenderHTML(string(source))
	case "text", "txt":
		err = engine.RenderText(string(source))
	default:
		err = fmt.Errorf("unknown input format %q", opts.format)
	}
	if cerr := b.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if opts.verify {
		return verifyFile(ctx, opts.output, cfg.Logger)
	}
	return nil
}

func verifyFile(ctx context.Context, path string, logger observability.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	table, err := xref.Verify(ctx, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	logger.Info("verified",
		observability.String("path", path),
		observability.Int("objects", len(table.Objects())),
		observability.Int64("bytes", int64(len(data))),
	)
	return nil
}
