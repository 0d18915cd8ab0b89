package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nasrak62/pdf2epub/internal/config"
	"github.com/nasrak62/pdf2epub/internal/converter"
	"github.com/nasrak62/pdf2epub/internal/epub"
	"github.com/nasrak62/pdf2epub/internal/render"
)

const (
	defaultConfigPath = "config.yaml"
	defaultDPI        = converter.DefaultDPI
	minDPI            = 72
	maxDPI            = 600
)

type buildOptions struct {
	ConfigPath    string
	OutputDir     string
	DPI           int
	MaxImageWidth int
	PopplerPath   string
	Logger        *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf2epub",
		Short: "Convert directories of chapter PDFs into image based EPUB ebooks",
		Long: `pdf2epub renders every page of a set of chapter PDFs to an image and
packs the pages into an EPUB, one ebook per configured book.

Books are declared in a YAML configuration file:

    ebooks:
      "My Book":
        path: ./books/my-book
      "Another Book":
        path: ./books/another

Each book directory holds one PDF per chapter, named so that the chapter
number appears in the file name ("Chapter 3.pdf", "3 - Revenge.pdf").
Rendering requires the poppler pdftoppm binary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			return runBuild(opts)
		},
	}

	cmd.Flags().StringP("config", "c", defaultConfigPath, "Path to the ebook configuration file")
	cmd.Flags().StringP("output-dir", "o", ".", "Directory the finished EPUB files are written to")
	cmd.Flags().Int("dpi", defaultDPI, "Render resolution in dots per inch")
	cmd.Flags().Int("max-width", 0, "Downscale pages wider than this many pixels (0 keeps the rendered size)")
	cmd.Flags().String("pdftoppm", "", "Path to the pdftoppm binary (default: look it up on PATH)")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
	cmd.Flags().BoolP("verbose", "v", false, "Shorthand for --log-level debug")

	cmd.AddCommand(newCheckCmd())

	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Verify the structure of generated EPUB files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				report, err := epub.Check(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				cmd.Printf("%s: ok (%d chapters, %d pages)\n", path, report.Chapters, report.Pages)
			}
			return nil
		},
	}
}

func readCLIOptions(cmd *cobra.Command) (*buildOptions, error) {
	configPath, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	dpi, _ := cmd.Flags().GetInt("dpi")
	maxWidth, _ := cmd.Flags().GetInt("max-width")
	popplerPath, _ := cmd.Flags().GetString("pdftoppm")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if dpi < minDPI || dpi > maxDPI {
		return nil, fmt.Errorf("--dpi must be between %d and %d, got %d", minDPI, maxDPI, dpi)
	}
	if maxWidth < 0 {
		return nil, fmt.Errorf("--max-width must be zero or positive, got %d", maxWidth)
	}
	switch strings.ToLower(logLevel) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("--log-level must be one of debug, info, warn, error, got %q", logLevel)
	}
	switch strings.ToLower(logFormat) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("--log-format must be text or json, got %q", logFormat)
	}
	if verbose {
		logLevel = "debug"
	}

	return &buildOptions{
		ConfigPath:    configPath,
		OutputDir:     outputDir,
		DPI:           dpi,
		MaxImageWidth: maxWidth,
		PopplerPath:   popplerPath,
		Logger:        buildLogger(os.Stderr, logLevel, logFormat),
	}, nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func runBuild(opts *buildOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	renderer, err := render.NewPoppler(opts.PopplerPath, opts.Logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	assembler := converter.NewAssembler(converter.Options{
		DPI:           opts.DPI,
		MaxImageWidth: opts.MaxImageWidth,
		OutputDir:     opts.OutputDir,
		Renderer:      renderer,
		Logger:        opts.Logger,
	})

	failed := 0
	for _, book := range cfg.Books {
		if book.Path == "" {
			opts.Logger.Warn("skipping ebook without a source path", "name", book.Name)
			continue
		}
		path, err := filepath.Abs(book.Path)
		if err != nil {
			opts.Logger.Warn("skipping ebook with an unresolvable path", "name", book.Name, "path", book.Path)
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			opts.Logger.Warn("skipping ebook whose path is not a directory", "name", book.Name, "path", path)
			continue
		}

		if err := assembler.Build(book.Name, path); err != nil {
			opts.Logger.Error("failed to build ebook", "name", book.Name, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d ebooks failed", failed, len(cfg.Books))
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
