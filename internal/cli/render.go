package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/forme/layout"
	canvasrenderer "github.com/ByLCY/forme/renderer/canvas"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	pipelineOpts
	output string
	format string
	debug  string
	margin float64
	dpi    float64
}

func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Typeset a Markdown or JSONML document to PDF or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("margin") {
				cfg.Margin = opts.margin
			}
			if cmd.Flags().Changed("dpi") {
				cfg.DPI = opts.dpi
			}
			if cmd.Flags().Changed("format") {
				cfg.Format = opts.format
			}
			output := opts.output
			if output == "" {
				output = defaultOutput(args[0], cfg.Format)
			} else if !cmd.Flags().Changed("format") && filepath.Ext(output) != "" {
				cfg.Format = filepath.Ext(output)
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			return runRender(cmd, args[0], output, opts.debug, cfg)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (defaults to the input name with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: pdf (default), png")
	cmd.Flags().StringVar(&opts.debug, "debug", "", "also write the forme and pressed runs as JSON to this path")
	cmd.Flags().Float64Var(&opts.margin, "margin", 0, "page margin in pt")
	cmd.Flags().Float64Var(&opts.dpi, "dpi", 0, "PNG resolution")

	return cmd
}

func runRender(cmd *cobra.Command, input, output, debugPath string, cfg Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	format, err := canvasrenderer.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	sess, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	painter := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		Registry: sess.registry,
		Format:   format,
		DPI:      cfg.DPI,
		Margin:   cfg.Margin,
		Meta:     sess.sheet.Meta,
	})

	forme, pressed, err := sess.typeset(ctx, input, cmd.InOrStdin(), sess.metricsProvider(painter))
	if err != nil {
		return err
	}
	if debugPath != "" {
		if err := writeDebug(forme, pressed, debugPath); err != nil {
			return err
		}
		logger.Debug("wrote debug layout", "path", debugPath)
	}

	prog := newProgress(logger)
	data, err := painter.Render(pressed)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := writeOutput(output, data); err != nil {
		return err
	}
	prog.done("Rendered "+output, "bytes", len(data))
	return nil
}

func defaultOutput(input, format string) string {
	ext := "." + strings.TrimPrefix(strings.ToLower(format), ".")
	if input == "-" {
		return "forme" + ext
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeDebug(forme layout.Forme, pressed *layout.Pressed, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}
	if err := layout.WriteDebugJSON(forme, pressed, path); err != nil {
		return fmt.Errorf("write debug JSON: %w", err)
	}
	return nil
}
