package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/forme/dsl"
	"github.com/ByLCY/forme/fontmetrics"
	"github.com/ByLCY/forme/fonts"
	"github.com/ByLCY/forme/layout"
	"github.com/ByLCY/forme/markup"
	canvasrenderer "github.com/ByLCY/forme/renderer/canvas"
)

// pipelineOpts holds the flags shared by every command that typesets.
type pipelineOpts struct {
	configPath    string
	sheet         string
	data          string
	metrics       string
	width         float64
	maxIterations int
	collapse      bool
	smart         bool
	entities      bool
}

func (o *pipelineOpts) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "TOML file with run defaults")
	f.StringVarP(&o.sheet, "sheet", "s", "", "stylesheet (.papyrus) with fonts, images and tag styles")
	f.StringVarP(&o.data, "data", "d", "", "JSON file whose values fill ${path} placeholders")
	f.StringVar(&o.metrics, "metrics", "", "font metrics provider: canvas, opentype, fixed")
	f.Float64VarP(&o.width, "width", "w", 0, "wrap width in pt (overrides the stylesheet)")
	f.IntVar(&o.maxIterations, "max-iterations", 0, "line limit per text run before aborting")
	f.BoolVar(&o.collapse, "collapse-whitespace", true, "collapse newlines and runs of spaces in prose")
	f.BoolVar(&o.smart, "smart-punctuation", true, "convert quotes, dashes and ellipses")
	f.BoolVar(&o.entities, "decode-entities", true, "decode HTML entities in prose")
}

// resolve loads the config file and applies explicitly set flags on top.
func (o *pipelineOpts) resolve(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("sheet") {
		cfg.Sheet = o.sheet
	}
	if f.Changed("data") {
		cfg.Data = o.data
	}
	if f.Changed("metrics") {
		cfg.Metrics = o.metrics
	}
	if f.Changed("width") {
		cfg.Width = o.width
	}
	if f.Changed("max-iterations") {
		cfg.MaxIterations = o.maxIterations
	}
	if f.Changed("collapse-whitespace") {
		cfg.Text.CollapseWhitespace = o.collapse
	}
	if f.Changed("smart-punctuation") {
		cfg.Text.SmartPunctuation = o.smart
	}
	if f.Changed("decode-entities") {
		cfg.Text.DecodeEntities = o.entities
	}
	return cfg, cfg.validate()
}

// session carries what is shared between typesetting and painting.
type session struct {
	cfg      Config
	sheet    *layout.Sheet
	registry *fonts.Registry
}

func newSession(ctx context.Context, cfg Config) (*session, error) {
	logger := loggerFromContext(ctx)

	sheet, err := loadSheet(cfg.Sheet)
	if err != nil {
		return nil, err
	}
	if cfg.Width > 0 {
		sheet.Base = sheet.Base.WithWrapWidth(cfg.Width)
	}

	registry := fonts.NewRegistry()
	baseDir := filepath.Dir(cfg.Sheet)
	for _, decl := range sheet.Fonts {
		data, err := fonts.Load(decl.Src, baseDir)
		if err != nil {
			return nil, fmt.Errorf("font %s: %w", decl.Family, err)
		}
		variant := fonts.Variant{Bold: decl.Bold, Italic: decl.Italic}
		registry.Register(decl.Family, variant, data)
		logger.Debug("registered font", "family", decl.Family, "variant", variant, "src", decl.Src)
	}
	logger.Debug("stylesheet ready", "name", sheet.Name, "rules", len(sheet.RuleNames()), "images", len(sheet.Images))
	return &session{cfg: cfg, sheet: sheet, registry: registry}, nil
}

// loadSheet compiles the stylesheet at path. An empty path yields the
// default style with no rules.
func loadSheet(path string) (*layout.Sheet, error) {
	if path == "" {
		return &layout.Sheet{
			Name:   "default",
			Meta:   layout.DocumentMeta{Creator: "forme"},
			Base:   layout.DefaultStyle(),
			Images: layout.ImageTable{},
		}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stylesheet %s: %w", path, err)
	}
	defer file.Close()

	doc, err := dsl.ParseFile(path, file)
	if err != nil {
		return nil, fmt.Errorf("parse stylesheet: %w", err)
	}
	sheet, err := layout.CompileSheet(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("compile stylesheet %s: %w", path, err)
	}
	return sheet, nil
}

// metricsProvider picks the provider named in the config. painter is used
// for "canvas" so that measured and painted glyphs come from the same faces.
func (s *session) metricsProvider(painter *canvasrenderer.Renderer) layout.FontMetricsProvider {
	switch s.cfg.Metrics {
	case metricsFixed:
		return fontmetrics.NewFixed()
	case metricsOpenType:
		return fontmetrics.NewOpenType(s.registry)
	default:
		if painter == nil {
			painter = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Registry: s.registry})
		}
		return painter
	}
}

// typeset reads the input document and lays it out.
func (s *session) typeset(ctx context.Context, input string, stdin io.Reader, provider layout.FontMetricsProvider) (layout.Forme, *layout.Pressed, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	doc, err := loadDocument(input, stdin)
	if err != nil {
		return nil, nil, err
	}
	if err := markup.Validate(doc); err != nil {
		return nil, nil, err
	}
	data, err := loadData(s.cfg.Data)
	if err != nil {
		return nil, nil, err
	}

	text := s.cfg.Text
	text.Data = data
	forme, err := layout.Typeset(doc, s.sheet.Base, layout.Options{
		Metrics:       provider,
		Resolver:      s.sheet.Resolver(layout.DefaultResolver),
		Images:        s.sheet.Images,
		Text:          text,
		Logger:        logger,
		MaxIterations: s.cfg.MaxIterations,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("typeset %s: %w", input, err)
	}
	pressed := layout.Press(forme)
	prog.done("Typeset document", "lines", len(forme), "runs", len(pressed.Runs), "height", pressed.Height)
	return forme, pressed, nil
}

// loadDocument parses Markdown, or JSONML when the file ends in .json.
// "-" reads standard input and sniffs JSONML by a leading '['.
func loadDocument(path string, stdin io.Reader) (markup.Node, error) {
	var (
		src []byte
		err error
	)
	if path == "-" {
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}

	isJSON := strings.EqualFold(filepath.Ext(path), ".json")
	if path == "-" {
		isJSON = bytes.HasPrefix(bytes.TrimSpace(src), []byte("["))
	}
	if isJSON {
		doc, err := markup.ParseJSONML(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse JSONML %s: %w", path, err)
		}
		return doc, nil
	}
	return markup.ParseMarkdown(src), nil
}

// loadData decodes the JSON data file used for ${path} placeholders.
func loadData(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data %s: %w", path, err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	return data, nil
}
