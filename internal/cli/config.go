package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/forme/transform"
)

const (
	metricsCanvas   = "canvas"   // tdewolff/canvas faces, same as the painter
	metricsOpenType = "opentype" // x/image OpenType faces, headless
	metricsFixed    = "fixed"    // fixed advance, for reproducible dumps
)

// Config holds run defaults, usually read from a forme.toml file.
// Command-line flags override any value set here.
type Config struct {
	Sheet         string            `toml:"sheet"`
	Data          string            `toml:"data"`
	Format        string            `toml:"format"`
	Metrics       string            `toml:"metrics"`
	Width         float64           `toml:"width"`
	Margin        float64           `toml:"margin"`
	DPI           float64           `toml:"dpi"`
	MaxIterations int               `toml:"max_iterations"`
	Text          transform.Options `toml:"text"`
}

func defaultConfig() Config {
	return Config{
		Format:  "pdf",
		Metrics: metricsCanvas,
		Margin:  36,
		DPI:     144,
		Text:    transform.All(),
	}
}

// loadConfig reads path over the defaults. Unknown keys are rejected so
// typos do not pass silently.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Metrics {
	case metricsCanvas, metricsOpenType, metricsFixed:
	default:
		return fmt.Errorf("unknown metrics provider %q (want canvas, opentype or fixed)", c.Metrics)
	}
	if c.Width < 0 || c.Margin < 0 || c.DPI < 0 {
		return fmt.Errorf("width, margin and dpi must not be negative")
	}
	return nil
}
