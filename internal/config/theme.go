package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ThemeConfig is the top-level YAML configuration for chart presentation hints.
type ThemeConfig struct {
	Colors      map[string]string `yaml:"colors"`
	ChartHeight int               `yaml:"chart_height,omitempty"`
}

var themeChartTypes = map[string]bool{"line": true, "bar": true, "scatter": true}

// LoadTheme reads and validates a theme YAML config file.
// Returns an os.ErrNotExist-wrapped error if the file is absent.
func LoadTheme(path string) (*ThemeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("theme config: %w", err)
	}
	var cfg ThemeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("theme config: %w", err)
	}
	for name, color := range cfg.Colors {
		if !themeChartTypes[name] {
			return nil, fmt.Errorf("theme config: colors.%s is not a chart type", name)
		}
		if strings.TrimSpace(color) == "" {
			return nil, fmt.Errorf("theme config: colors.%s is empty", name)
		}
	}
	if cfg.ChartHeight < 0 {
		return nil, fmt.Errorf("theme config: chart_height must not be negative")
	}
	return &cfg, nil
}
