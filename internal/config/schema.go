package config

import (
	"fmt"
	"regexp"

	"github.com/docketpdf/docket/internal/document"
)

// Config is the full runtime configuration.
type Config struct {
	Bates     BatesConfig     `mapstructure:"bates" yaml:"bates"`
	Numbering NumberingConfig `mapstructure:"numbering" yaml:"numbering"`
	OCR       OCRConfig       `mapstructure:"ocr" yaml:"ocr"`
	Workers   int             `mapstructure:"workers" yaml:"workers"`
}

// BatesConfig controls Bates stamping of committed outputs.
type BatesConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Prefix  string `mapstructure:"prefix" yaml:"prefix"`
	Start   int    `mapstructure:"start" yaml:"start"`
}

// NumberingConfig controls line numbering and sequence assignment.
type NumberingConfig struct {
	Lines     bool   `mapstructure:"lines" yaml:"lines"`
	Separator bool   `mapstructure:"separator" yaml:"separator"`
	Footer    bool   `mapstructure:"footer" yaml:"footer"`
	PerPage   int    `mapstructure:"lines_per_page" yaml:"lines_per_page"`
	Order     string `mapstructure:"order" yaml:"order"`
}

// OCRConfig controls the rotation corrector's OCR engine.
type OCRConfig struct {
	Engine        string   `mapstructure:"engine" yaml:"engine"`
	Languages     []string `mapstructure:"languages" yaml:"languages"`
	MinConfidence float64  `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Bates: BatesConfig{
			Enabled: true,
			Prefix:  "DOC",
			Start:   1,
		},
		Numbering: NumberingConfig{
			Lines:     true,
			Separator: true,
			Footer:    true,
			PerPage:   28,
			Order:     string(document.OrderCompletion),
		},
		OCR: OCRConfig{
			Engine:        "tesseract",
			Languages:     []string{"eng"},
			MinConfidence: 0.1,
		},
		Workers: 4,
	}
}

var batesPrefixRe = regexp.MustCompile(`^[A-Za-z0-9]{1,24}$`)

// Validate rejects configurations that would corrupt output naming or
// numbering before any document is touched.
func (c *Config) Validate() error {
	if c.Bates.Enabled && !batesPrefixRe.MatchString(c.Bates.Prefix) {
		return fmt.Errorf("bates.prefix %q must be 1-24 alphanumeric characters", c.Bates.Prefix)
	}
	if c.Bates.Start < 1 {
		return fmt.Errorf("bates.start %d must be at least 1", c.Bates.Start)
	}
	switch document.NumberingOrder(c.Numbering.Order) {
	case document.OrderCompletion, document.OrderInput:
	default:
		return fmt.Errorf("numbering.order %q must be %q or %q",
			c.Numbering.Order, document.OrderCompletion, document.OrderInput)
	}
	if c.Numbering.PerPage < 1 || c.Numbering.PerPage > 60 {
		return fmt.Errorf("numbering.lines_per_page %d must be between 1 and 60", c.Numbering.PerPage)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers %d must be at least 1", c.Workers)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence %v must be between 0 and 1", c.OCR.MinConfidence)
	}
	return nil
}
