package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults carried over from the ATIS tooling the datasets were recorded with.
const (
	DefaultFrameLengthUs = 24000
	DefaultEMMinVal      = 1740.0
	DefaultEMMaxVal      = 116000.0
	DefaultMinDisplay    = "1ms"
	DefaultRefractoryUs  = 0
	DefaultWidth         = 34
	DefaultHeight        = 34
	DefaultRefWidth      = 640
	DefaultRefHeight     = 480
	DefaultTDNeutral     = 128

	maxFileSize = 1 * 1024 * 1024 // 1MB
)

// Config holds the calibration and presentation parameters used by the codec
// and renderers. All fields are optional: the Get* methods fall back to the
// defaults above, so partial files are safe.
type Config struct {
	// Renderer params
	FrameLengthUs *uint64  `json:"frame_length_us,omitempty" yaml:"frame_length_us,omitempty"`
	EMMinVal      *float64 `json:"em_min_val,omitempty" yaml:"em_min_val,omitempty"`
	EMMaxVal      *float64 `json:"em_max_val,omitempty" yaml:"em_max_val,omitempty"`
	TDNeutral     *uint8   `json:"td_neutral,omitempty" yaml:"td_neutral,omitempty"`
	MinDisplay    *string  `json:"min_display,omitempty" yaml:"min_display,omitempty"` // duration string like "1ms"

	// Transform params
	RefractoryUs *uint64 `json:"refractory_us,omitempty" yaml:"refractory_us,omitempty"`

	// Decode params
	DefaultWidth  *uint32 `json:"default_width,omitempty" yaml:"default_width,omitempty"`
	DefaultHeight *uint32 `json:"default_height,omitempty" yaml:"default_height,omitempty"`

	// Export params
	RefWidth  *uint32 `json:"ref_width,omitempty" yaml:"ref_width,omitempty"`
	RefHeight *uint32 `json:"ref_height,omitempty" yaml:"ref_height,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// EmptyConfig returns a Config with every field unset.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() *Config {
	return &Config{
		FrameLengthUs: ptr(uint64(DefaultFrameLengthUs)),
		EMMinVal:      ptr(DefaultEMMinVal),
		EMMaxVal:      ptr(DefaultEMMaxVal),
		TDNeutral:     ptr(uint8(DefaultTDNeutral)),
		MinDisplay:    ptr(DefaultMinDisplay),
		RefractoryUs:  ptr(uint64(DefaultRefractoryUs)),
		DefaultWidth:  ptr(uint32(DefaultWidth)),
		DefaultHeight: ptr(uint32(DefaultHeight)),
		RefWidth:      ptr(uint32(DefaultRefWidth)),
		RefHeight:     ptr(uint32(DefaultRefHeight)),
	}
}

// Load reads a Config from a .json, .yaml or .yml file under 1MB and
// validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if c.FrameLengthUs != nil && *c.FrameLengthUs == 0 {
		return fmt.Errorf("frame_length_us must be positive")
	}
	if c.GetEMMaxVal() <= c.GetEMMinVal() {
		return fmt.Errorf("em_max_val (%g) must be greater than em_min_val (%g)", c.GetEMMaxVal(), c.GetEMMinVal())
	}
	if c.MinDisplay != nil && *c.MinDisplay != "" {
		d, err := time.ParseDuration(*c.MinDisplay)
		if err != nil {
			return fmt.Errorf("invalid min_display '%s': %w", *c.MinDisplay, err)
		}
		if d < 0 {
			return fmt.Errorf("min_display must be non-negative, got %s", d)
		}
	}
	if c.DefaultWidth != nil && *c.DefaultWidth == 0 {
		return fmt.Errorf("default_width must be positive")
	}
	if c.DefaultHeight != nil && *c.DefaultHeight == 0 {
		return fmt.Errorf("default_height must be positive")
	}
	// The jAER word has 10 bits per axis.
	if w := c.GetRefWidth(); w == 0 || w > 1024 {
		return fmt.Errorf("ref_width must be in 1..1024, got %d", w)
	}
	if h := c.GetRefHeight(); h == 0 || h > 1024 {
		return fmt.Errorf("ref_height must be in 1..1024, got %d", h)
	}
	return nil
}

// GetFrameLengthUs returns the render window length in microseconds.
func (c *Config) GetFrameLengthUs() uint64 {
	if c.FrameLengthUs == nil || *c.FrameLengthUs == 0 {
		return DefaultFrameLengthUs
	}
	return *c.FrameLengthUs
}

// GetEMMinVal returns the exposure duration that maps to white.
func (c *Config) GetEMMinVal() float64 {
	if c.EMMinVal == nil {
		return DefaultEMMinVal
	}
	return *c.EMMinVal
}

// GetEMMaxVal returns the exposure duration that maps to black.
func (c *Config) GetEMMaxVal() float64 {
	if c.EMMaxVal == nil {
		return DefaultEMMaxVal
	}
	return *c.EMMaxVal
}

// GetTDNeutral returns the TD "no event" pixel value.
func (c *Config) GetTDNeutral() uint8 {
	if c.TDNeutral == nil {
		return DefaultTDNeutral
	}
	return *c.TDNeutral
}

// GetMinDisplay parses and returns the per-frame pacing hint.
func (c *Config) GetMinDisplay() time.Duration {
	def, _ := time.ParseDuration(DefaultMinDisplay)
	if c.MinDisplay == nil || *c.MinDisplay == "" {
		return def
	}
	d, err := time.ParseDuration(*c.MinDisplay)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetRefractoryUs returns the refractory window; zero disables filtering.
func (c *Config) GetRefractoryUs() uint64 {
	if c.RefractoryUs == nil {
		return DefaultRefractoryUs
	}
	return *c.RefractoryUs
}

// GetDefaultWidth returns the frame width used for empty recordings.
func (c *Config) GetDefaultWidth() uint32 {
	if c.DefaultWidth == nil || *c.DefaultWidth == 0 {
		return DefaultWidth
	}
	return *c.DefaultWidth
}

// GetDefaultHeight returns the frame height used for empty recordings.
func (c *Config) GetDefaultHeight() uint32 {
	if c.DefaultHeight == nil || *c.DefaultHeight == 0 {
		return DefaultHeight
	}
	return *c.DefaultHeight
}

// GetRefWidth returns the export reference frame width.
func (c *Config) GetRefWidth() uint32 {
	if c.RefWidth == nil {
		return DefaultRefWidth
	}
	return *c.RefWidth
}

// GetRefHeight returns the export reference frame height.
func (c *Config) GetRefHeight() uint32 {
	if c.RefHeight == nil {
		return DefaultRefHeight
	}
	return *c.RefHeight
}
