// Package preset loads encoder presets for the seac command from YAML.
//
// A preset file overrides the built-in defaults field by field:
//
//	encoder:
//	  frames_per_chunk: 5120
//	  scale_factor_bits: 4
//	  scale_factor_frames: 20
//	  residual_bits: 2.5
//	  primary_bits: 4
//	  vbr: true
//	output:
//	  sample_rate: 22050
//	  channels: 1
//	metadata: "title=example"
//	logging:
//	  level: info
//	  format: text
package preset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	sea "github.com/llehouerou/go-sea"
)

// Preset is a complete seac encode configuration.
type Preset struct {
	Encoder  EncoderConfig `yaml:"encoder"`
	Output   OutputConfig  `yaml:"output"`
	Metadata string        `yaml:"metadata"`
	Logging  LoggingConfig `yaml:"logging"`
}

// EncoderConfig mirrors sea.EncoderSettings with wide integer fields so
// out-of-range values are reported instead of wrapping.
type EncoderConfig struct {
	FramesPerChunk    int     `yaml:"frames_per_chunk"`
	ScaleFactorBits   int     `yaml:"scale_factor_bits"`
	ScaleFactorFrames int     `yaml:"scale_factor_frames"`
	ResidualBits      float64 `yaml:"residual_bits"`
	PrimaryBits       int     `yaml:"primary_bits"`
	VBR               bool    `yaml:"vbr"`
}

// OutputConfig selects the stream layout. Zero keeps the input's value.
type OutputConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the preset used when no file is given.
func Default() *Preset {
	s := sea.DefaultSettings()
	return &Preset{
		Encoder: EncoderConfig{
			FramesPerChunk:    int(s.FramesPerChunk),
			ScaleFactorBits:   int(s.ScaleFactorBits),
			ScaleFactorFrames: int(s.ScaleFactorFrames),
			ResidualBits:      float64(s.ResidualBits),
			PrimaryBits:       int(s.PrimaryBits),
			VBR:               s.VBR,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads, parses and validates the preset file at path.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file %s: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Preset, error) {
	p := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !isEmptyDocument(err) {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("preset validation failed: %w", err)
	}
	return p, nil
}

// Validate checks every section of the preset.
func (p *Preset) Validate() error {
	if err := p.Encoder.Validate(); err != nil {
		return fmt.Errorf("encoder config: %w", err)
	}
	if err := p.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}
	if err := p.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates encoder configuration.
func (e *EncoderConfig) Validate() error {
	if e.FramesPerChunk < 1 || e.FramesPerChunk > math.MaxUint16 {
		return fmt.Errorf("frames_per_chunk must be between 1 and %d, got %d", math.MaxUint16, e.FramesPerChunk)
	}
	if e.ScaleFactorBits < 0 || e.ScaleFactorBits > math.MaxUint8 {
		return fmt.Errorf("scale_factor_bits out of range, got %d", e.ScaleFactorBits)
	}
	if e.ScaleFactorFrames < 0 || e.ScaleFactorFrames > math.MaxUint8 {
		return fmt.Errorf("scale_factor_frames must be between 1 and 255, got %d", e.ScaleFactorFrames)
	}
	if e.PrimaryBits < 0 || e.PrimaryBits > math.MaxUint8 {
		return fmt.Errorf("primary_bits out of range, got %d", e.PrimaryBits)
	}
	// The codec owns the precise limits.
	return e.Settings().Validate()
}

// Settings converts the configuration to codec settings. Call Validate first.
func (e *EncoderConfig) Settings() sea.EncoderSettings {
	return sea.EncoderSettings{
		ScaleFactorBits:   uint8(e.ScaleFactorBits),
		ScaleFactorFrames: uint8(e.ScaleFactorFrames),
		ResidualBits:      float32(e.ResidualBits),
		FramesPerChunk:    uint16(e.FramesPerChunk),
		PrimaryBits:       uint8(e.PrimaryBits),
		VBR:               e.VBR,
	}
}

// Validate validates output configuration.
func (o *OutputConfig) Validate() error {
	if o.SampleRate < 0 || int64(o.SampleRate) > math.MaxUint32 {
		return fmt.Errorf("sample_rate cannot be negative or exceed 32 bits, got %d", o.SampleRate)
	}
	if o.Channels < 0 || o.Channels > sea.MaxChannels {
		return fmt.Errorf("channels must be between 0 and %d, got %d", sea.MaxChannels, o.Channels)
	}
	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}
	return nil
}

func isEmptyDocument(err error) bool {
	return errors.Is(err, io.EOF)
}
