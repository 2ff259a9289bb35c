package sea

import (
	"fmt"
	"math"

	"github.com/llehouerou/go-sea/internal/quant"
)

// Format constants.
const (
	Magic      uint32 = 0x73656163 // "seac", stored big-endian
	Version    uint8  = 1
	HeaderSize        = 25 // fixed header bytes before the metadata
)

// MaxChannels is the largest channel count a packet can describe.
const MaxChannels = 255

// Default encoder settings.
const (
	DefaultFramesPerChunk    = 5120
	DefaultScaleFactorBits   = 4
	DefaultScaleFactorFrames = 20
	DefaultResidualBits      = 3.0
	DefaultPrimaryBits       = 4
)

// EncoderSettings controls the trade-off between size and fidelity.
type EncoderSettings struct {
	ScaleFactorBits   uint8   // Width of each encoded scale factor (1-8)
	ScaleFactorFrames uint8   // Frames sharing one scale factor (1-255)
	ResidualBits      float32 // Average residual bits per sample (0-8)
	FramesPerChunk    uint16  // Frames per independently parseable chunk
	PrimaryBits       uint8   // Width of each primary sample (2-8, 0 = default)
	VBR               bool    // Adaptive per-chunk allocation
}

// DefaultSettings returns the baseline settings.
func DefaultSettings() EncoderSettings {
	return EncoderSettings{
		ScaleFactorBits:   DefaultScaleFactorBits,
		ScaleFactorFrames: DefaultScaleFactorFrames,
		ResidualBits:      DefaultResidualBits,
		FramesPerChunk:    DefaultFramesPerChunk,
		PrimaryBits:       DefaultPrimaryBits,
	}
}

// Normalize fills fields whose zero value means "default".
func (s *EncoderSettings) Normalize() {
	if s.PrimaryBits == 0 {
		s.PrimaryBits = DefaultPrimaryBits
	}
}

// Validate reports ErrInvalidArgument for out-of-range fields.
func (s EncoderSettings) Validate() error {
	if s.ScaleFactorBits < quant.MinScaleFactorBits || s.ScaleFactorBits > quant.MaxScaleFactorBits {
		return fmt.Errorf("%w: scale factor bits %d not in [%d, %d]",
			ErrInvalidArgument, s.ScaleFactorBits, quant.MinScaleFactorBits, quant.MaxScaleFactorBits)
	}
	if s.FramesPerChunk == 0 {
		return fmt.Errorf("%w: frames per chunk must be positive", ErrInvalidArgument)
	}
	if s.ScaleFactorFrames == 0 || uint16(s.ScaleFactorFrames) > s.FramesPerChunk {
		return fmt.Errorf("%w: scale factor frames %d not in [1, %d]",
			ErrInvalidArgument, s.ScaleFactorFrames, s.FramesPerChunk)
	}
	r := float64(s.ResidualBits)
	if math.IsNaN(r) || r < 0 || r > quant.MaxResidualBits {
		return fmt.Errorf("%w: residual bits %v not in [0, %d]",
			ErrInvalidArgument, s.ResidualBits, quant.MaxResidualBits)
	}
	if s.PrimaryBits != 0 && (s.PrimaryBits < quant.MinPrimaryBits || s.PrimaryBits > quant.MaxPrimaryBits) {
		return fmt.Errorf("%w: primary bits %d not in [%d, %d]",
			ErrInvalidArgument, s.PrimaryBits, quant.MinPrimaryBits, quant.MaxPrimaryBits)
	}
	return nil
}

// residualSixteenths returns ResidualBits in sixteenths of a bit.
func (s EncoderSettings) residualSixteenths() uint32 {
	return quant.Sixteenths(s.ResidualBits)
}
