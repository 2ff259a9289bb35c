package quant

// Residual quantizes the error left by primary quantization with one step.
//
// For a step s the primary error r satisfies |r| <= H, H = (s+1)/2. The
// interval [-H, H] is split into 2^bits cells of equal integer width and each
// cell is reconstructed at its midpoint. With zero bits nothing is stored and
// the reconstruction is 0.
type Residual struct {
	half int32
	cell int32
	bits uint8
}

// NewResidual returns the residual quantizer for step and bits.
func NewResidual(step int32, bits uint8) Residual {
	half := (step + 1) / 2
	span := 2*half + 1
	levels := int32(1) << bits
	return Residual{
		half: half,
		cell: (span + levels - 1) / levels,
		bits: bits,
	}
}

// Bits returns the field width of one residual.
func (r Residual) Bits() uint8 {
	return r.bits
}

// Encode returns the cell index for the primary error e.
func (r Residual) Encode(e int32) uint32 {
	if r.bits == 0 {
		return 0
	}
	o := e + r.half
	if o < 0 {
		o = 0
	}
	if o > 2*r.half {
		o = 2 * r.half
	}
	return uint32(o / r.cell)
}

// Decode returns the reconstructed error for cell index k.
func (r Residual) Decode(k uint32) int32 {
	if r.bits == 0 {
		return 0
	}
	v := int32(k)*r.cell + r.cell/2 - r.half
	if v > r.half {
		return r.half
	}
	if v < -r.half {
		return -r.half
	}
	return v
}

// Sixteenths converts a fractional bit count to sixteenths of a bit,
// rounding to nearest.
func Sixteenths(bits float32) uint32 {
	if bits <= 0 {
		return 0
	}
	return uint32(bits*16 + 0.5)
}
