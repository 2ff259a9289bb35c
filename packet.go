package sea

import "io"

// Packet is an encoded SEA stream produced by Encode. Its bytes must not be
// modified. Release drops the buffer; using the packet after Release is the
// caller's responsibility and yields no bytes.
type Packet struct {
	data []byte
}

// Bytes returns the encoded bytes, or nil after Release.
func (p *Packet) Bytes() []byte {
	if p == nil {
		return nil
	}
	return p.data
}

// Len returns the encoded length in bytes.
func (p *Packet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.data)
}

// WriteTo writes the encoded bytes to w.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// Release drops the packet buffer. Releasing twice is a no-op.
func (p *Packet) Release() {
	if p != nil {
		p.data = nil
	}
}

// ReleasePacket releases p. It accepts nil.
func ReleasePacket(p *Packet) {
	p.Release()
}

// Audio is decoded PCM owned by the caller.
type Audio struct {
	Samples    []int16 // Interleaved samples
	SampleRate uint32  // Hz
	Channels   uint32
	Metadata   string
}

// SampleCount returns the interleaved sample count across all channels.
func (a *Audio) SampleCount() int {
	if a == nil {
		return 0
	}
	return len(a.Samples)
}

// Frames returns the sample count per channel.
func (a *Audio) Frames() int {
	if a == nil || a.Channels == 0 {
		return 0
	}
	return len(a.Samples) / int(a.Channels)
}

// Release drops the sample buffer. Releasing twice is a no-op.
func (a *Audio) Release() {
	if a != nil {
		a.Samples = nil
	}
}

// ReleaseSamples releases a. It accepts nil.
func ReleaseSamples(a *Audio) {
	a.Release()
}
