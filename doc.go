// Package sea provides a pure Go SEA (Simple Embedded Audio) codec.
//
// SEA is a small lossy codec for 16-bit PCM. Samples are split into chunks
// and every chunk into scale factor groups. Each group stores one scale
// factor and a fixed-width quantized value per sample, optionally refined
// by a residual layer. The packet header echoes every setting, so decoding
// needs nothing but the packet bytes.
//
// # Basic Usage
//
// To encode and decode a buffer:
//
//	pkt, err := sea.Encode(samples, 44100, 2, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pkt.Release()
//
//	audio, err := sea.Decode(pkt.Bytes())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer audio.Release()
//
// # Streaming
//
// NewEncoder writes chunks to an io.Writer as they fill, and NewDecoder
// reads them back one chunk at a time:
//
//	enc, _ := sea.NewEncoder(w, 48000, 1, nil)
//	_ = enc.Write(block)
//	_ = enc.Close()
//
//	dec, _ := sea.NewDecoder(r)
//	for {
//	    chunk, err := dec.DecodeChunk()
//	    if err == io.EOF {
//	        break
//	    }
//	    // Use chunk...
//	}
//
// # Settings
//
// EncoderSettings trades size for fidelity. ResidualBits may be fractional:
// a fractional rate is spread over the groups of each chunk. With VBR set,
// the encoder picks the primary width per chunk from its signal level and
// moves residual bits toward the groups with the largest error. Those
// choices are written to the stream, so decoding never depends on them.
//
// # Errors
//
// Failures wrap one of ErrInvalidArgument, ErrAllocationFailure or
// ErrCorruptPacket and can be tested with errors.Is. Code maps an error to
// a stable integer result code.
//
// # Thread Safety
//
// Encode and Decode share no state and may run concurrently. Encoder and
// Decoder instances are NOT safe for concurrent use.
package sea
