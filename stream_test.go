package sea

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
)

func encodeStream(t *testing.T, in []int16, channels uint32, s *EncoderSettings, blocks int, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, 44100, channels, s, opts...)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	frames := len(in) / int(channels)
	step := max(1, frames/blocks) * int(channels)
	for off := 0; off < len(in); off += step {
		end := min(off+step, len(in))
		if err := enc.Write(in[off:end]); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

func decodeStream(t *testing.T, data []byte) (*Header, [][]int16) {
	t.Helper()
	dec, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	var chunks [][]int16
	for {
		chunk, err := dec.DecodeChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("DecodeChunk() error = %v", err)
		}
		chunks = append(chunks, chunk)
	}
	return dec.Header(), chunks
}

func TestEncoder_MatchesOneShot(t *testing.T) {
	rng := rand.New(rand.NewSource(31))

	for _, vbrOn := range []bool{false, true} {
		s := DefaultSettings()
		s.FramesPerChunk = 500
		s.VBR = vbrOn
		in := noise(rng, 2*1730, 9000)

		streamed := encodeStream(t, in, 2, &s, 7)
		pkt, err := Encode(in, 44100, 2, &s)
		if err != nil {
			t.Fatal(err)
		}

		// Chunk payloads are identical; only the header differs.
		if !bytes.Equal(streamed[HeaderSize:], pkt.Bytes()[HeaderSize:]) {
			t.Errorf("vbr=%v: streamed chunks differ from one-shot chunks", vbrOn)
		}

		want, err := Decode(pkt.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		got, err := Decode(streamed)
		if err != nil {
			t.Fatalf("Decode(streamed) error = %v", err)
		}
		if !equalSamples(got.Samples, want.Samples) {
			t.Errorf("vbr=%v: streamed packet decodes differently", vbrOn)
		}
	}
}

func TestEncoder_HeaderMarksStream(t *testing.T) {
	data := encodeStream(t, make([]int16, 100), 1, nil, 1, WithMetadata("live"))

	h, err := ParseHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Streamed || h.TotalFrames != 0 {
		t.Errorf("Streamed, TotalFrames = %v, %d; want true, 0", h.Streamed, h.TotalFrames)
	}
	if h.Metadata != "live" {
		t.Errorf("Metadata = %q, want %q", h.Metadata, "live")
	}
}

func TestEncoder_EmptyStream(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, 8000, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderSize {
		t.Fatalf("empty stream is %d bytes, want %d", buf.Len(), HeaderSize)
	}

	audio, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if audio.SampleCount() != 0 {
		t.Errorf("SampleCount() = %d, want 0", audio.SampleCount())
	}
}

func TestEncoder_Errors(t *testing.T) {
	if _, err := NewEncoder(io.Discard, 8000, 0, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewEncoder(channels=0) err = %v, want ErrInvalidArgument", err)
	}

	enc, err := NewEncoder(io.Discard, 8000, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Write(make([]int16, 3)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Write(3 samples, 2 channels) err = %v, want ErrInvalidArgument", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if err := enc.Write(make([]int16, 2)); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close err = %v, want ErrClosed", err)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncoder_WriterErrorSticks(t *testing.T) {
	s := DefaultSettings()
	s.FramesPerChunk = 20
	enc, err := NewEncoder(failWriter{}, 8000, 1, &s)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Write(make([]int16, 20)); err == nil {
		t.Fatal("Write() error = nil, want writer failure")
	}
	if err := enc.Write(make([]int16, 1)); err == nil {
		t.Error("Write() after failure = nil, want sticky error")
	}
	if err := enc.Close(); err == nil {
		t.Error("Close() after failure = nil, want sticky error")
	}
}

func TestDecoder_Chunks(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	s := DefaultSettings()
	s.FramesPerChunk = 256
	in := noise(rng, 3*1000, 4000)

	for _, streamed := range []bool{false, true} {
		var data []byte
		if streamed {
			data = encodeStream(t, in, 3, &s, 3)
		} else {
			pkt, err := Encode(in, 44100, 3, &s)
			if err != nil {
				t.Fatal(err)
			}
			data = pkt.Bytes()
		}

		h, chunks := decodeStream(t, data)
		if h.Streamed != streamed {
			t.Errorf("Streamed = %v, want %v", h.Streamed, streamed)
		}

		wantFrames := []int{256, 256, 256, 232}
		if len(chunks) != len(wantFrames) {
			t.Fatalf("streamed=%v: %d chunks, want %d", streamed, len(chunks), len(wantFrames))
		}
		var all []int16
		for i, c := range chunks {
			if len(c) != wantFrames[i]*3 {
				t.Errorf("chunk %d has %d samples, want %d", i, len(c), wantFrames[i]*3)
			}
			all = append(all, c...)
		}

		want, err := Decode(data)
		if err != nil {
			t.Fatal(err)
		}
		if !equalSamples(all, want.Samples) {
			t.Errorf("streamed=%v: chunk-wise decode differs from Decode", streamed)
		}
	}
}

func TestDecoder_DecodeAll(t *testing.T) {
	in := sineWave(5000, 300, 8000, 7000)
	data := encodeStream(t, in, 1, nil, 4, WithMetadata("m"))

	dec, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	audio, err := dec.DecodeAll()
	if err != nil {
		t.Fatal(err)
	}
	if audio.SampleCount() != len(in) || audio.SampleRate != 44100 || audio.Metadata != "m" {
		t.Errorf("DecodeAll() = %d samples at %d Hz, metadata %q", audio.SampleCount(), audio.SampleRate, audio.Metadata)
	}
	if _, err := dec.DecodeChunk(); err != io.EOF {
		t.Errorf("DecodeChunk() after end = %v, want io.EOF", err)
	}
}

func TestDecoder_Truncated(t *testing.T) {
	s := DefaultSettings()
	s.FramesPerChunk = 100
	pkt, err := Encode(make([]int16, 250), 8000, 1, &s)
	if err != nil {
		t.Fatal(err)
	}
	data := pkt.Bytes()

	if _, err := NewDecoder(bytes.NewReader(data[:10])); !errors.Is(err, ErrCorruptPacket) {
		t.Errorf("NewDecoder(short header) err = %v, want ErrCorruptPacket", err)
	}

	dec, err := NewDecoder(bytes.NewReader(data[:len(data)-1]))
	if err != nil {
		t.Fatal(err)
	}
	var lastErr error
	for lastErr == nil {
		_, lastErr = dec.DecodeChunk()
	}
	if !errors.Is(lastErr, ErrCorruptPacket) {
		t.Errorf("DecodeChunk() on truncated packet err = %v, want ErrCorruptPacket", lastErr)
	}
}

func TestDecode_StreamedShortChunkMustBeLast(t *testing.T) {
	s := DefaultSettings()
	s.FramesPerChunk = 100

	a := encodeStream(t, make([]int16, 50), 1, &s, 1)
	b := encodeStream(t, make([]int16, 100), 1, &s, 1)
	data := append(bytes.Clone(a), b[HeaderSize:]...)

	if _, err := Decode(data); !errors.Is(err, ErrCorruptPacket) {
		t.Errorf("Decode() err = %v, want ErrCorruptPacket", err)
	}

	dec, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dec.DecodeChunk(); err != nil {
		t.Fatalf("first DecodeChunk() error = %v", err)
	}
	if _, err := dec.DecodeChunk(); !errors.Is(err, ErrCorruptPacket) {
		t.Errorf("second DecodeChunk() err = %v, want ErrCorruptPacket", err)
	}
}

func TestDecoder_ErrorSticks(t *testing.T) {
	s := DefaultSettings()
	s.FramesPerChunk = 100

	one := encodeStream(t, make([]int16, 100), 1, &s, 1)
	chunkLen := len(one) - HeaderSize
	data := encodeStream(t, make([]int16, 300), 1, &s, 3)
	if len(data) != HeaderSize+3*chunkLen {
		t.Fatalf("stream of 3 chunks is %d bytes, want %d", len(data), HeaderSize+3*chunkLen)
	}
	// Frame count of the second chunk.
	data[HeaderSize+chunkLen] = 0xff
	data[HeaderSize+chunkLen+1] = 0xff

	dec, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dec.DecodeChunk(); err != nil {
		t.Fatalf("first DecodeChunk() error = %v", err)
	}
	_, first := dec.DecodeChunk()
	if !errors.Is(first, ErrCorruptPacket) {
		t.Fatalf("second DecodeChunk() err = %v, want ErrCorruptPacket", first)
	}
	for i := 0; i < 3; i++ {
		chunk, err := dec.DecodeChunk()
		if err != first || chunk != nil {
			t.Fatalf("DecodeChunk() after failure = %d samples, %v; want %v", len(chunk), err, first)
		}
	}
	if _, err := dec.DecodeAll(); err != first {
		t.Errorf("DecodeAll() after failure err = %v, want %v", err, first)
	}
}

func TestDecode_SampleLimit(t *testing.T) {
	s := DefaultSettings()
	s.FramesPerChunk = 100
	in := sineWave(1000, 300, 8000, 7000)

	pkt, err := Encode(in, 8000, 1, &s)
	if err != nil {
		t.Fatal(err)
	}
	streamed := encodeStream(t, in, 1, &s, 4)

	for _, tt := range []struct {
		name string
		data []byte
	}{
		{"counted", pkt.Bytes()},
		{"streamed", streamed},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data, withSampleLimit(1000)); err != nil {
				t.Fatalf("Decode() at the limit error = %v", err)
			}
			_, err := Decode(tt.data, withSampleLimit(999))
			if !errors.Is(err, ErrAllocationFailure) || Code(err) != int(ErrAllocationFailure) {
				t.Errorf("Decode() over the limit err = %v, want ErrAllocationFailure", err)
			}

			dec, err := NewDecoder(bytes.NewReader(tt.data), withSampleLimit(950))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := dec.DecodeAll(); !errors.Is(err, ErrAllocationFailure) {
				t.Errorf("DecodeAll() over the limit err = %v, want ErrAllocationFailure", err)
			}
		})
	}
}
