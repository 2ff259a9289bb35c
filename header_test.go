package sea

import (
	"bytes"
	"errors"
	"testing"
)

func testHeader() *Header {
	return &Header{
		Version:           Version,
		Channels:          2,
		FramesPerChunk:    5120,
		SampleRate:        44100,
		TotalFrames:       123456,
		ScaleFactorBits:   4,
		ScaleFactorFrames: 20,
		PrimaryBits:       4,
		ResidualBits16:    48,
		VBR:               true,
		Metadata:          "title=x",
	}
}

func TestHeader_Layout(t *testing.T) {
	h := testHeader()
	b := h.appendTo(nil)

	want := []byte{
		's', 'e', 'a', 'c',
		1,          // version
		2,          // channels
		0x00, 0x14, // frames per chunk 5120
		0x44, 0xAC, 0x00, 0x00, // sample rate 44100
		0x40, 0xE2, 0x01, 0x00, // total frames 123456
		4, 20, 4, 48,
		0x01,                   // flags: VBR
		0x07, 0x00, 0x00, 0x00, // metadata length
		't', 'i', 't', 'l', 'e', '=', 'x',
	}
	if !bytes.Equal(b, want) {
		t.Errorf("appendTo() =\n% x\nwant\n% x", b, want)
	}
	if h.size() != len(want) {
		t.Errorf("size() = %d, want %d", h.size(), len(want))
	}
}

func TestHeader_RoundTrip(t *testing.T) {
	for _, streamed := range []bool{false, true} {
		h := testHeader()
		h.Streamed = streamed
		if streamed {
			h.TotalFrames = 0
		}

		data := append(h.appendTo(nil), 0xAA, 0xBB)
		got, n, err := parseHeader(data)
		if err != nil {
			t.Fatalf("parseHeader() error = %v", err)
		}
		if n != len(data)-2 {
			t.Errorf("parseHeader() consumed %d bytes, want %d", n, len(data)-2)
		}
		if *got != *h {
			t.Errorf("parseHeader() = %+v, want %+v", *got, *h)
		}
	}
}

func TestHeader_TotalSamplesAndSettings(t *testing.T) {
	h := testHeader()
	if got := h.TotalSamples(); got != 246912 {
		t.Errorf("TotalSamples() = %d, want 246912", got)
	}
	s := h.Settings()
	want := EncoderSettings{
		ScaleFactorBits:   4,
		ScaleFactorFrames: 20,
		ResidualBits:      3,
		FramesPerChunk:    5120,
		PrimaryBits:       4,
		VBR:               true,
	}
	if s != want {
		t.Errorf("Settings() = %+v, want %+v", s, want)
	}
}

func TestHeader_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{"empty", func(b []byte) []byte { return nil }},
		{"short", func(b []byte) []byte { return b[:HeaderSize-1] }},
		{"bad magic", func(b []byte) []byte { b[0] = 'S'; return b }},
		{"bad version", func(b []byte) []byte { b[4] = 2; return b }},
		{"zero channels", func(b []byte) []byte { b[5] = 0; return b }},
		{"zero chunk frames", func(b []byte) []byte { b[6], b[7] = 0, 0; return b }},
		{"zero sample rate", func(b []byte) []byte { b[8], b[9], b[10], b[11] = 0, 0, 0, 0; return b }},
		{"zero scale factor bits", func(b []byte) []byte { b[16] = 0; return b }},
		{"scale factor bits too wide", func(b []byte) []byte { b[16] = 9; return b }},
		{"zero group frames", func(b []byte) []byte { b[17] = 0; return b }},
		{"group longer than chunk", func(b []byte) []byte { b[6], b[7] = 10, 0; b[17] = 11; return b }},
		{"primary too narrow", func(b []byte) []byte { b[18] = 1; return b }},
		{"primary too wide", func(b []byte) []byte { b[18] = 9; return b }},
		{"residual too large", func(b []byte) []byte { b[19] = 129; return b }},
		{"unknown flag", func(b []byte) []byte { b[20] |= 0x04; return b }},
		{"streamed with total", func(b []byte) []byte { b[20] |= flagStreamed; return b }},
		{"metadata truncated", func(b []byte) []byte { return b[:len(b)-1] }},
		{"metadata length overflow", func(b []byte) []byte { b[21], b[22], b[23], b[24] = 0xFF, 0xFF, 0xFF, 0xFF; return b }},
		{"metadata not UTF-8", func(b []byte) []byte { b[len(b)-1] = 0xFF; return b }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(testHeader().appendTo(nil))
			if _, _, err := parseHeader(data); !errors.Is(err, ErrCorruptPacket) {
				t.Errorf("parseHeader() err = %v, want ErrCorruptPacket", err)
			}
			if _, err := ParseHeader(data); !errors.Is(err, ErrCorruptPacket) {
				t.Errorf("ParseHeader() err = %v, want ErrCorruptPacket", err)
			}
		})
	}
}
