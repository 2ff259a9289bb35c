// Package source reads 16-bit interleaved PCM from the input formats the
// seac command accepts: FLAC, MP3 and raw little-endian s16 files.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/go-sea/internal/alloc"
)

// ErrFormat indicates an input whose format cannot be determined.
var ErrFormat = errors.New("source: unknown input format")

// Source yields interleaved int16 samples.
type Source interface {
	// Read fills samples with whole frames and returns the count written.
	// It returns io.EOF once the input is exhausted.
	Read(samples []int16) (int, error)
	SampleRate() int
	Channels() int
	Close() error
}

// RawFormat describes headerless PCM input.
type RawFormat struct {
	SampleRate int
	Channels   int
}

// Open opens path and picks a decoder from its extension. raw describes the
// layout of .pcm and .raw inputs and is ignored otherwise.
func Open(path string, raw RawFormat) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	var src Source
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".flac":
		src, err = NewFLAC(f)
	case ".mp3":
		src, err = NewMP3(f)
	case ".pcm", ".raw", ".s16":
		src, err = NewRaw(f, raw)
	default:
		err = fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// ReadAll drains src. The result is refused once it would exceed the codec
// buffer limit.
func ReadAll(src Source) ([]int16, error) {
	ch := src.Channels()
	if ch <= 0 {
		return nil, fmt.Errorf("source: %d channels", ch)
	}

	buf := make([]int16, 4096*ch)
	var out []int16
	for {
		n, err := src.Read(buf)
		if err := alloc.CheckSamples(uint64(len(out)+n), alloc.MaxSamples); err != nil {
			return nil, fmt.Errorf("source: input too long: %w", err)
		}
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
