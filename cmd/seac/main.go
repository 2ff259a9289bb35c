// Command seac encodes audio files to SEA packets and decodes them back to
// raw PCM.
//
// Usage:
//
//	seac encode -in song.flac -out song.sea [-preset voice.yaml] [-vbr]
//	seac decode -in song.sea -out song.pcm
//	seac info -in song.sea
package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	sea "github.com/llehouerou/go-sea"
	"github.com/llehouerou/go-sea/internal/output"
	"github.com/llehouerou/go-sea/internal/preset"
	"github.com/llehouerou/go-sea/internal/resample"
	"github.com/llehouerou/go-sea/internal/source"
)

// blockFrames is the number of frames moved through the pipeline at once.
const blockFrames = 4096

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "encode":
		err = runEncode(args[1:], stderr)
	case "decode":
		err = runDecode(args[1:], stderr)
	case "info":
		err = runInfo(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "seac: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "seac: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: seac <command> [flags]

commands:
  encode   encode a FLAC, MP3 or raw s16le file
  decode   decode a packet to raw s16le PCM
  info     print packet header fields

Run "seac <command> -h" for command flags.
`)
}

type encodeFlags struct {
	in, out      string
	presetPath   string
	vbr          bool
	residualBits float64
	rate         int
	channels     int
	metadata     string
	inRate       int
	inChannels   int
	stream       bool
	logLevel     string
	logFormat    string
}

func runEncode(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f encodeFlags
	fs.StringVar(&f.in, "in", "", "Input file (.flac, .mp3, .pcm, .raw, .s16)")
	fs.StringVar(&f.out, "out", "", "Output packet file")
	fs.StringVar(&f.presetPath, "preset", "", "YAML encoder preset")
	fs.BoolVar(&f.vbr, "vbr", false, "Enable adaptive bit allocation")
	fs.Float64Var(&f.residualBits, "residual-bits", sea.DefaultResidualBits, "Average residual bits per sample (0-8)")
	fs.IntVar(&f.rate, "rate", 0, "Output sample rate (0 keeps the input rate)")
	fs.IntVar(&f.channels, "channels", 0, "Output channel count (0 keeps the input layout)")
	fs.StringVar(&f.metadata, "metadata", "", "UTF-8 metadata stored in the header")
	fs.IntVar(&f.inRate, "in-rate", 0, "Sample rate of raw input")
	fs.IntVar(&f.inChannels, "in-channels", 0, "Channel count of raw input")
	fs.BoolVar(&f.stream, "stream", false, "Write a streamed packet chunk by chunk")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if f.in == "" || f.out == "" {
		return errors.New("encode needs -in and -out")
	}

	p := preset.Default()
	if f.presetPath != "" {
		var err error
		if p, err = preset.Load(f.presetPath); err != nil {
			return err
		}
	}
	applyFlags(fs, &f, p)
	if err := p.Validate(); err != nil {
		return err
	}

	logger := initLogger(p.Logging, stderr)
	logger.Info("Encoding",
		slog.String("input", f.in),
		slog.String("output", f.out),
		slog.Float64("residual_bits", p.Encoder.ResidualBits),
		slog.Bool("vbr", p.Encoder.VBR),
		slog.Bool("stream", f.stream),
	)

	src, err := source.Open(f.in, source.RawFormat{SampleRate: f.inRate, Channels: f.inChannels})
	if err != nil {
		return err
	}
	pipe, err := newPipeline(src, p.Output)
	if err != nil {
		src.Close()
		return err
	}
	defer pipe.Close()

	out, err := os.Create(f.out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	settings := p.Encoder.Settings()
	opts := []sea.Option{sea.WithMetadata(p.Metadata), sea.WithLogger(logger)}
	var written int64
	if f.stream {
		written, err = encodeStream(pipe, out, &settings, opts)
	} else {
		written, err = encodeAll(pipe, out, &settings, opts)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logger.Info("Encoded",
		slog.Int("sample_rate", pipe.rate),
		slog.Int("channels", pipe.channels),
		slog.Int64("frames", pipe.frames),
		slog.Int64("bytes", written),
	)
	return nil
}

// applyFlags copies explicitly set flags over the preset.
func applyFlags(fs *flag.FlagSet, f *encodeFlags, p *preset.Preset) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "vbr":
			p.Encoder.VBR = f.vbr
		case "residual-bits":
			p.Encoder.ResidualBits = f.residualBits
		case "rate":
			p.Output.SampleRate = f.rate
		case "channels":
			p.Output.Channels = f.channels
		case "metadata":
			p.Metadata = f.metadata
		case "log-level":
			p.Logging.Level = f.logLevel
		case "log-format":
			p.Logging.Format = f.logFormat
		}
	})
}

// pipeline is a source.Source that converts another source to the
// requested channel count and sample rate.
type pipeline struct {
	src       source.Source
	resampler *resample.Resampler
	rate      int
	channels  int
	frames    int64
	buf       []int16
	out       []int16
	pending   []int16
	done      bool
}

func newPipeline(src source.Source, cfg preset.OutputConfig) (*pipeline, error) {
	p := &pipeline{
		src:      src,
		rate:     src.SampleRate(),
		channels: src.Channels(),
		buf:      make([]int16, blockFrames*src.Channels()),
	}
	if cfg.Channels != 0 {
		p.channels = cfg.Channels
	}
	if cfg.SampleRate != 0 && cfg.SampleRate != p.rate {
		r, err := resample.New(p.rate, cfg.SampleRate, p.channels)
		if err != nil {
			return nil, err
		}
		p.resampler = r
		p.rate = cfg.SampleRate
	}
	return p, nil
}

// Read implements source.Source.
func (p *pipeline) Read(samples []int16) (int, error) {
	for len(p.pending) == 0 {
		if p.done {
			return 0, io.EOF
		}
		if err := p.fill(); err != nil {
			return 0, err
		}
	}

	want := len(samples) - len(samples)%p.channels
	n := copy(samples[:want], p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// fill converts the next source block into pending.
func (p *pipeline) fill() error {
	n, err := p.src.Read(p.buf)
	if err != nil && err != io.EOF {
		return err
	}
	block := output.Remix(p.buf[:n], p.src.Channels(), p.channels)

	p.out = p.out[:0]
	if p.resampler != nil {
		p.out = p.resampler.Resample(p.out, block)
		if err == io.EOF {
			p.out = p.resampler.Flush(p.out)
		}
	} else {
		p.out = append(p.out, block...)
	}
	p.pending = p.out
	p.frames += int64(len(p.out) / p.channels)

	if err == io.EOF {
		p.done = true
	}
	return nil
}

// SampleRate implements source.Source.
func (p *pipeline) SampleRate() int { return p.rate }

// Channels implements source.Source.
func (p *pipeline) Channels() int { return p.channels }

// Close implements source.Source.
func (p *pipeline) Close() error { return p.src.Close() }

func encodeAll(p *pipeline, w io.Writer, settings *sea.EncoderSettings, opts []sea.Option) (int64, error) {
	samples, err := source.ReadAll(p)
	if err != nil {
		return 0, err
	}

	pkt, err := sea.Encode(samples, uint32(p.rate), uint32(p.channels), settings, opts...)
	if err != nil {
		return 0, err
	}
	defer pkt.Release()
	return pkt.WriteTo(w)
}

func encodeStream(p *pipeline, w io.Writer, settings *sea.EncoderSettings, opts []sea.Option) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}
	enc, err := sea.NewEncoder(cw, uint32(p.rate), uint32(p.channels), settings, opts...)
	if err != nil {
		return 0, err
	}

	block := make([]int16, blockFrames*p.channels)
	for {
		n, err := p.Read(block)
		if err == io.EOF {
			break
		}
		if err != nil {
			return cw.n, err
		}
		if err := enc.Write(block[:n]); err != nil {
			return cw.n, err
		}
	}
	if err := enc.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, bw.Flush()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

func runDecode(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "Input packet file")
	out := fs.String("out", "", "Output raw s16le file")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "text", "Log format (text, json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return errors.New("decode needs -in and -out")
	}

	logger := initLogger(preset.LoggingConfig{Level: *logLevel, Format: *logFormat}, stderr)

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	dec, err := sea.NewDecoder(f, sea.WithLogger(logger))
	if err != nil {
		return err
	}
	h := dec.Header()

	o, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	bw := bufio.NewWriter(o)

	var frames int64
	for {
		chunk, err := dec.DecodeChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			o.Close()
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, chunk); err != nil {
			o.Close()
			return fmt.Errorf("failed to write output: %w", err)
		}
		frames += int64(len(chunk) / int(h.Channels))
	}
	if err := bw.Flush(); err != nil {
		o.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := o.Close(); err != nil {
		return err
	}

	logger.Info("Decoded",
		slog.String("output", *out),
		slog.Uint64("sample_rate", uint64(h.SampleRate)),
		slog.Int("channels", int(h.Channels)),
		slog.Int64("frames", frames),
	)
	return nil
}

func runInfo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "Input packet file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("info needs -in")
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	dec, err := sea.NewDecoder(f)
	if err != nil {
		return err
	}
	h := dec.Header()

	fmt.Fprintf(stdout, "version:             %d\n", h.Version)
	fmt.Fprintf(stdout, "channels:            %d\n", h.Channels)
	fmt.Fprintf(stdout, "sample rate:         %d\n", h.SampleRate)
	if h.Streamed {
		fmt.Fprintln(stdout, "frames:              unknown (streamed)")
	} else {
		fmt.Fprintf(stdout, "frames:              %d\n", h.TotalFrames)
	}
	fmt.Fprintf(stdout, "frames per chunk:    %d\n", h.FramesPerChunk)
	fmt.Fprintf(stdout, "scale factor bits:   %d\n", h.ScaleFactorBits)
	fmt.Fprintf(stdout, "scale factor frames: %d\n", h.ScaleFactorFrames)
	fmt.Fprintf(stdout, "primary bits:        %d\n", h.PrimaryBits)
	fmt.Fprintf(stdout, "residual bits:       %g\n", float64(h.ResidualBits16)/16)
	fmt.Fprintf(stdout, "vbr:                 %t\n", h.VBR)
	if h.Metadata != "" {
		fmt.Fprintf(stdout, "metadata:            %s\n", h.Metadata)
	}
	return nil
}

// initLogger creates the structured logger described by cfg.
func initLogger(cfg preset.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
