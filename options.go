package sea

import (
	"io"
	"log/slog"

	"github.com/llehouerou/go-sea/internal/alloc"
	"github.com/llehouerou/go-sea/internal/vbr"
)

// Option configures an encode or decode call.
type Option func(*options)

type options struct {
	metadata string
	logger   *slog.Logger
	policy   vbr.Policy
	limit    uint64 // most samples a decode may produce
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy: vbr.AmplitudePolicy{},
		limit:  alloc.MaxSamples,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMetadata stores a UTF-8 string in the packet header. Decoding ignores
// this option.
func WithMetadata(s string) Option {
	return func(o *options) {
		o.metadata = s
	}
}

// WithLogger sets the logger that receives chunk-level debug records.
// A nil logger keeps the default, which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// withPolicy replaces the VBR primary width policy.
func withPolicy(p vbr.Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// withSampleLimit lowers the most samples a decode may produce.
func withSampleLimit(n uint64) Option {
	return func(o *options) {
		o.limit = min(n, alloc.MaxSamples)
	}
}
