package workbook

import "go.uber.org/zap"

// Options configures a Document.
type Options struct {
	Logger *zap.Logger
}

// Option is a functional option for Document constructors.
type Option func(*Options)

// WithLogger sets the logger used for host diagnostics.
// Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
