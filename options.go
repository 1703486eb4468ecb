package shapesheet

import "go.uber.org/zap"

// options holds configuration shared by Executor and Writer.
type options struct {
	logger       *zap.Logger
	cache        *QueryCache
	resultUnits  []UnitCode
	blastGuards  bool
	testCircular bool
}

func defaultOptions() *options {
	return &options{
		logger: zap.NewNop(),
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures an Executor or a Writer.
type Option func(*options)

// WithLogger sets the structured logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithQueryCache lets an Executor reuse query shapes built by the typed cell
// group readers. Without a cache those queries are rebuilt per call.
func WithQueryCache(c *QueryCache) Option {
	return func(o *options) { o.cache = c }
}

// WithResultUnits sets the unit codes results are read in: one code for all
// cells, or one per cell. The default lets the host pick (UnitNoCast).
func WithResultUnits(units ...UnitCode) Option {
	return func(o *options) { o.resultUnits = units }
}

// WithBlastGuards makes a Writer ask the host to ignore cell guards on commit.
func WithBlastGuards(enabled bool) Option {
	return func(o *options) { o.blastGuards = enabled }
}

// WithTestCircular makes a Writer ask the host to reject circular references on commit.
func WithTestCircular(enabled bool) Option {
	return func(o *options) { o.testCircular = enabled }
}
