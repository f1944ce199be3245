package seqidx

import (
	"log/slog"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	headerPredicate  HeaderPredicate
	idParser         IDParser
	typeTag          string
	scanRateLimit    int // bytes per second, 0 disables throttling
	disableLock      bool
}

// Option configures Index constructor/open behavior.
type Option func(*options)

// WithHeaderPredicate configures how record header lines are recognized
// during indexing and verification. The line is passed without its
// terminator. If nil is passed, DefaultHeaderPredicate is used.
func WithHeaderPredicate(p HeaderPredicate) Option {
	return func(o *options) {
		if p == nil {
			p = DefaultHeaderPredicate
		}
		o.headerPredicate = p
	}
}

// WithIDParser configures how record ids are extracted from header lines.
// If nil is passed, DefaultIDParser is used.
//
// Example, id is the full header without the marker:
//
//	idx, _ := seqidx.Open(ctx, path, seqidx.ModeReadWrite,
//	    seqidx.WithIDParser(func(header []byte) (string, error) {
//	        return string(header[1:]), nil
//	    }))
func WithIDParser(p IDParser) Option {
	return func(o *options) {
		if p == nil {
			p = DefaultIDParser
		}
		o.idParser = p
	}
}

// WithTypeTag overrides the type tag checked against the store's stamp.
// Indexes built for distinct record kinds reject each other's stores.
// The default is DefaultTypeTag.
func WithTypeTag(tag string) Option {
	return func(o *options) {
		if tag == "" {
			tag = DefaultTypeTag
		}
		o.typeTag = tag
	}
}

// WithScanRateLimit caps indexing read throughput at bytesPerSecond.
// Useful when building an index next to latency-sensitive workloads on the
// same disk. Values <= 0 leave scanning unthrottled (the default).
func WithScanRateLimit(bytesPerSecond int) Option {
	return func(o *options) {
		o.scanRateLimit = bytesPerSecond
	}
}

// WithoutLock disables the advisory write lock taken by Open in
// ModeReadWrite. The caller then owns single-writer serialization across
// processes.
func WithoutLock() Option {
	return func(o *options) {
		o.disableLock = true
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &seqidx.BasicMetricsCollector{}
//	idx, _ := seqidx.Open(ctx, path, seqidx.ModeReadOnly, seqidx.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Gets: %d, Avg latency: %dns\n", stats.GetCount, stats.GetAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := seqidx.NewJSONLogger(slog.LevelInfo)
//	idx, _ := seqidx.Open(ctx, path, seqidx.ModeReadWrite, seqidx.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		headerPredicate:  DefaultHeaderPredicate,
		idParser:         DefaultIDParser,
		typeTag:          DefaultTypeTag,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
