package vexiter

type options struct {
	logger          *Logger
	metrics         MetricsCollector
	modePolicy      ModePolicy
	batchSizePolicy BatchSizePolicy
}

// Option configures hybrid iterator construction.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:          NoopLogger(),
		metrics:         NoopMetricsCollector{},
		modePolicy:      DefaultModePolicy,
		batchSizePolicy: FixedBatchSize,
	}
}

// WithLogger configures the logger. If nil is passed, logging stays
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics configures the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithModePolicy overrides the query strategy selection. The policy is
// consulted once, at construction.
func WithModePolicy(p ModePolicy) Option {
	return func(o *options) {
		if p != nil {
			o.modePolicy = p
		}
	}
}

// WithBatchSizePolicy overrides the candidate batch sizing used in
// Batched mode.
func WithBatchSizePolicy(p BatchSizePolicy) Option {
	return func(o *options) {
		if p != nil {
			o.batchSizePolicy = p
		}
	}
}
