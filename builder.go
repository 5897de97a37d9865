package edtrt

import (
	"time"

	"github.com/open-edt/edtrt/runlevel"
)

// RuntimeBuilder assembles a Runtime step by step: config provider,
// logger, feeders, subsystems, then Build validates and loads
// RuntimeConfig and returns a Runtime ready for Up.
type RuntimeBuilder struct {
	logger      Logger
	cfg         *RuntimeConfig
	feeders     []Feeder
	subsystems  []Subsystem
	phaseCounts runlevel.PhaseCounts
}

// Option configures a RuntimeBuilder.
type Option func(*RuntimeBuilder)

// NewRuntimeBuilder starts a builder with the package defaults: a
// one-phase-per-runlevel machine and DefaultFeeders (environment
// variables only).
func NewRuntimeBuilder() *RuntimeBuilder {
	return &RuntimeBuilder{
		cfg:         &RuntimeConfig{},
		feeders:     append([]Feeder(nil), DefaultFeeders...),
		phaseCounts: runlevel.DefaultPhaseCounts(),
	}
}

// NewRuntime is the functional-options entry point: apply opts to a
// fresh builder and Build the result in one call.
func NewRuntime(opts ...Option) (Runtime, error) {
	b := NewRuntimeBuilder()
	for _, opt := range opts {
		opt(b)
	}
	return b.Build()
}

// WithLogger sets the runtime's Logger. Required.
func WithLogger(logger Logger) Option {
	return func(b *RuntimeBuilder) { b.logger = logger }
}

// WithFeeders replaces the default feeder chain. Feeders run in order;
// a later feeder overwrites a field an earlier one also set.
func WithFeeders(feeders ...Feeder) Option {
	return func(b *RuntimeBuilder) { b.feeders = feeders }
}

// WithConfig seeds the RuntimeConfig struct feeders run against,
// overriding whatever defaults Build would otherwise apply.
func WithConfig(cfg *RuntimeConfig) Option {
	return func(b *RuntimeBuilder) { b.cfg = cfg }
}

// WithSubsystems registers one or more Subsystems with the runtime.
func WithSubsystems(subsystems ...Subsystem) Option {
	return func(b *RuntimeBuilder) { b.subsystems = append(b.subsystems, subsystems...) }
}

// Build loads RuntimeConfig through the feeder chain, registers every
// subsystem added via WithSubsystems, and returns a Runtime that has
// not yet been brought up. Per-runlevel phase counts named in
// cfg.PhaseCounts override the builder's machine configuration.
func (b *RuntimeBuilder) Build() (Runtime, error) {
	if b.logger == nil {
		return nil, ErrLoggerNotSet
	}

	provider := NewStdConfigProvider(b.cfg)
	if err := LoadConfig(provider, b.feeders); err != nil {
		return nil, err
	}

	counts := b.phaseCounts
	for name, n := range b.cfg.PhaseCounts {
		rl, ok := runlevelByName(name)
		if !ok {
			continue
		}
		counts[int(rl)] = n
	}

	rt := NewStdRuntime(provider, b.logger, counts)

	for _, s := range b.subsystems {
		if err := rt.RegisterSubsystem(s); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// runlevelByName resolves a runlevel's canonical String() form back to
// its value, for decoding RuntimeConfig.PhaseCounts.
func runlevelByName(name string) (runlevel.RunLevel, bool) {
	for _, rl := range runlevel.Levels() {
		if rl.String() == name {
			return rl, true
		}
	}
	return 0, false
}

// shutdownGraceOrDefault returns cfg.ShutdownGrace, or 10s when it is
// not positive.
func (cfg *RuntimeConfig) shutdownGraceOrDefault() time.Duration {
	if cfg.ShutdownGrace <= 0 {
		return 10 * time.Second
	}
	return cfg.ShutdownGrace
}
