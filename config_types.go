package edtrt

import "time"

// RuntimeConfig is the root configuration object fed by RuntimeConfig's
// provider. It carries only the knobs the runtime itself needs; every
// subsystem-specific section is registered separately via
// Runtime.RegisterConfigSection and feeds off the same Feeders.
type RuntimeConfig struct {
	// Workers is the number of worker goroutines the dispatch package
	// starts at compute-ok. Zero leaves the pool at its default of one
	// worker.
	Workers int `default:"0" desc:"worker goroutine count, 0 = one worker"`

	// RingDepth is the slot-queue ring depth carried in the config.
	// The transport package does not read it (transport.NewEndpoint
	// takes its queue depths as arguments), and no power-of-two check
	// is made.
	RingDepth int `default:"1024" required:"true" desc:"slot-queue ring depth, power of two"`

	// PollWeightLocal and PollWeightRemote carry the weighted
	// round-robin ratio across the two inbound queues, mirroring the
	// comm platform's local-vs-remote poll-count tunable. The transport
	// package does not read them; transport.NewEndpoint takes its
	// weights as arguments.
	PollWeightLocal  int `default:"2" desc:"poll passes given to the local-originated inbound queue per cycle"`
	PollWeightRemote int `default:"1" desc:"poll passes given to the remote-originated inbound queue per cycle"`

	// PhaseCounts overrides the default one-phase-per-runlevel
	// configuration; keys are runlevel names ("pd-ok", ...), values
	// are phase counts. Nil entries default to 1.
	PhaseCounts map[string]int `desc:"per-runlevel phase counts, runlevel name -> count"`

	// ShutdownGrace bounds how long RunDown waits for a deferred
	// SwitchRunlevel callback before giving up and returning a
	// timeout error.
	ShutdownGrace time.Duration `default:"10s" desc:"max wait for a deferred runlevel callback during tear-down"`

	// IntrospectAddr, when non-empty, starts the chi-based
	// introspection HTTP server (/healthz, /runlevel, /handles) on
	// this address.
	IntrospectAddr string `desc:"address for the introspection HTTP server, empty disables it"`

	// ConfigWatch is carried in the config, but nothing in this module
	// reads it: no file watcher is started and no hot reload happens.
	ConfigWatch bool `default:"false" desc:"watch the config file and hot-reload on change"`
}

// ConfigurationField describes one field of a decoded configuration
// struct, used by GenerateSampleConfig and the introspection surface
// to describe a subsystem's configuration shape without reflecting on
// it again at request time.
type ConfigurationField struct {
	FieldName    string
	Type         string
	DefaultValue interface{}
	Required     bool
	Description  string
	Path         string
}

// ConfigurationSchema is the full set of ConfigurationFields for one
// configuration section, named by SectionName.
type ConfigurationSchema struct {
	SectionName string
	Fields      []ConfigurationField
}
