package edtrt

import "github.com/open-edt/edtrt/feeders"

// Feeder populates a configuration struct from one source (env vars,
// a TOML/YAML/JSON file, ...).
type Feeder interface {
	Feed(structure interface{}) error
}

// ComplexFeeder extends Feeder with the ability to feed a single
// named sub-key of a larger structure, used when RuntimeConfig and a
// subsystem's own config section are fed in the same pass.
type ComplexFeeder interface {
	Feeder
	FeedKey(string, interface{}) error
}

// DefaultFeeders is the feeder chain NewRuntime wires when the caller
// doesn't supply its own: environment variables win, since they are
// the natural override point at deploy time.
var DefaultFeeders = []Feeder{
	feeders.NewEnvFeeder(),
}
