package feeders

import "github.com/golobby/config/v3/pkg/feeder"

// EnvFeeder populates a struct from environment variables named by its
// `env:"..."` struct tags, recursing into nested structs.
type EnvFeeder = feeder.Env

// NewEnvFeeder creates a new EnvFeeder.
func NewEnvFeeder() EnvFeeder {
	return EnvFeeder{}
}
