package feeders

import "github.com/golobby/config/v3/pkg/feeder"

// DotEnvFeeder reads KEY=VALUE pairs from a .env-style file and feeds
// a struct the same way EnvFeeder does, without touching the real
// process environment.
type DotEnvFeeder = feeder.DotEnv

// NewDotEnvFeeder creates a DotEnvFeeder reading from filePath.
func NewDotEnvFeeder(filePath string) DotEnvFeeder {
	return DotEnvFeeder{Path: filePath}
}
