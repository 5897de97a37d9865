package edtrt

import (
	"fmt"

	"github.com/golobby/config/v3"
)

// ConfigProvider exposes a decoded configuration struct. Every
// registered config section (RuntimeConfig itself, plus one per
// subsystem that implements Configurable) has one.
type ConfigProvider interface {
	GetConfig() any
}

// StdConfigProvider is the default ConfigProvider: a plain holder
// around whatever struct was registered.
type StdConfigProvider struct {
	cfg any
}

// NewStdConfigProvider wraps cfg (normally a pointer to a config
// struct) as a ConfigProvider.
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

func (s *StdConfigProvider) GetConfig() any { return s.cfg }

// LoadConfig runs every feeder over provider's struct in order, then
// applies struct-tag defaults and required-field validation. Later
// feeders win on a field they also set, matching the env-overrides-file
// precedence DefaultFeeders establishes.
func LoadConfig(provider ConfigProvider, feeders []Feeder) error {
	if provider == nil {
		return ErrConfigProviderNil
	}
	cfg := provider.GetConfig()
	if cfg == nil {
		return fmt.Errorf("%w: provider returned nil config", ErrConfigNil)
	}

	builder := config.New()
	for _, feeder := range feeders {
		builder.AddFeeder(feeder)
	}
	builder.AddStruct(cfg)
	if err := builder.Feed(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigFeederError, err)
	}

	if err := ProcessConfigDefaults(cfg); err != nil {
		return err
	}
	return ValidateConfigRequired(cfg)
}
