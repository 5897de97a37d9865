package edtrt

import (
	"errors"
)

// Error taxonomy. The runtime propagates a small, fixed set of sentinel
// errors rather than ad-hoc error strings, so callers can branch on
// them with errors.Is. EAGAIN/EBUSY/EINTR are transient; ENOMEM is
// structural and EINVAL a caller bug, so neither is worth retrying.
// Every error is returned to the immediate caller; an error a runlevel
// participant returns aborts that runlevel pass.
var (
	// ErrEINVAL marks a malformed API call: impossible at the caller's
	// current state. Always a caller bug.
	ErrEINVAL = errors.New("EINVAL: invalid argument or call at this state")

	// ErrENOMEM marks structural capacity exhaustion (a queue of size
	// zero, exhausted handle space). Never transient.
	ErrENOMEM = errors.New("ENOMEM: structural capacity exhaustion")

	// ErrEAGAIN marks transient contention; the caller should retry.
	ErrEAGAIN = errors.New("EAGAIN: transient contention, retry")

	// ErrEBUSY marks a transient unavailability (no slot free right
	// now); the caller should retry later.
	ErrEBUSY = errors.New("EBUSY: resource busy, retry later")

	// ErrEPERM marks an operation forbidden by current ownership
	// (e.g. validating a slot reserved by a different producer).
	ErrEPERM = errors.New("EPERM: operation not permitted by current ownership")

	// ErrEINTR marks a partial result: a slot was found but its
	// content isn't usable under the caller's constraints; the caller
	// may reissue with different constraints.
	ErrEINTR = errors.New("EINTR: partial result, caller may reissue")
)

// Errors raised by the configuration stack.
var (
	ErrConfigSectionNotFound = errors.New("config section not found")
	ErrRuntimeNil            = errors.New("runtime is nil")
	ErrConfigProviderNil     = errors.New("failed to load runtime config: config provider is nil")
	ErrConfigSectionError    = errors.New("failed to load runtime config: error triggered by section")

	ErrConfigNil                  = errors.New("config is nil")
	ErrConfigNotPointer           = errors.New("config must be a pointer")
	ErrConfigNotStruct            = errors.New("config must be a struct")
	ErrConfigRequiredFieldMissing = errors.New("required field is missing")
	ErrConfigValidationFailed     = errors.New("config validation failed")
	ErrUnsupportedTypeForDefault  = errors.New("unsupported type for default value")
	ErrDefaultValueParseError     = errors.New("failed to parse default value")
	ErrInvalidFieldKind           = errors.New("invalid field kind")
	ErrUnsupportedFormatType      = errors.New("unsupported format type")
	ErrConfigFeederError          = errors.New("config feeder error")
)

// Errors raised by the service registry / subsystem wiring.
var (
	ErrServiceAlreadyRegistered = errors.New("service already registered")
	ErrServiceNotFound          = errors.New("service not found")
	ErrServiceNil               = errors.New("service is nil")
	ErrServiceWrongType         = errors.New("service doesn't satisfy required type")

	ErrCircularDependency         = errors.New("circular dependency detected among subsystems")
	ErrSubsystemDependencyMissing = errors.New("subsystem depends on a subsystem that was never registered")
	ErrSubsystemAlreadyRegistered = errors.New("subsystem already registered")
)

// Errors raised by the observer subject and the runlevel bring-up path.
var (
	ErrNoSubjectForEventEmission = errors.New("no subject available for event emission")
	ErrRuntimeAlreadyUp          = errors.New("runtime is already at or past the requested runlevel")
	ErrLoggerNotSet              = errors.New("builder: logger not set")
)
