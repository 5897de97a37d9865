// Package edtrt provides CloudEvents integration for the Observer
// pattern: construction helpers and validation for the notification
// payloads a Runtime emits.
package edtrt

import (
	"errors"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent aliases the CloudEvents SDK's Event type for convenience.
type CloudEvent = cloudevents.Event

// NewCloudEvent builds a CloudEvent with the required attributes set.
func NewCloudEvent(eventType, source string, data interface{}, metadata map[string]interface{}) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	for key, value := range metadata {
		event.SetExtension(key, value)
	}
	return event
}

// RunlevelLifecycleSchema identifies the RunlevelLifecyclePayload shape.
const RunlevelLifecycleSchema = "edtrt.runlevel.lifecycle.v1"

// RunlevelLifecyclePayload is the structured body of a runlevel or
// subsystem lifecycle notification — a strongly-typed alternative to
// scattering the same details across CloudEvent extensions.
type RunlevelLifecyclePayload struct {
	// Subject is what the event is about: "subsystem" or "runtime".
	Subject string `json:"subject"`
	// Name is the subsystem name, or empty for a runtime-wide event.
	Name string `json:"name"`
	// Action is the lifecycle action: registered|up|down|failed|...
	Action    string                 `json:"action"`
	RunLevel  string                 `json:"runLevel,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewRunlevelLifecycleEvent builds a CloudEvent from a structured
// lifecycle payload, also setting a few extensions so listeners can
// route on type without decoding the payload.
func NewRunlevelLifecycleEvent(source, subject, name, runLevel, action string, metadata map[string]interface{}) cloudevents.Event {
	payload := RunlevelLifecyclePayload{
		Subject:   subject,
		Name:      name,
		Action:    action,
		RunLevel:  runLevel,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
	evt := cloudevents.NewEvent()
	evt.SetID(generateEventID())
	evt.SetSource(source)

	switch subject {
	case "subsystem":
		switch action {
		case "registered":
			evt.SetType(EventTypeSubsystemRegistered)
		case "up":
			evt.SetType(EventTypeSubsystemUp)
		case "down":
			evt.SetType(EventTypeSubsystemDown)
		case "failed":
			evt.SetType(EventTypeSubsystemFailed)
		default:
			evt.SetType(EventTypeRunlevelTransition)
		}
	case "runtime":
		switch action {
		case "up":
			evt.SetType(EventTypeRuntimeUp)
		case "down":
			evt.SetType(EventTypeRuntimeDown)
		case "failed":
			evt.SetType(EventTypeRuntimeFailed)
		default:
			evt.SetType(EventTypeRunlevelTransition)
		}
	default:
		evt.SetType(EventTypeRunlevelTransition)
	}

	evt.SetTime(payload.Timestamp)
	evt.SetSpecVersion(cloudevents.VersionV1)
	_ = evt.SetData(cloudevents.ApplicationJSON, payload)

	// CloudEvents 1.0 section 3.1.1 restricts extension names to
	// lower-case alphanumerics only, so these stay unseparated rather
	// than hyphenated.
	evt.SetExtension("payloadschema", RunlevelLifecycleSchema)
	evt.SetExtension("lifecycleaction", action)
	evt.SetExtension("lifecyclesubject", subject)
	evt.SetExtension("lifecyclename", name)
	return evt
}

// generateEventID returns a UUIDv7 so event IDs sort by creation time.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent checks event against the CloudEvents spec.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// HandleEventEmissionError gives subsystems a consistent way to treat
// "no subject available" as non-fatal (the runtime hasn't wired an
// observer subject yet, e.g. in a unit test). It returns true if the
// error was absorbed, false if the caller should still handle it.
func HandleEventEmissionError(err error, logger Logger, subsystemName, eventType string) bool {
	if errors.Is(err, ErrNoSubjectForEventEmission) {
		return true
	}
	if err.Error() == "no subject available for event emission" {
		return true
	}
	if logger != nil {
		logger.Debug("failed to emit event", "subsystem", subsystemName, "eventType", eventType, "error", err)
		return true
	}
	return false
}
