package feeders

import (
	"encoding/json"
	"fmt"

	"github.com/golobby/config/v3/pkg/feeder"
)

// JSONFeeder is a feeder that reads JSON files.
type JSONFeeder struct {
	feeder.Json
}

// NewJSONFeeder creates a new JSONFeeder reading from filePath.
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{feeder.Json{Path: filePath}}
}

// FeedKey reads the JSON file and decodes only the value at key into
// target.
func (j JSONFeeder) FeedKey(key string, target interface{}) error {
	var allData map[string]interface{}
	if err := j.Feed(&allData); err != nil {
		return err
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json feeder: marshal key %q: %w", key, err)
	}
	if err := json.Unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("json feeder: unmarshal key %q: %w", key, err)
	}
	return nil
}
