package edtrt

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ConfigDiff captures the differences between two RuntimeConfig states,
// as computed by GenerateConfigDiff. Nothing in this module watches the
// config file or applies a diff to a running runtime.
type ConfigDiff struct {
	Changed map[string]FieldChange
	Added   map[string]interface{}
	Removed map[string]interface{}

	Timestamp time.Time
	DiffID    string
}

// ChangeType classifies one field-level change within a ConfigDiff.
type ChangeType string

const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeRemoved  ChangeType = "removed"
)

func (c ChangeType) String() string { return string(c) }

// FieldChange is one entry of a ConfigDiff.Changed map.
type FieldChange struct {
	OldValue    interface{}
	NewValue    interface{}
	FieldPath   string
	ChangeType  ChangeType
	IsSensitive bool
}

// HasChanges reports whether the diff carries any change at all.
func (d *ConfigDiff) HasChanges() bool {
	return len(d.Changed) > 0 || len(d.Added) > 0 || len(d.Removed) > 0
}

// ChangeSummary tallies a ConfigDiff's contents for a log line.
type ChangeSummary struct {
	TotalChanges     int
	AddedCount       int
	ModifiedCount    int
	RemovedCount     int
	SensitiveChanges int
}

func (d *ConfigDiff) ChangeSummary() ChangeSummary {
	s := ChangeSummary{
		AddedCount:    len(d.Added),
		ModifiedCount: len(d.Changed),
		RemovedCount:  len(d.Removed),
	}
	s.TotalChanges = s.AddedCount + s.ModifiedCount + s.RemovedCount
	for _, c := range d.Changed {
		if c.IsSensitive {
			s.SensitiveChanges++
		}
	}
	return s
}

// GenerateConfigDiff flattens old and new into dotted-path maps and
// reports what changed. Field names are lower-cased struct field
// names; nested structs and maps recurse.
func GenerateConfigDiff(oldConfig, newConfig interface{}) (*ConfigDiff, error) {
	diff := &ConfigDiff{
		Changed:   make(map[string]FieldChange),
		Added:     make(map[string]interface{}),
		Removed:   make(map[string]interface{}),
		Timestamp: time.Now(),
	}

	oldMap, err := configToMap(oldConfig, "")
	if err != nil {
		return nil, fmt.Errorf("flatten old config: %w", err)
	}
	newMap, err := configToMap(newConfig, "")
	if err != nil {
		return nil, fmt.Errorf("flatten new config: %w", err)
	}

	for path, oldValue := range oldMap {
		if newValue, exists := newMap[path]; exists {
			if !reflect.DeepEqual(oldValue, newValue) {
				diff.Changed[path] = FieldChange{
					OldValue:   oldValue,
					NewValue:   newValue,
					FieldPath:  path,
					ChangeType: ChangeTypeModified,
				}
			}
		} else {
			diff.Removed[path] = oldValue
		}
	}
	for path, newValue := range newMap {
		if _, exists := oldMap[path]; !exists {
			diff.Added[path] = newValue
		}
	}

	return diff, nil
}

func configToMap(config interface{}, prefix string) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if config == nil {
		return result, nil
	}

	value := reflect.ValueOf(config)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return result, nil
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Map:
		for _, key := range value.MapKeys() {
			fullKey := fmt.Sprintf("%v", key.Interface())
			if prefix != "" {
				fullKey = prefix + "." + fullKey
			}
			sub, _ := configToMap(value.MapIndex(key).Interface(), fullKey)
			for k, v := range sub {
				result[k] = v
			}
		}
	case reflect.Struct:
		t := value.Type()
		for i := 0; i < value.NumField(); i++ {
			field := value.Field(i)
			if !field.CanInterface() {
				continue
			}
			fullKey := strings.ToLower(t.Field(i).Name)
			if prefix != "" {
				fullKey = prefix + "." + fullKey
			}
			sub, _ := configToMap(field.Interface(), fullKey)
			for k, v := range sub {
				result[k] = v
			}
		}
	default:
		if prefix != "" {
			result[prefix] = config
		}
	}

	return result, nil
}
