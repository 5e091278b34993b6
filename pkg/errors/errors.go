package errors

import (
	"errors"
	"fmt"
)

// ErrConfiguration a row the workflow depends on (stage, document type, group)
// is missing at runtime
var ErrConfiguration = errors.New("configuración del sistema incompleta")

// ConfigurationError names the missing entity and its lookup key
type ConfigurationError struct {
	Entity string
	Key    string
	Err    error
}

// NewConfigurationError wraps a lookup failure for entity/key
func NewConfigurationError(entity, key string, err error) *ConfigurationError {
	return &ConfigurationError{Entity: entity, Key: key, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q not found: %v", e.Entity, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Is matches ErrConfiguration
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.Err }
