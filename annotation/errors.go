package annotation

import "fmt"

// ConfigurationError is a fatal precondition failure detected before any output
// is written: an unusable class list, an invalid split ratio and similar.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
