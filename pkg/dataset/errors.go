package dataset

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is the sentinel matched by every configuration error.
var ErrInvalidConfig = errors.New("invalid dataset configuration")

// ConfigError is returned synchronously at construction time when a dataset
// is missing required configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// InputTypeError is returned when Save receives data of a type the dataset
// cannot write.
type InputTypeError struct {
	Want string
	Got  string
}

func (e *InputTypeError) Error() string {
	return fmt.Sprintf("unsupported data type %s, expected %s", e.Got, e.Want)
}
