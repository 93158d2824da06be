package summary

import (
	"errors"
	"fmt"
)

// ConfigError reports a configuration or resolution problem detected
// before any SQL executes. It is the only client-visible error kind the
// planner produces; everything else is an execution failure.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a planner configuration error.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
