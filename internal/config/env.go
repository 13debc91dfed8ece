// Package config reads the roster service settings from the process
// environment. Every setting the server needs to start is required and
// a missing one is reported as a ConfigError naming the variable.
package config

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/agentstation/roster/pkg/errors"
)

// Env looks up settings by environment variable name.
type Env struct {
	v *viper.Viper
}

// NewEnv returns an Env backed by the current process environment.
func NewEnv() *Env {
	v := viper.New()
	v.AutomaticEnv()
	return &Env{v: v}
}

// Set overrides a value, taking precedence over the environment.
func (e *Env) Set(name string, value any) {
	e.v.Set(name, value)
}

// Required returns the value of name or a ConfigError if it is unset or blank.
func (e *Env) Required(name string) (string, error) {
	value := strings.TrimSpace(e.v.GetString(name))
	if value == "" {
		return "", errors.NewConfigError(name, "environment variable is not set", errors.ErrMissingConfig)
	}
	return value, nil
}

// RequiredNumber returns the value of name parsed as an unsigned 32-bit integer.
func (e *Env) RequiredNumber(name string) (uint32, error) {
	raw, err := e.Required(name)
	if err != nil {
		return 0, err
	}
	n, ok := parseUint32(raw)
	if !ok {
		return 0, errors.NewConfigError(name, "must be a non-negative 32-bit integer, got "+raw, errors.ErrInvalidInput)
	}
	return n, nil
}

// Optional returns the value of name, or def when it is unset.
func (e *Env) Optional(name, def string) string {
	if value := strings.TrimSpace(e.v.GetString(name)); value != "" {
		return value
	}
	return def
}

// OptionalBool returns the value of name as a bool, or def when unset or unparsable.
func (e *Env) OptionalBool(name string, def bool) bool {
	raw := e.Optional(name, "")
	if raw == "" {
		return def
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return def
	}
	return b
}

// OptionalNumber returns the value of name as a uint32, or def when unset or unparsable.
func (e *Env) OptionalNumber(name string, def uint32) uint32 {
	n, ok := parseUint32(e.Optional(name, ""))
	if !ok {
		return def
	}
	return n
}

// OptionalList splits a comma separated value, dropping blanks.
func (e *Env) OptionalList(name string) []string {
	raw := e.Optional(name, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseUint32 accepts plain decimal only; prefixes such as 0x or a
// leading zero never switch the base.
func parseUint32(raw string) (uint32, bool) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
