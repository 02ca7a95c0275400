// Package template expands ${var} placeholders in strings from a variable
// map, typically a Shared store snapshot. Node authors use it to build
// prompts and messages from values earlier nodes produced.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// bracePattern matches ${varname}; varname is alphanumeric plus underscore.
var bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// MissingPolicy controls what happens when a placeholder has no value.
type MissingPolicy int

const (
	// MissingKeep leaves the placeholder in the output unchanged.
	MissingKeep MissingPolicy = iota

	// MissingEmpty replaces the placeholder with the empty string.
	MissingEmpty

	// MissingError collects the undefined names and returns an
	// *UndefinedVariableError.
	MissingError
)

// Option configures an Expander.
type Option func(*Expander)

// WithMissingPolicy sets the policy for undefined placeholders.
// Default: MissingKeep.
func WithMissingPolicy(p MissingPolicy) Option {
	return func(e *Expander) {
		e.policy = p
	}
}

// Expander expands ${var} placeholders.
// Safe for concurrent use after construction.
type Expander struct {
	policy MissingPolicy
}

// NewExpander creates an Expander with the given options.
func NewExpander(opts ...Option) *Expander {
	e := &Expander{policy: MissingKeep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand replaces every ${var} in s with the corresponding value from
// vars, formatted with %v. Undefined placeholders follow the configured
// MissingPolicy; an error is only possible under MissingError.
func (e *Expander) Expand(s string, vars map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	result := bracePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := vars[name]; ok {
			return fmt.Sprintf("%v", val)
		}
		switch e.policy {
		case MissingEmpty:
			return ""
		case MissingError:
			missing = append(missing, name)
			return match
		default:
			return match
		}
	})

	if len(missing) > 0 {
		return result, &UndefinedVariableError{Names: missing}
	}
	return result, nil
}

// UndefinedVariableError reports placeholders with no value under
// MissingError.
type UndefinedVariableError struct {
	// Names are the undefined variable names, in order of appearance.
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined template variables: %s", strings.Join(e.Names, ", "))
}
