package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateComponentName validates a component name taken from a topology
// snapshot. Names are later emitted verbatim as launch-line references
// ("name." and "! name.port"), so they must stay free of separators the
// launch notation gives meaning to.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No dots, bangs or quotes
//   - Maximum length of 256 characters
func ValidateComponentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTopology, "component name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidTopology, "component name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidTopology, "component name %q contains whitespace or control characters", name)
		}
	}

	for _, pattern := range []string{".", "!", "\"", "'", "/"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidTopology, "component name %q contains invalid character %q", name, pattern)
		}
	}

	return nil
}

// factoryNameRegex matches factory (type) names as registries publish them.
var factoryNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateFactoryName validates a component type name.
func ValidateFactoryName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTopology, "factory name cannot be empty")
	}
	if !factoryNameRegex.MatchString(name) {
		return New(ErrCodeInvalidTopology, "invalid factory name: %q", name)
	}
	return nil
}

// portNameRegex matches port names including request-port templates.
var portNameRegex = regexp.MustCompile(`^[A-Za-z0-9_%-]+$`)

// ValidatePortName validates a port name.
func ValidatePortName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTopology, "port name cannot be empty")
	}
	if !portNameRegex.MatchString(name) {
		return New(ErrCodeInvalidTopology, "invalid port name: %q", name)
	}
	return nil
}

// ValidateIndent validates an indentation unit used by the serializer.
// Only spaces and tabs are accepted so the output stays re-parseable.
func ValidateIndent(indent string) error {
	if len(indent) > 16 {
		return New(ErrCodeInvalidIndent, "indent too long (max 16 characters)")
	}
	for _, r := range indent {
		if r != ' ' && r != '\t' {
			return New(ErrCodeInvalidIndent, "indent may only contain spaces and tabs")
		}
	}
	return nil
}
