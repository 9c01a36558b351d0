package meta

import "fmt"

// Severity of a diagnostic.
type Severity string

const (
	// SeveritySkipped marks a member excluded from the codec.
	SeveritySkipped Severity = "skipped"
	// SeverityAmbiguity marks a name collision resolved by priority.
	SeverityAmbiguity Severity = "ambiguity"
)

// Diagnostic is a non-fatal finding about the input.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity" toml:"severity"`
	Struct   string   `json:"struct,omitempty" yaml:"struct,omitempty" toml:"struct,omitempty"`
	Member   string   `json:"member,omitempty" yaml:"member,omitempty" toml:"member,omitempty"`
	Reason   string   `json:"reason" yaml:"reason" toml:"reason"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Struct != "" && d.Member != "":
		return fmt.Sprintf("%s: %s.%s: %s", d.Severity, d.Struct, d.Member, d.Reason)
	case d.Struct != "":
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.Struct, d.Reason)
	default:
		return fmt.Sprintf("%s: %s", d.Severity, d.Reason)
	}
}

// ConfigErrorKind classifies fatal configuration errors.
type ConfigErrorKind string

const (
	UndefinedStruct  ConfigErrorKind = "undefined struct"
	DuplicateMember  ConfigErrorKind = "duplicate member"
	StructRedefined  ConfigErrorKind = "struct redefined"
	TypedefRedefined ConfigErrorKind = "typedef redefined"
	NameCollision    ConfigErrorKind = "name collision"
)

// ConfigError is a fatal error in the input header. No code is generated
// for a unit that produced one.
type ConfigError struct {
	Kind   ConfigErrorKind
	Struct string
	Member string
	Detail string
}

func (e *ConfigError) Error() string {
	msg := string(e.Kind)
	if e.Struct != "" {
		msg += ": " + e.Struct
		if e.Member != "" {
			msg += "." + e.Member
		}
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
