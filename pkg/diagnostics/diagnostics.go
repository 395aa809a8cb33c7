// Package diagnostics reshapes analyzer messages into user-facing diagnostics.
//
// Analyzers report [Message] values of every severity, including progress
// logging and known noise. A [Mapper] keeps errors and warnings, drops
// messages matching its deny list, and converts the rest into [Diagnostic]
// values ready for the wire. A diagnostic without a location keeps a nil
// [Location] (JSON null); consumers must treat it as non-clickable rather
// than jumping to line 0.
package diagnostics

import (
	"fmt"
	"strings"
)

// Severity classifies an analyzer message.
type Severity int

const (
	SeverityException Severity = iota
	SeverityError
	SeverityStrongWarning
	SeverityWarning
	SeverityInfo
	SeverityLogging
	SeverityOutput
)

var severityNames = map[Severity]string{
	SeverityException:     "exception",
	SeverityError:         "error",
	SeverityStrongWarning: "strong warning",
	SeverityWarning:       "warning",
	SeverityInfo:          "info",
	SeverityLogging:       "logging",
	SeverityOutput:        "output",
}

// String returns the presentable severity name.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// IsError reports whether s is an error or exception.
func (s Severity) IsError() bool {
	return s == SeverityException || s == SeverityError
}

// IsWarning reports whether s is a warning of either strength.
func (s Severity) IsWarning() bool {
	return s == SeverityStrongWarning || s == SeverityWarning
}

// ParseSeverity returns the severity with the given presentable name.
func ParseSeverity(name string) (Severity, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range severityNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Location is a 1-based position in the original source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String formats the location as "line:column".
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Message is a raw analyzer message.
type Message struct {
	Severity Severity
	Message  string
	Location *Location
}

// String formats the message as "line:col: severity: text".
func (m Message) String() string {
	var sb strings.Builder
	if m.Location != nil {
		sb.WriteString(m.Location.String())
		sb.WriteString(": ")
	}
	sb.WriteString(m.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(m.Message)
	return sb.String()
}

// HasErrors reports whether any message is an error.
func HasErrors(msgs []Message) bool {
	for _, m := range msgs {
		if m.Severity.IsError() {
			return true
		}
	}
	return false
}

// Diagnostic is the wire form of a user-relevant message.
type Diagnostic struct {
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Location *Location `json:"location"`
}

// Clickable reports whether the diagnostic can move the editor cursor.
func (d Diagnostic) Clickable() bool {
	return d.Location != nil
}
