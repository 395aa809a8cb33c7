package diagnostics

import (
	"strings"
)

// NoiseMissingLibraryRoot is reported by the analyzer for every configured
// library root that does not exist. It is not actionable for users.
const NoiseMissingLibraryRoot = "Classpath entry points to a non-existent location"

// DefaultDeny lists message substrings dropped by every [Mapper].
var DefaultDeny = []string{NoiseMissingLibraryRoot}

// Mapper filters and converts analyzer messages. A Mapper is immutable and
// safe for concurrent use.
type Mapper struct {
	deny []string
}

// NewMapper returns a mapper denying [DefaultDeny] plus extra substrings.
// Empty substrings are ignored.
func NewMapper(extra ...string) *Mapper {
	deny := append([]string(nil), DefaultDeny...)
	for _, s := range extra {
		if s = strings.TrimSpace(s); s != "" {
			deny = append(deny, s)
		}
	}
	return &Mapper{deny: deny}
}

// Map keeps error and warning messages that match no deny-listed substring,
// preserving their order. The result is never nil.
func (m *Mapper) Map(msgs []Message) []Diagnostic {
	out := make([]Diagnostic, 0, len(msgs))
	for _, msg := range msgs {
		if !msg.Severity.IsError() && !msg.Severity.IsWarning() {
			continue
		}
		if m.denied(msg.Message) {
			continue
		}
		d := Diagnostic{Severity: msg.Severity.String(), Message: msg.Message}
		if msg.Location != nil {
			loc := *msg.Location
			d.Location = &loc
		}
		out = append(out, d)
	}
	return out
}

func (m *Mapper) denied(text string) bool {
	for _, s := range m.deny {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// Map converts msgs with the default deny list.
func Map(msgs []Message) []Diagnostic {
	return NewMapper().Map(msgs)
}
