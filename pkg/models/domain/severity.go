package domain

type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "OK"
	}
}

// ParseSeverity maps the persisted text form back to a Severity.
// Unknown values default to OK.
func ParseSeverity(s string) Severity {
	switch s {
	case "WARNING":
		return SeverityWarning
	case "CRITICAL":
		return SeverityCritical
	default:
		return SeverityOK
	}
}

// Max returns the more severe of the two.
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}
