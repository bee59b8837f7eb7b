package model

// Severity classifies a single review issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	default:
		return false
	}
}

// RepositorySelection is the scope of repositories a GitHub App installation
// was granted.
type RepositorySelection string

const (
	RepositorySelectionAll      RepositorySelection = "all"
	RepositorySelectionSelected RepositorySelection = "selected"
)

// Valid reports whether r is one of the values GitHub reports.
func (r RepositorySelection) Valid() bool {
	return r == RepositorySelectionAll || r == RepositorySelectionSelected
}
