package model

import "time"

// Review is a stored AI code review for one repository. There is at most one
// review per (UserID, RepoName); saving again replaces the payload in place.
type Review struct {
	ID         string
	UserID     string
	RepoName   string
	RepoURL    string
	ReviewData ReviewData
	CreatedAt  time.Time
}

// ReviewData is the analyzer output. It is persisted verbatim as JSON and must
// round-trip without loss, so field names follow the wire format.
// SentryErrors is a pointer so an absent list and an empty one stay distinct.
type ReviewData struct {
	Summary           ReviewSummary  `json:"summary"`
	Issues            []ReviewIssue  `json:"issues"`
	SentryErrors      *[]SentryError `json:"sentryErrors,omitempty"`
	AnalysisTimestamp string         `json:"analysisTimestamp"`
	ToolsUsed         []string       `json:"toolsUsed"`
}

// ReviewSummary holds issue counts per severity and an optional quality score.
type ReviewSummary struct {
	TotalIssues      int  `json:"totalIssues"`
	CriticalIssues   int  `json:"criticalIssues"`
	MajorIssues      int  `json:"majorIssues"`
	MinorIssues      int  `json:"minorIssues"`
	CodeQualityScore *int `json:"codeQualityScore,omitempty"`
}

// ReviewIssue is a single finding anchored to a file location.
type ReviewIssue struct {
	ID          string   `json:"id"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Suggestion  *string  `json:"suggestion,omitempty"`
}

// SentryError is a production error pulled from Sentry and attached to the
// review for context.
type SentryError struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Level     string  `json:"level"`
	Count     int     `json:"count"`
	FirstSeen string  `json:"firstSeen"`
	LastSeen  string  `json:"lastSeen"`
	URL       *string `json:"url,omitempty"`
}
