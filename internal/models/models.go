package models

import "time"

// SeriesItem is one Sonarr series that passed the anime classifier.
type SeriesItem struct {
	SonarrID int64  `json:"sonarrId"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Year     int    `json:"year,omitempty"`
}

// Candidate is one MyAnimeList search result considered as a match.
type Candidate struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	AlternateTitles []string `json:"alternateTitles,omitempty"`
	StartDate       string   `json:"startDate,omitempty"`
}

// MatchResult pairs the best-scoring candidate with its score. A nil
// Candidate and a score of 0 both mean no usable match.
type MatchResult struct {
	Candidate *Candidate `json:"candidate,omitempty"`
	Score     float64    `json:"score"`
}

type SyncDecision string

const (
	DecisionAlreadyPresent SyncDecision = "already_present"
	DecisionBelowThreshold SyncDecision = "below_threshold"
	DecisionNoMatch        SyncDecision = "no_match"
	DecisionWouldAdd       SyncDecision = "would_add"
	DecisionAdded          SyncDecision = "added"
	DecisionAddFailed      SyncDecision = "add_failed"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SyncItemResult records the outcome for a single source item.
type SyncItemResult struct {
	SourceTitle  string       `json:"sourceTitle"`
	Decision     SyncDecision `json:"decision"`
	Score        float64      `json:"score"`
	MatchedTitle string       `json:"matchedTitle,omitempty"`
	MatchedID    *int         `json:"matchedId,omitempty"`
	Message      string       `json:"message"`
	Severity     Severity     `json:"severity"`
}

type SessionStatus string

const (
	SessionStarting   SessionStatus = "starting"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionError      SessionStatus = "error"
)

// SyncRunSummary is the durable record of one finished sync run.
type SyncRunSummary struct {
	SessionID  string        `json:"sessionId"`
	DryRun     bool          `json:"dryRun"`
	Status     SessionStatus `json:"status"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Warnings   int           `json:"warnings"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// SessionView is a point-in-time snapshot of a sync session, safe to
// serialize while the owning worker keeps appending results.
type SessionView struct {
	ID             string           `json:"id"`
	Status         SessionStatus    `json:"status"`
	DryRun         bool             `json:"dryRun"`
	ProcessedCount int              `json:"processedCount"`
	TotalCount     int              `json:"totalCount"`
	Results        []SyncItemResult `json:"results"`
	Error          string           `json:"error,omitempty"`
	StartedAt      time.Time        `json:"startedAt"`
	FinishedAt     *time.Time       `json:"finishedAt,omitempty"`
}
