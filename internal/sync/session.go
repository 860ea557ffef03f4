package sync

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrov/anisync/internal/models"
)

// Session tracks one batch reconciliation run. Only the worker that owns the
// session writes to it; progress readers take snapshots under the lock.
type Session struct {
	id string

	mu         sync.Mutex
	status     models.SessionStatus
	dryRun     bool
	total      int
	results    []models.SyncItemResult
	errMessage string
	startedAt  time.Time
	finishedAt *time.Time
}

func (s *Session) ID() string {
	return s.id
}

// Begin moves the session to processing once the item count is known.
func (s *Session) Begin(total int, dryRun bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = models.SessionProcessing
	s.total = total
	s.dryRun = dryRun
}

func (s *Session) Append(result models.SyncItemResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *Session) Complete() {
	s.finish(models.SessionCompleted, "")
}

func (s *Session) Fail(message string) {
	s.finish(models.SessionError, message)
}

func (s *Session) finish(status models.SessionStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.errMessage = message
	now := time.Now().UTC()
	s.finishedAt = &now
}

// Snapshot returns a copy safe to serialize while the worker keeps going.
func (s *Session) Snapshot() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]models.SyncItemResult, len(s.results))
	copy(results, s.results)

	view := models.SessionView{
		ID:             s.id,
		Status:         s.status,
		DryRun:         s.dryRun,
		ProcessedCount: len(results),
		TotalCount:     s.total,
		Results:        results,
		Error:          s.errMessage,
		StartedAt:      s.startedAt,
	}
	if s.finishedAt != nil {
		finished := *s.finishedAt
		view.FinishedAt = &finished
	}
	return view
}

// Summary condenses the session into its durable run record.
func (s *Session) Summary() models.SyncRunSummary {
	view := s.Snapshot()

	summary := models.SyncRunSummary{
		SessionID: view.ID,
		DryRun:    view.DryRun,
		Status:    view.Status,
		Total:     view.TotalCount,
		StartedAt: view.StartedAt,
	}
	if view.FinishedAt != nil {
		summary.FinishedAt = *view.FinishedAt
	}
	for _, result := range view.Results {
		switch result.Severity {
		case models.SeveritySuccess:
			summary.Succeeded++
		case models.SeverityWarning:
			summary.Warnings++
		case models.SeverityError:
			summary.Failed++
		}
	}
	return summary
}

// Registry stores sessions for the process lifetime, keyed by generated id.
// Sessions are never evicted; runs are few and short-lived.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

func (r *Registry) Create() *Session {
	session := &Session{
		id:        uuid.NewString(),
		status:    models.SessionStarting,
		startedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.sessions[session.id] = session
	r.mu.Unlock()
	return session
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	return session, ok
}
