package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/mpetrov/anisync/internal/mal"
	"github.com/mpetrov/anisync/internal/mapping"
	"github.com/mpetrov/anisync/internal/models"
	"github.com/mpetrov/anisync/internal/progress"
	"github.com/mpetrov/anisync/internal/titlematch"
)

// CatalogSource lists the local items to reconcile.
type CatalogSource interface {
	AnimeSeries(ctx context.Context) ([]models.SeriesItem, error)
}

// ListService is the remote list-tracking side: candidate search, the
// existing-list snapshot, and the mutation call.
type ListService interface {
	Search(ctx context.Context, title string) ([]models.Candidate, error)
	UserAnimeIDs(ctx context.Context) (map[int]struct{}, error)
	UpdateListStatus(ctx context.Context, animeID int, status string) error
}

// RunRecorder persists finished run summaries.
type RunRecorder interface {
	Record(summary models.SyncRunSummary) error
}

// Options are the per-run knobs; zero values fall back to the engine
// configuration.
type Options struct {
	DryRun        bool
	MinScore      float64
	DefaultStatus string
}

type Config struct {
	MinScore         float64
	DefaultStatus    string
	MutationPace     time.Duration
	RateLimitBackoff time.Duration
}

type Deps struct {
	Catalog   CatalogSource
	List      ListService
	Selector  *titlematch.Selector
	Rules     *mapping.Rules
	Registry  *Registry
	Publisher progress.Publisher
	Runs      RunRecorder
	Logger    *slog.Logger
}

// Engine runs batch reconciliation passes. Each Start call gets its own
// worker goroutine and session; the engine itself is stateless apart from
// the shared mutation pacer.
type Engine struct {
	catalog   CatalogSource
	list      ListService
	selector  *titlematch.Selector
	rules     *mapping.Rules
	registry  *Registry
	publisher progress.Publisher
	runs      RunRecorder
	logger    *slog.Logger

	limiter       *rate.Limiter
	backoff       time.Duration
	minScore      float64
	defaultStatus string
}

func NewEngine(deps Deps, cfg Config) *Engine {
	if cfg.MinScore <= 0 {
		cfg.MinScore = 75
	}
	if cfg.DefaultStatus == "" {
		cfg.DefaultStatus = "completed"
	}
	if cfg.MutationPace <= 0 {
		cfg.MutationPace = time.Second
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = 5 * time.Second
	}
	if deps.Selector == nil {
		deps.Selector = titlematch.NewSelector(nil)
	}
	if deps.Rules == nil {
		deps.Rules = mapping.Default()
	}
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if deps.Publisher == nil {
		deps.Publisher = progress.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Engine{
		catalog:       deps.Catalog,
		list:          deps.List,
		selector:      deps.Selector,
		rules:         deps.Rules,
		registry:      deps.Registry,
		publisher:     deps.Publisher,
		runs:          deps.Runs,
		logger:        deps.Logger,
		limiter:       rate.NewLimiter(rate.Every(cfg.MutationPace), 1),
		backoff:       cfg.RateLimitBackoff,
		minScore:      cfg.MinScore,
		defaultStatus: cfg.DefaultStatus,
	}
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

// Start launches a reconciliation pass on its own worker and returns the
// session id immediately.
func (e *Engine) Start(ctx context.Context, opts Options) string {
	session := e.registry.Create()
	go e.runWorker(ctx, session, opts)
	return session.ID()
}

func (e *Engine) runWorker(ctx context.Context, session *Session, opts Options) {
	defer func() {
		if recovered := recover(); recovered != nil {
			message := fmt.Sprintf("sync worker panic: %v", recovered)
			e.logger.Error("sync worker panicked", "sessionId", session.ID(), "panic", recovered)
			session.Fail(message)
			_ = e.publisher.Publish(ctx, progress.Event{
				SessionID: session.ID(),
				Type:      progress.EventError,
				Error:     message,
			})
		}
	}()

	items, err := e.catalog.AnimeSeries(ctx)
	if err != nil {
		e.logger.Warn("catalog fetch failed, treating as empty", "sessionId", session.ID(), "error", err)
		items = nil
	}

	e.RunItems(ctx, session, items, opts)
}

// RunItems executes the per-item decision procedure over a frozen item list,
// streaming outcomes into the session. The batch never aborts on a single
// item failure.
func (e *Engine) RunItems(ctx context.Context, session *Session, items []models.SeriesItem, opts Options) {
	opts = e.withDefaults(opts)

	existing, err := e.list.UserAnimeIDs(ctx)
	if err != nil {
		message := "fetch existing list snapshot: " + err.Error()
		e.logger.Warn("sync precondition failed", "sessionId", session.ID(), "error", err)
		session.Fail(message)
		_ = e.publisher.Publish(ctx, progress.Event{
			SessionID: session.ID(),
			Type:      progress.EventError,
			Error:     message,
		})
		e.recordRun(session)
		return
	}

	session.Begin(len(items), opts.DryRun)

	for i, item := range items {
		if ctx.Err() != nil {
			session.Fail("sync cancelled")
			_ = e.publisher.Publish(ctx, progress.Event{
				SessionID: session.ID(),
				Type:      progress.EventError,
				Error:     "sync cancelled",
			})
			e.recordRun(session)
			return
		}

		result := e.processItem(ctx, item, existing, opts)
		session.Append(result)
		_ = e.publisher.Publish(ctx, progress.Event{
			SessionID: session.ID(),
			Type:      progress.EventItem,
			Title:     item.Title,
			Current:   i + 1,
			Total:     len(items),
			Result:    &result,
		})
	}

	session.Complete()
	_ = e.publisher.Publish(ctx, progress.Event{
		SessionID: session.ID(),
		Type:      progress.EventCompleted,
		Total:     len(items),
	})
	e.recordRun(session)
}

// Preview runs the full decision procedure without mutations or pacing.
func (e *Engine) Preview(ctx context.Context) ([]models.SyncItemResult, error) {
	items, err := e.catalog.AnimeSeries(ctx)
	if err != nil {
		e.logger.Warn("catalog fetch failed, treating as empty", "error", err)
		items = nil
	}

	existing, err := e.list.UserAnimeIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch existing list snapshot: %w", err)
	}

	opts := e.withDefaults(Options{DryRun: true})
	results := make([]models.SyncItemResult, 0, len(items))
	for _, item := range items {
		results = append(results, e.processItem(ctx, item, existing, opts))
	}
	return results, nil
}

func (e *Engine) withDefaults(opts Options) Options {
	if opts.MinScore <= 0 {
		opts.MinScore = e.minScore
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = e.defaultStatus
	}
	return opts
}

func (e *Engine) processItem(ctx context.Context, item models.SeriesItem, existing map[int]struct{}, opts Options) models.SyncItemResult {
	result := models.SyncItemResult{SourceTitle: item.Title}

	match := e.resolveMatch(ctx, item)
	if match.Candidate == nil {
		result.Decision = models.DecisionNoMatch
		result.Severity = models.SeverityError
		result.Message = "No match found"
		return result
	}

	candidate := *match.Candidate
	result.Score = match.Score
	result.MatchedTitle = candidate.Title
	matchedID := candidate.ID
	result.MatchedID = &matchedID

	if match.Score < opts.MinScore {
		result.Decision = models.DecisionBelowThreshold
		result.Severity = models.SeverityWarning
		result.Message = fmt.Sprintf("Match score too low (%.1f%% < %.1f%%)", match.Score, opts.MinScore)
		return result
	}

	if _, present := existing[candidate.ID]; present {
		result.Decision = models.DecisionAlreadyPresent
		result.Severity = models.SeveritySuccess
		result.Message = "Already in MAL list"
		return result
	}

	status := e.rules.MapStatus(item.Status, opts.DefaultStatus)
	if rule, ok := e.rules.Override(item.Title); ok && rule.Status != "" {
		status = rule.Status
	}

	if opts.DryRun {
		result.Decision = models.DecisionWouldAdd
		result.Severity = models.SeveritySuccess
		result.Message = fmt.Sprintf("Would add %q as %s (score %.1f%%)", candidate.Title, status, match.Score)
		return result
	}

	if err := e.limiter.Wait(ctx); err != nil {
		result.Decision = models.DecisionAddFailed
		result.Severity = models.SeverityError
		result.Message = "Sync interrupted before update"
		return result
	}

	if err := e.list.UpdateListStatus(ctx, candidate.ID, status); err != nil {
		result.Decision = models.DecisionAddFailed
		result.Severity = models.SeverityError
		if errors.Is(err, mal.ErrRateLimited) {
			result.Message = fmt.Sprintf("Rate limited while adding %q", candidate.Title)
			e.sleepBackoff(ctx)
		} else {
			result.Message = fmt.Sprintf("Failed to add %q: %v", candidate.Title, err)
		}
		return result
	}

	result.Decision = models.DecisionAdded
	result.Severity = models.SeveritySuccess
	result.Message = fmt.Sprintf("Added %q as %s", candidate.Title, status)
	return result
}

func (e *Engine) resolveMatch(ctx context.Context, item models.SeriesItem) models.MatchResult {
	if rule, ok := e.rules.Override(item.Title); ok {
		pinned := models.Candidate{ID: rule.MALID, Title: item.Title}
		return models.MatchResult{Candidate: &pinned, Score: 100}
	}

	candidates, err := e.list.Search(ctx, titlematch.Normalize(item.Title))
	if err != nil {
		// Search failures degrade to "no match" rather than aborting.
		e.logger.Warn("candidate search failed", "title", item.Title, "error", err)
		return models.MatchResult{}
	}
	return e.selector.SelectBest(item.Title, candidates)
}

func (e *Engine) sleepBackoff(ctx context.Context) {
	timer := time.NewTimer(e.backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (e *Engine) recordRun(session *Session) {
	if e.runs == nil {
		return
	}
	if err := e.runs.Record(session.Summary()); err != nil {
		e.logger.Warn("record sync run failed", "sessionId", session.ID(), "error", err)
	}
}
