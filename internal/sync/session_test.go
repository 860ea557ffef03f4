package sync

import (
	"sync"
	"testing"

	"github.com/mpetrov/anisync/internal/models"
)

func TestRegistryCreateAndGet(t *testing.T) {
	registry := NewRegistry()

	session := registry.Create()
	if session.ID() == "" {
		t.Fatal("expected a generated session id")
	}

	found, ok := registry.Get(session.ID())
	if !ok || found != session {
		t.Fatal("expected to retrieve the created session")
	}

	if _, ok := registry.Get("unknown"); ok {
		t.Fatal("unknown id should not resolve")
	}

	view := session.Snapshot()
	if view.Status != models.SessionStarting {
		t.Fatalf("fresh session should be starting, got %s", view.Status)
	}
	if view.ProcessedCount != 0 || len(view.Results) != 0 {
		t.Fatalf("fresh session should be empty, got %+v", view)
	}
}

func TestRegistryCreatesUniqueIDs(t *testing.T) {
	registry := NewRegistry()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := registry.Create().ID()
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
}

func TestSessionLifecycle(t *testing.T) {
	session := NewRegistry().Create()

	session.Begin(2, true)
	view := session.Snapshot()
	if view.Status != models.SessionProcessing || view.TotalCount != 2 || !view.DryRun {
		t.Fatalf("unexpected view after begin: %+v", view)
	}

	session.Append(models.SyncItemResult{SourceTitle: "A", Decision: models.DecisionWouldAdd, Severity: models.SeveritySuccess})
	session.Append(models.SyncItemResult{SourceTitle: "B", Decision: models.DecisionNoMatch, Severity: models.SeverityError})
	session.Complete()

	view = session.Snapshot()
	if view.Status != models.SessionCompleted {
		t.Fatalf("expected completed, got %s", view.Status)
	}
	if view.ProcessedCount != 2 {
		t.Fatalf("expected 2 processed, got %d", view.ProcessedCount)
	}
	if view.FinishedAt == nil {
		t.Fatal("expected finishedAt to be set")
	}
}

func TestSessionSnapshotIsACopy(t *testing.T) {
	session := NewRegistry().Create()
	session.Begin(1, false)
	session.Append(models.SyncItemResult{SourceTitle: "A"})

	view := session.Snapshot()
	view.Results[0].SourceTitle = "mutated"

	if got := session.Snapshot().Results[0].SourceTitle; got != "A" {
		t.Fatalf("snapshot mutation leaked into session: %q", got)
	}
}

func TestSessionSummaryCounts(t *testing.T) {
	session := NewRegistry().Create()
	session.Begin(4, false)
	session.Append(models.SyncItemResult{Severity: models.SeveritySuccess})
	session.Append(models.SyncItemResult{Severity: models.SeveritySuccess})
	session.Append(models.SyncItemResult{Severity: models.SeverityWarning})
	session.Append(models.SyncItemResult{Severity: models.SeverityError})
	session.Complete()

	summary := session.Summary()
	if summary.Succeeded != 2 || summary.Warnings != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Total != 4 {
		t.Fatalf("expected total 4, got %d", summary.Total)
	}
	if summary.Status != models.SessionCompleted {
		t.Fatalf("expected completed status, got %s", summary.Status)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := registry.Create()
			session.Append(models.SyncItemResult{SourceTitle: "x"})
			ids <- session.ID()
		}()
	}
	wg.Wait()
	close(ids)

	for id := range ids {
		if _, ok := registry.Get(id); !ok {
			t.Fatalf("session %s missing after concurrent create", id)
		}
	}
}
