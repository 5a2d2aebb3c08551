package service

import (
	"context"
	"testing"
)

func setupHistoryFixtures(t *testing.T) (*HistoryService, string) {
	t.Helper()
	db := setupServiceDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")

	wf, err := NewWorkflowService(db).Create(context.Background(), "u1", CreateWorkflowInput{Title: "Chat"})
	if err != nil {
		t.Fatalf("create workflow: %v", err)
	}
	return NewHistoryService(db), wf.WorkflowID
}

func TestHistoryLifecycle(t *testing.T) {
	svc, workflowID := setupHistoryFixtures(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", CreateHistoryInput{
		WorkflowID:   workflowID,
		Title:        "First run",
		WorkflowType: "chat",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != HistoryStatusProcessing {
		t.Fatalf("initial status = %q", created.Status)
	}

	status := HistoryStatusCompleted
	content := "final answer"
	updated, err := svc.Update(ctx, created.HistoryID, "u1", UpdateHistoryInput{
		Status:  &status,
		Content: &content,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != HistoryStatusCompleted || updated.Content == nil || *updated.Content != "final answer" {
		t.Fatalf("updated = %+v", updated)
	}

	listed, err := svc.List(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed = %d entries", len(listed))
	}

	if deleted, err := svc.Delete(ctx, created.HistoryID, "u1"); err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}
}

func TestHistoryListFiltersAndScopes(t *testing.T) {
	svc, workflowID := setupHistoryFixtures(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", CreateHistoryInput{WorkflowID: workflowID, Title: "a", WorkflowType: "chat"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateHistoryInput{WorkflowID: workflowID, Title: "b", WorkflowType: "chat"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	filtered, err := svc.List(ctx, "u1", workflowID)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("filtered = %d entries", len(filtered))
	}

	other, err := svc.List(ctx, "u2", "")
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other user sees %d entries", len(other))
	}

	if got, err := svc.Get(ctx, filtered[0].HistoryID, "u2"); err != nil || got != nil {
		t.Fatalf("cross-user get = %+v, %v", got, err)
	}
}
