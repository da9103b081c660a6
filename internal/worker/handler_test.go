package worker

import (
	"context"
	"testing"

	"projhub/internal/model"
	"projhub/internal/queue"
)

type reconcileCall struct {
	TargetID   int64
	TargetType model.TargetType
}

type mockReconciler struct {
	calls []reconcileCall
	fn    func(targetID int64, targetType model.TargetType) ([]model.CounterDrift, error)
}

func (m *mockReconciler) Reconcile(ctx context.Context, targetID int64, targetType model.TargetType) ([]model.CounterDrift, error) {
	m.calls = append(m.calls, reconcileCall{TargetID: targetID, TargetType: targetType})
	if m.fn != nil {
		return m.fn(targetID, targetType)
	}
	return nil, nil
}

func TestHandler_LikeToggled_ReconcilesTarget(t *testing.T) {
	rec := &mockReconciler{}
	h := NewHandler(rec)

	event := queue.NewLikeToggledEvent(10, 42, model.TargetProject)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(rec.calls) != 1 {
		t.Fatalf("reconcile calls = %d, want 1", len(rec.calls))
	}
	if rec.calls[0] != (reconcileCall{TargetID: 42, TargetType: model.TargetProject}) {
		t.Errorf("reconciled %+v, want project 42", rec.calls[0])
	}
}

func TestHandler_FollowToggled_ReconcilesBothSides(t *testing.T) {
	rec := &mockReconciler{}
	h := NewHandler(rec)

	event := queue.NewFollowToggledEvent(10, 20)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(rec.calls) != 2 {
		t.Fatalf("reconcile calls = %d, want 2", len(rec.calls))
	}
	want := map[int64]bool{10: true, 20: true}
	for _, c := range rec.calls {
		if c.TargetType != model.TargetUser || !want[c.TargetID] {
			t.Errorf("unexpected reconcile call %+v", c)
		}
		delete(want, c.TargetID)
	}
}

func TestHandler_CommentDeleted_ReconcilesProjectAndParent(t *testing.T) {
	rec := &mockReconciler{}
	h := NewHandler(rec)

	parentID := int64(7)
	event := queue.NewCommentDeletedEvent(10, 5, 42, &parentID)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(rec.calls) != 2 {
		t.Fatalf("reconcile calls = %d, want 2", len(rec.calls))
	}
	if rec.calls[0] != (reconcileCall{TargetID: 42, TargetType: model.TargetProject}) {
		t.Errorf("first call %+v, want project 42", rec.calls[0])
	}
	if rec.calls[1] != (reconcileCall{TargetID: 7, TargetType: model.TargetComment}) {
		t.Errorf("second call %+v, want comment 7", rec.calls[1])
	}
}

func TestHandler_CommentCreated_TopLevelSkipsParent(t *testing.T) {
	rec := &mockReconciler{}
	h := NewHandler(rec)

	event := queue.NewCommentCreatedEvent(10, 5, 42, nil)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(rec.calls) != 1 {
		t.Fatalf("reconcile calls = %d, want 1 (project only)", len(rec.calls))
	}
}

// Events may arrive after their subject was deleted; a vanished target is
// skipped, not retried forever.
func TestHandler_VanishedTargetIsNotAnError(t *testing.T) {
	rec := &mockReconciler{
		fn: func(targetID int64, targetType model.TargetType) ([]model.CounterDrift, error) {
			return nil, model.ErrProjectNotFound
		},
	}
	h := NewHandler(rec)

	event := queue.NewLikeToggledEvent(10, 42, model.TargetProject)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected vanished target to be skipped, got: %v", err)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := NewHandler(&mockReconciler{})

	err := h.HandleEvent(context.Background(), queue.InteractionEvent{Type: "mystery"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
