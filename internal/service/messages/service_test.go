package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gfranca/batepapo-server/internal/core"
	"github.com/gfranca/batepapo-server/internal/store"
	"github.com/gfranca/batepapo-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return New(st, core.NewHub()), st
}

func addParticipant(t *testing.T, st store.Store, name string) {
	t.Helper()
	p := &store.Participant{Name: name, LastHeartbeat: time.Now()}
	if err := st.CreateParticipant(context.Background(), p, nil); err != nil {
		t.Fatalf("failed to add participant %s: %v", name, err)
	}
}

func TestPost(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	addParticipant(t, st, "Ana")

	msg, err := svc.Post(ctx, "Ana", store.BroadcastTarget, " <i>oi</i> ", store.MessageTypeChat)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected message to get an id")
	}
	if msg.Text != "oi" {
		t.Errorf("expected sanitized text 'oi', got %q", msg.Text)
	}
	if msg.From != "Ana" || msg.To != store.BroadcastTarget {
		t.Errorf("unexpected sender/recipient: %+v", msg)
	}

	// Unregistered sender is rejected.
	if _, err := svc.Post(ctx, "Bob", store.BroadcastTarget, "oi", store.MessageTypeChat); !errors.Is(err, ErrUnknownSender) {
		t.Errorf("expected ErrUnknownSender, got %v", err)
	}

	// Status type cannot be posted by participants.
	if _, err := svc.Post(ctx, "Ana", store.BroadcastTarget, "oi", store.MessageTypeStatus); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for status type, got %v", err)
	}

	// Fields empty after sanitization are rejected.
	if _, err := svc.Post(ctx, "Ana", store.BroadcastTarget, "<img src=x>", store.MessageTypeChat); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for markup-only text, got %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	addParticipant(t, st, "Ana")

	if _, err := svc.Post(ctx, "Ana", store.BroadcastTarget, "oi pessoal", store.MessageTypeChat); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if _, err := svc.Post(ctx, "Ana", "Bob", "segredo", store.MessageTypePrivate); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	tests := []struct {
		requester string
		want      int
	}{
		{"Ana", 2},
		{"Bob", 2},
		{"Carol", 1},
	}
	for _, tt := range tests {
		msgs, err := svc.List(ctx, tt.requester, 0)
		if err != nil {
			t.Fatalf("List(%q) failed: %v", tt.requester, err)
		}
		if len(msgs) != tt.want {
			t.Errorf("List(%q) returned %d messages, want %d", tt.requester, len(msgs), tt.want)
		}
	}
}

func TestUpdate(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	addParticipant(t, st, "Ana")
	addParticipant(t, st, "Bob")

	msg, err := svc.Post(ctx, "Ana", store.BroadcastTarget, "oi", store.MessageTypeChat)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	// Non-owner cannot edit.
	err = svc.Update(ctx, msg.ID, "Bob", store.BroadcastTarget, "hackeado", store.MessageTypeChat)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	// Unknown message id.
	err = svc.Update(ctx, "missing", "Ana", store.BroadcastTarget, "oi", store.MessageTypeChat)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Unregistered requester reads as not found.
	err = svc.Update(ctx, msg.ID, "Carol", store.BroadcastTarget, "oi", store.MessageTypeChat)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unregistered requester, got %v", err)
	}

	// Owner edit succeeds and refreshes the timestamp.
	time.Sleep(5 * time.Millisecond)
	if err := svc.Update(ctx, msg.ID, "ana", "Bob", "editado", store.MessageTypePrivate); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := st.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if got.Text != "editado" || got.To != "Bob" || got.Type != store.MessageTypePrivate {
		t.Errorf("unexpected message after update: %+v", got)
	}
	if !got.CreatedAt.After(msg.CreatedAt) {
		t.Errorf("expected refreshed timestamp, got %v (was %v)", got.CreatedAt, msg.CreatedAt)
	}
}

func TestUpdateStatusMessageBlocked(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	addParticipant(t, st, "Ana")

	notice := &store.Message{
		ID:        "notice-1",
		From:      "Ana",
		To:        store.BroadcastTarget,
		Text:      "entra na sala...",
		Type:      store.MessageTypeStatus,
		CreatedAt: time.Now(),
	}
	if err := st.InsertMessage(ctx, notice); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	// Even the named sender cannot edit a status notice.
	err := svc.Update(ctx, notice.ID, "Ana", store.BroadcastTarget, "editado", store.MessageTypeChat)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for status message, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	addParticipant(t, st, "Ana")

	msg, err := svc.Post(ctx, "Ana", store.BroadcastTarget, "oi", store.MessageTypeChat)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if err := svc.Delete(ctx, msg.ID, "Bob"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for non-owner delete, got %v", err)
	}
	if err := svc.Delete(ctx, "missing", "Ana"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, msg.ID, "Ana"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := st.GetMessage(ctx, msg.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected message to be gone, got %v", err)
	}
}

func TestDeleteStatusMessageBlocked(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	addParticipant(t, st, "Ana")

	notice := &store.Message{
		ID:        "notice-1",
		From:      "Ana",
		To:        store.BroadcastTarget,
		Text:      "entra na sala...",
		Type:      store.MessageTypeStatus,
		CreatedAt: time.Now(),
	}
	if err := st.InsertMessage(ctx, notice); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	if err := svc.Delete(ctx, notice.ID, "Ana"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for status message, got %v", err)
	}
}
