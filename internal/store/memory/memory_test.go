package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kshitijgupta505/text-classify/internal/model/chat"
	"github.com/kshitijgupta505/text-classify/internal/model/classification"
	"github.com/kshitijgupta505/text-classify/internal/store"
)

func TestChatLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateChat(ctx, chat.Chat{Title: "first", UserID: "user-1"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}

	got, err := s.GetChat(ctx, created.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if got.Title != "first" {
		t.Fatalf("unexpected chat %+v", got)
	}

	if _, err := s.GetChat(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendMessageOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	c, _ := s.CreateChat(ctx, chat.Chat{Title: "t", UserID: "user-1"})

	for _, content := range []string{"one", "two", "three"} {
		if _, err := s.AppendMessage(ctx, chat.Message{ChatID: c.ID, Role: chat.RoleUser, Content: content}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	messages, err := s.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"one", "two", "three"} {
		if messages[i].Content != want {
			t.Fatalf("message %d: expected %q, got %q", i, want, messages[i].Content)
		}
	}
}

func TestAppendMessageUnknownChat(t *testing.T) {
	s := New()

	_, err := s.AppendMessage(context.Background(), chat.Message{ChatID: "nope", Role: chat.RoleUser, Content: "hi"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = s.AppendMessage(context.Background(), chat.Message{Role: chat.RoleUser, Content: "hi"})
	if !errors.Is(err, store.ErrChatID) {
		t.Fatalf("expected ErrChatID, got %v", err)
	}
}

func TestListClassificationsWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := s.InsertClassification(ctx, classification.Record{
			UserID:     "user-1",
			Type:       classification.TypeSpam,
			Confidence: 0.9,
			Timestamp:  base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	records, err := s.ListClassifications(ctx, "user-1", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records in window, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.Before(records[i-1].Timestamp) {
			t.Fatal("expected ascending timestamps")
		}
	}
}

func TestDeleteClassification(t *testing.T) {
	s := New()
	ctx := context.Background()

	r, _ := s.InsertClassification(ctx, classification.Record{UserID: "user-1", Type: classification.TypeSpam})
	if err := s.DeleteClassification(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteClassification(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}
