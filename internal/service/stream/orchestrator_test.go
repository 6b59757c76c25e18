package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/model/chat"
	streammodel "github.com/kshitijgupta505/text-classify/internal/model/stream"
	"github.com/kshitijgupta505/text-classify/internal/service/ai"
	"github.com/kshitijgupta505/text-classify/internal/service/classify"
	"github.com/kshitijgupta505/text-classify/internal/store/memory"
)

type fakeRunner struct {
	tokens []string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, _ []chat.Turn, _ string, emit func(ai.Event) error) error {
	if f.err != nil {
		return f.err
	}
	for _, token := range f.tokens {
		if err := emit(ai.Event{Kind: ai.EventToken, Token: token}); err != nil {
			return err
		}
	}
	return nil
}

func newModelServer(response map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
}

func collect(ch <-chan streammodel.Event) []streammodel.Event {
	events := make([]streammodel.Event, 0, 32)
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func setupChat(t *testing.T, store *memory.Store) chat.Chat {
	t.Helper()
	c, err := store.CreateChat(context.Background(), chat.Chat{Title: "test", UserID: "user-1"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	return c
}

func TestClassificationTurnEventOrder(t *testing.T) {
	server := newModelServer(map[string]any{"class": "Spam", "confidence": 0.9})
	defer server.Close()

	store := memory.New()
	c := setupChat(t, store)

	classifier := classify.NewService(server.URL, time.Second, store, nil, zap.NewNop())
	orch := NewOrchestrator(store, classifier, nil, NewPacer(false), zap.NewNop())

	events := collect(orch.Stream(context.Background(), Request{
		UserID:     "user-1",
		ChatID:     c.ID,
		NewMessage: "win a free prize",
	}))

	if len(events) < 4 {
		t.Fatalf("expected at least 4 events, got %d", len(events))
	}
	if events[0].Type != streammodel.EventConnected {
		t.Fatalf("expected first event connected, got %s", events[0].Type)
	}
	if events[1].Type != streammodel.EventToolStart || events[1].Tool != "classification" {
		t.Fatalf("expected tool-start classification, got %+v", events[1])
	}
	if events[2].Type != streammodel.EventToolEnd || events[2].Output != "Spam" {
		t.Fatalf("expected tool-end with Spam, got %+v", events[2])
	}
	if events[len(events)-1].Type != streammodel.EventDone {
		t.Fatalf("expected final event done, got %s", events[len(events)-1].Type)
	}

	var sentence strings.Builder
	for _, ev := range events[3 : len(events)-1] {
		if ev.Type != streammodel.EventToken {
			t.Fatalf("expected only tokens between tool-end and done, got %s", ev.Type)
		}
		sentence.WriteString(ev.Token)
	}
	want := `Your text was classified as "Spam" with 90.00% confidence.`
	if sentence.String() != want {
		t.Fatalf("expected tokens to spell %q, got %q", want, sentence.String())
	}

	messages, err := store.ListMessages(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != chat.RoleUser || messages[0].Content != "win a free prize" {
		t.Fatalf("unexpected user message %+v", messages[0])
	}
	if messages[1].Role != chat.RoleAssistant || messages[1].Content != want {
		t.Fatalf("unexpected assistant message %+v", messages[1])
	}
}

func TestAgentTurn(t *testing.T) {
	store := memory.New()
	c := setupChat(t, store)

	runner := &fakeRunner{tokens: []string{"Hel", "lo ", "there"}}
	orch := NewOrchestrator(store, nil, runner, NewPacer(false), zap.NewNop())

	events := collect(orch.Stream(context.Background(), Request{
		UserID:     "user-1",
		ChatID:     c.ID,
		NewMessage: "hi",
		ModelID:    "claude",
	}))

	if events[0].Type != streammodel.EventConnected {
		t.Fatalf("expected first event connected, got %s", events[0].Type)
	}
	if events[len(events)-1].Type != streammodel.EventDone {
		t.Fatalf("expected final event done, got %s", events[len(events)-1].Type)
	}

	messages, _ := store.ListMessages(context.Background(), c.ID)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[1].Content != "Hello there" {
		t.Fatalf("expected accumulated reply, got %q", messages[1].Content)
	}
}

func TestAgentUnavailable(t *testing.T) {
	store := memory.New()
	c := setupChat(t, store)

	orch := NewOrchestrator(store, nil, nil, NewPacer(false), zap.NewNop())

	events := collect(orch.Stream(context.Background(), Request{
		UserID:     "user-1",
		ChatID:     c.ID,
		NewMessage: "hi",
		ModelID:    "claude",
	}))

	last := events[len(events)-1]
	if last.Type != streammodel.EventError {
		t.Fatalf("expected terminal error event, got %s", last.Type)
	}
	for _, ev := range events {
		if ev.Type == streammodel.EventDone {
			t.Fatal("error turn must not emit done")
		}
	}

	// The user message was already persisted before dispatch failed.
	messages, _ := store.ListMessages(context.Background(), c.ID)
	if len(messages) != 1 {
		t.Fatalf("expected only the user message, got %d", len(messages))
	}
}

func TestClassifierFailureEmitsSingleError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	store := memory.New()
	c := setupChat(t, store)

	classifier := classify.NewService(server.URL, time.Second, store, nil, zap.NewNop())
	orch := NewOrchestrator(store, classifier, nil, NewPacer(false), zap.NewNop())

	events := collect(orch.Stream(context.Background(), Request{
		UserID:     "user-1",
		ChatID:     c.ID,
		NewMessage: "text",
	}))

	errorCount := 0
	for _, ev := range events {
		switch ev.Type {
		case streammodel.EventError:
			errorCount++
		case streammodel.EventToken, streammodel.EventDone:
			t.Fatalf("failed turn must not emit %s", ev.Type)
		}
	}
	if errorCount != 1 {
		t.Fatalf("expected exactly one error event, got %d", errorCount)
	}
}

func TestAgentErrorPropagates(t *testing.T) {
	store := memory.New()
	c := setupChat(t, store)

	runner := &fakeRunner{err: errors.New("model overloaded")}
	orch := NewOrchestrator(store, nil, runner, NewPacer(false), zap.NewNop())

	events := collect(orch.Stream(context.Background(), Request{
		UserID:     "user-1",
		ChatID:     c.ID,
		NewMessage: "hi",
		ModelID:    "claude",
	}))

	last := events[len(events)-1]
	if last.Type != streammodel.EventError {
		t.Fatalf("expected terminal error, got %s", last.Type)
	}
	if !strings.Contains(last.Error, "model overloaded") {
		t.Fatalf("expected error message to surface, got %q", last.Error)
	}
}

func TestUnknownChatFailsTurn(t *testing.T) {
	store := memory.New()
	orch := NewOrchestrator(store, nil, &fakeRunner{tokens: []string{"hi"}}, NewPacer(false), zap.NewNop())

	events := collect(orch.Stream(context.Background(), Request{
		UserID:     "user-1",
		ChatID:     "missing",
		NewMessage: "hi",
		ModelID:    "claude",
	}))

	last := events[len(events)-1]
	if last.Type != streammodel.EventError {
		t.Fatalf("expected error for unknown chat, got %s", last.Type)
	}
}
