// Package memory implements the store contracts with in-process maps,
// suitable for tests and database-less development runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kshitijgupta505/text-classify/internal/model/chat"
	"github.com/kshitijgupta505/text-classify/internal/model/classification"
	"github.com/kshitijgupta505/text-classify/internal/store"
)

// Store holds every collection behind one mutex.
type Store struct {
	mu              sync.RWMutex
	chats           map[string]chat.Chat
	messages        map[string][]chat.Message
	classifications map[string]classification.Record
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		chats:           make(map[string]chat.Chat),
		messages:        make(map[string][]chat.Message),
		classifications: make(map[string]classification.Record),
	}
}

// CreateChat provisions a chat owned by a user.
func (s *Store) CreateChat(_ context.Context, c chat.Chat) (chat.Chat, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.chats[c.ID] = c
	if _, ok := s.messages[c.ID]; !ok {
		s.messages[c.ID] = make([]chat.Message, 0, 16)
	}
	s.mu.Unlock()

	return c, nil
}

// GetChat retrieves a chat by identifier.
func (s *Store) GetChat(_ context.Context, id string) (chat.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return chat.Chat{}, store.ErrNotFound
	}
	return c, nil
}

// ListChats returns the chats owned by a user, newest first.
func (s *Store) ListChats(_ context.Context, userID string) ([]chat.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := make([]chat.Chat, 0, 8)
	for _, c := range s.chats {
		if c.UserID == userID {
			chats = append(chats, c)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].CreatedAt.After(chats[j].CreatedAt) })
	return chats, nil
}

// AppendMessage appends a message to its chat history.
func (s *Store) AppendMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	if m.ChatID == "" {
		return chat.Message{}, store.ErrChatID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[m.ChatID]; !ok {
		return chat.Message{}, store.ErrNotFound
	}

	m.ID = uuid.NewString()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	s.messages[m.ChatID] = append(s.messages[m.ChatID], m)
	return m, nil
}

// ListMessages returns stored messages for a chat in insertion order.
func (s *Store) ListMessages(_ context.Context, chatID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// InsertClassification stores an immutable classification record.
func (s *Store) InsertClassification(_ context.Context, r classification.Record) (classification.Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}

	s.mu.Lock()
	s.classifications[r.ID] = r
	s.mu.Unlock()

	return r, nil
}

// ListClassifications returns a user's records within [from, to], oldest first.
func (s *Store) ListClassifications(_ context.Context, userID string, from, to time.Time) ([]classification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]classification.Record, 0, 16)
	for _, r := range s.classifications {
		if r.UserID != userID {
			continue
		}
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	return records, nil
}

// GetClassification retrieves a record by identifier.
func (s *Store) GetClassification(_ context.Context, id string) (classification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.classifications[id]
	if !ok {
		return classification.Record{}, store.ErrNotFound
	}
	return r, nil
}

// DeleteClassification removes a record.
func (s *Store) DeleteClassification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classifications[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.classifications, id)
	return nil
}

var (
	_ store.ChatStore           = (*Store)(nil)
	_ store.ClassificationStore = (*Store)(nil)
)
