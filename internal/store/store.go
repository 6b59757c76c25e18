// Package store defines the persistence contracts backing chats, messages
// and classification records. Implementations live in the memory and mongo
// subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kshitijgupta505/text-classify/internal/model/chat"
	"github.com/kshitijgupta505/text-classify/internal/model/classification"
)

var (
	ErrNotFound = errors.New("not found")
	ErrChatID   = errors.New("chat id is required")
)

// ChatStore persists chats and their append-only message history.
type ChatStore interface {
	CreateChat(ctx context.Context, c chat.Chat) (chat.Chat, error)
	GetChat(ctx context.Context, id string) (chat.Chat, error)
	ListChats(ctx context.Context, userID string) ([]chat.Chat, error)
	AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]chat.Message, error)
}

// ClassificationStore persists immutable classification records.
type ClassificationStore interface {
	InsertClassification(ctx context.Context, r classification.Record) (classification.Record, error)
	// ListClassifications returns records for a user whose timestamp falls
	// in [from, to], ordered by timestamp ascending.
	ListClassifications(ctx context.Context, userID string, from, to time.Time) ([]classification.Record, error)
	GetClassification(ctx context.Context, id string) (classification.Record, error)
	DeleteClassification(ctx context.Context, id string) error
}
