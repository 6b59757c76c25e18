// Package mongo implements the store contracts on a MongoDB database,
// one collection per record kind: chats, messages, classifications.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kshitijgupta505/text-classify/internal/model/chat"
	"github.com/kshitijgupta505/text-classify/internal/model/classification"
	"github.com/kshitijgupta505/text-classify/internal/store"
)

// Store wraps the three collections used by the service.
type Store struct {
	chats           *mongo.Collection
	messages        *mongo.Collection
	classifications *mongo.Collection
}

// New binds the store to collections of the given database.
func New(db *mongo.Database) *Store {
	return &Store{
		chats:           db.Collection("chats"),
		messages:        db.Collection("messages"),
		classifications: db.Collection("classifications"),
	}
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the lookup indexes the query paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("index chats by_user: %w", err)
	}
	if _, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("index messages by_chat: %w", err)
	}
	if _, err := s.classifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: 1}},
	}); err != nil {
		return fmt.Errorf("index classifications by_user_and_date: %w", err)
	}
	return nil
}

// chatDoc mirrors chat.Chat with bson field names.
type chatDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	UserID    string    `bson:"userId"`
	CreatedAt time.Time `bson:"createdAt"`
}

type messageDoc struct {
	ID        string    `bson:"_id"`
	ChatID    string    `bson:"chatId"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

type classificationDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"userId"`
	Type       string    `bson:"type"`
	Confidence float64   `bson:"confidence"`
	Text       string    `bson:"text"`
	Timestamp  time.Time `bson:"timestamp"`
	CreatedAt  time.Time `bson:"createdAt"`
}

// CreateChat inserts a new chat document.
func (s *Store) CreateChat(ctx context.Context, c chat.Chat) (chat.Chat, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	doc := chatDoc{ID: c.ID, Title: c.Title, UserID: c.UserID, CreatedAt: c.CreatedAt}
	if _, err := s.chats.InsertOne(ctx, doc); err != nil {
		return chat.Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	return c, nil
}

// GetChat retrieves a chat by identifier.
func (s *Store) GetChat(ctx context.Context, id string) (chat.Chat, error) {
	var doc chatDoc
	err := s.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.Chat{}, store.ErrNotFound
	}
	if err != nil {
		return chat.Chat{}, fmt.Errorf("find chat: %w", err)
	}
	return chat.Chat(doc), nil
}

// ListChats returns the chats owned by a user, newest first.
func (s *Store) ListChats(ctx context.Context, userID string) ([]chat.Chat, error) {
	cursor, err := s.chats.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []chatDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}

	chats := make([]chat.Chat, 0, len(docs))
	for _, doc := range docs {
		chats = append(chats, chat.Chat(doc))
	}
	return chats, nil
}

// AppendMessage inserts a message after verifying its chat exists.
func (s *Store) AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if m.ChatID == "" {
		return chat.Message{}, store.ErrChatID
	}
	if _, err := s.GetChat(ctx, m.ChatID); err != nil {
		return chat.Message{}, err
	}

	m.ID = uuid.NewString()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	doc := messageDoc{ID: m.ID, ChatID: m.ChatID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// ListMessages returns the messages of a chat in insertion order.
func (s *Store) ListMessages(ctx context.Context, chatID string) ([]chat.Message, error) {
	if _, err := s.GetChat(ctx, chatID); err != nil {
		return nil, err
	}

	cursor, err := s.messages.Find(ctx, bson.M{"chatId": chatID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	messages := make([]chat.Message, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, chat.Message(doc))
	}
	return messages, nil
}

// InsertClassification stores an immutable classification record.
func (s *Store) InsertClassification(ctx context.Context, r classification.Record) (classification.Record, error) {
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

	doc := classificationDoc(r)
	if _, err := s.classifications.InsertOne(ctx, doc); err != nil {
		return classification.Record{}, fmt.Errorf("insert classification: %w", err)
	}
	return r, nil
}

// ListClassifications returns a user's records within [from, to], oldest first.
func (s *Store) ListClassifications(ctx context.Context, userID string, from, to time.Time) ([]classification.Record, error) {
	filter := bson.M{
		"userId":    userID,
		"timestamp": bson.M{"$gte": from, "$lte": to},
	}
	cursor, err := s.classifications.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []classificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode classifications: %w", err)
	}

	records := make([]classification.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, classification.Record(doc))
	}
	return records, nil
}

// GetClassification retrieves a record by identifier.
func (s *Store) GetClassification(ctx context.Context, id string) (classification.Record, error) {
	var doc classificationDoc
	err := s.classifications.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return classification.Record{}, store.ErrNotFound
	}
	if err != nil {
		return classification.Record{}, fmt.Errorf("find classification: %w", err)
	}
	return classification.Record(doc), nil
}

// DeleteClassification removes a record.
func (s *Store) DeleteClassification(ctx context.Context, id string) error {
	res, err := s.classifications.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete classification: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var (
	_ store.ChatStore           = (*Store)(nil)
	_ store.ClassificationStore = (*Store)(nil)
)
