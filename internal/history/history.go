package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Message is one conversation turn, stored verbatim in the per-user history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EmbeddingEntry pairs a prompt with its generated embedding.
type EmbeddingEntry struct {
	Prompt    string    `json:"prompt"`
	Embedding []float64 `json:"embedding"`
}

// Store keeps per-user conversation and embedding history.
// A user with no history yields empty slices, never an error.
type Store interface {
	Conversation(ctx context.Context, userID string) ([]Message, error)
	SaveConversation(ctx context.Context, userID string, msgs []Message) error
	// Append records one user/assistant exchange and returns the updated history.
	Append(ctx context.Context, userID, userInput, assistantReply string) ([]Message, error)
	Clear(ctx context.Context, userID string) error

	Embeddings(ctx context.Context, userID string) ([]EmbeddingEntry, error)
	AppendEmbedding(ctx context.Context, userID string, e EmbeddingEntry) ([]EmbeddingEntry, error)

	Close() error
}

// RedisStore implements Store on a Redis server. Each user's conversation is
// one JSON array under the user id key; embeddings live under "<user>_embeddings".
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects a store to the Redis server at addr.
func NewRedis(addr, password string, db int) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

// NewRedisWithClient wraps an existing client (used by tests).
func NewRedisWithClient(c *redis.Client) *RedisStore { return &RedisStore{client: c} }

func embeddingKey(userID string) string { return userID + "_embeddings" }

func (s *RedisStore) Conversation(ctx context.Context, userID string) ([]Message, error) {
	raw, err := s.client.Get(ctx, userID).Result()
	if errors.Is(err, redis.Nil) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", userID, err)
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", userID, err)
	}
	return msgs, nil
}

func (s *RedisStore) SaveConversation(ctx context.Context, userID string, msgs []Message) error {
	b, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, userID, b, 0).Err(); err != nil {
		return fmt.Errorf("save conversation %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, userID, userInput, assistantReply string) ([]Message, error) {
	msgs, err := s.Conversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs,
		Message{Role: "user", Content: userInput},
		Message{Role: "assistant", Content: assistantReply},
	)
	if err := s.SaveConversation(ctx, userID, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, userID).Err(); err != nil {
		return fmt.Errorf("clear conversation %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) Embeddings(ctx context.Context, userID string) ([]EmbeddingEntry, error) {
	raw, err := s.client.Get(ctx, embeddingKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return []EmbeddingEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get embeddings %s: %w", userID, err)
	}
	var entries []EmbeddingEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode embeddings %s: %w", userID, err)
	}
	return entries, nil
}

func (s *RedisStore) AppendEmbedding(ctx context.Context, userID string, e EmbeddingEntry) ([]EmbeddingEntry, error) {
	entries, err := s.Embeddings(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries = append(entries, e)
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, embeddingKey(userID), b, 0).Err(); err != nil {
		return nil, fmt.Errorf("save embeddings %s: %w", userID, err)
	}
	return entries, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
