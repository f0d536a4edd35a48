package history

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConversationEmptyForNewUser(t *testing.T) {
	s := newTestStore(t)
	msgs, err := s.Conversation(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %+v", msgs)
	}
}

func TestAppendGrowsHistoryInPairs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msgs, err := s.Append(ctx, "u1", "hello", "hi there")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Fatalf("user turn: %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "hi there" {
		t.Fatalf("assistant turn: %+v", msgs[1])
	}

	msgs, err = s.Append(ctx, "u1", "how are you", "fine")
	if err != nil {
		t.Fatalf("append 2: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("want 4 messages, got %d", len(msgs))
	}

	// re-read from the store
	got, err := s.Conversation(ctx, "u1")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(got) != 4 || got[2].Content != "how are you" {
		t.Fatalf("persisted history: %+v", got)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Append(ctx, "a", "q", "r"); err != nil {
		t.Fatalf("append: %v", err)
	}
	msgs, err := s.Conversation(ctx, "b")
	if err != nil || len(msgs) != 0 {
		t.Fatalf("user b must be empty: %v %+v", err, msgs)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Append(ctx, "u", "q", "r"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Clear(ctx, "u"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	msgs, err := s.Conversation(ctx, "u")
	if err != nil || len(msgs) != 0 {
		t.Fatalf("history after clear: %v %+v", err, msgs)
	}
}

func TestEmbeddingHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries, err := s.Embeddings(ctx, "u")
	if err != nil || len(entries) != 0 {
		t.Fatalf("fresh embeddings: %v %+v", err, entries)
	}
	entries, err = s.AppendEmbedding(ctx, "u", EmbeddingEntry{Prompt: "p", Embedding: []float64{0.5, 0.25}})
	if err != nil {
		t.Fatalf("append embedding: %v", err)
	}
	if len(entries) != 1 || entries[0].Prompt != "p" {
		t.Fatalf("entries: %+v", entries)
	}
	// embeddings are stored under a separate key from the conversation
	msgs, err := s.Conversation(ctx, "u")
	if err != nil || len(msgs) != 0 {
		t.Fatalf("conversation must stay empty: %v %+v", err, msgs)
	}
}
