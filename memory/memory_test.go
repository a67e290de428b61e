package memory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(100)

	if err := store.Append(ctx, "session-1", Entry{Role: RoleUser, Content: "iPhone price?"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "session-1", Entry{Role: RoleAssistant, Content: "The iPhone is priced at $999.", Category: "price", Product: "iPhone"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := store.History(ctx, "session-1", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Role != RoleUser || entries[1].Product != "iPhone" {
		t.Errorf("Expected oldest first, got %+v", entries)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("Expected Append to stamp the entry")
	}

	if count := store.SessionCount("session-1"); count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}

	if err := store.Clear(ctx, "session-1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	entries, _ = store.History(ctx, "session-1", 10)
	if len(entries) != 0 {
		t.Errorf("Expected empty history after Clear, got %d", len(entries))
	}
}

func TestInMemoryStoreEviction(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(3)

	for i := 0; i < 5; i++ {
		_ = store.Append(ctx, "s", Entry{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	entries, _ := store.History(ctx, "s", 0)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Content != "m2" || entries[2].Content != "m4" {
		t.Errorf("Expected m2..m4, got %+v", entries)
	}

	recent, _ := store.History(ctx, "s", 1)
	if len(recent) != 1 || recent[0].Content != "m4" {
		t.Errorf("Expected most recent entry, got %+v", recent)
	}
}

func TestInMemoryStoreHistoryIsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(0)
	_ = store.Append(ctx, "s", Entry{Role: RoleUser, Content: "original"})

	entries, _ := store.History(ctx, "s", 10)
	entries[0].Content = "changed"

	again, _ := store.History(ctx, "s", 10)
	if again[0].Content != "original" {
		t.Errorf("History exposed internal storage")
	}
}

func TestInMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, "shared", Entry{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
			_, _ = store.History(ctx, "shared", 5)
		}(i)
	}
	wg.Wait()

	if count := store.SessionCount("shared"); count != 20 {
		t.Errorf("Expected 20 entries, got %d", count)
	}
}

func TestNewRedisStoreInvalidURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url", RedisOptions{}); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestRedisStoreKeys(t *testing.T) {
	store, err := NewRedisStore("redis://localhost:6379/0", RedisOptions{})
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	if got := store.sessionKey("abc"); got != "marketcrew:chat:abc:history" {
		t.Errorf("Unexpected key %q", got)
	}
}

// TestRedisStoreLive runs against a real server when MARKETCREW_TEST_REDIS_URL is set.
func TestRedisStoreLive(t *testing.T) {
	url := os.Getenv("MARKETCREW_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MARKETCREW_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(url, RedisOptions{TTL: time.Minute, MaxSize: 2, KeyPrefix: "marketcrew:test"})
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	session := uuid.NewString()
	defer store.Clear(ctx, session)

	for _, content := range []string{"a", "b", "c"} {
		if err := store.Append(ctx, session, Entry{Role: RoleUser, Content: content}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := store.History(ctx, session, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Content != "b" || entries[1].Content != "c" {
		t.Errorf("Expected [b c], got %+v", entries)
	}
}
