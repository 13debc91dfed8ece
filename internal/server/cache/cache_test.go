package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/roster/internal/players"
)

func newPlayer(username string) players.Player {
	id := uuid.New()
	return players.Player{ID: &id, Number: 8, Name: "Test " + username, Username: username}
}

// TestCache_New tests cache creation.
func TestCache_New(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.store == nil {
		t.Error("cache store not initialized")
	}
}

// TestCache_Players tests PutPlayer, Player and Delete.
func TestCache_Players(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	p := newPlayer("kobe")

	t.Run("Put and Get", func(t *testing.T) {
		c.PutPlayer(p)

		got, found := c.Player(p.ID.String())
		if !found {
			t.Fatal("expected player to be found")
		}
		if got.Username != "kobe" {
			t.Errorf("expected kobe, got %s", got.Username)
		}
	})

	t.Run("Get unknown id", func(t *testing.T) {
		if _, found := c.Player(uuid.NewString()); found {
			t.Error("expected unknown id to miss")
		}
	})

	t.Run("unsaved players are ignored", func(t *testing.T) {
		before := c.ItemCount()
		c.PutPlayer(players.Player{Name: "No ID", Username: "noid"})
		if c.ItemCount() != before {
			t.Error("expected player without id to be skipped")
		}
	})
}

// TestCache_Expiration tests that entries expire after the TTL.
func TestCache_Expiration(t *testing.T) {
	c := New(20*time.Millisecond, time.Minute)
	p := newPlayer("magic")
	c.PutPlayer(p)

	time.Sleep(40 * time.Millisecond)

	if _, found := c.Player(p.ID.String()); found {
		t.Error("expected entry to expire")
	}
}

// TestCache_ItemCount tests ItemCount.
func TestCache_ItemCount(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	for _, name := range []string{"a", "b", "c"} {
		c.PutPlayer(newPlayer(name))
	}
	if c.ItemCount() != 3 {
		t.Errorf("expected 3 items, got %d", c.ItemCount())
	}
}

// TestCache_Concurrent tests concurrent access.
func TestCache_Concurrent(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := newPlayer(uuid.NewString())
			c.PutPlayer(p)
			if _, found := c.Player(p.ID.String()); !found {
				t.Error("expected concurrent write to be visible")
			}
		}()
	}
	wg.Wait()

	if c.ItemCount() != 50 {
		t.Errorf("expected 50 items, got %d", c.ItemCount())
	}
}
