package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ladder-quiz-bot/internal/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	store := NewSessionStore(client, time.Hour)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	session, err := store.CreateSession(ctx, domain.Session{PlayerID: 3, QuestID: 10, Level: 1, StartedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.ID != 1 {
		t.Fatalf("expected first id 1, got %d", session.ID)
	}
	if !mr.Exists("quiz:session:1") || !mr.Exists("quiz:player:3:open") {
		t.Fatalf("expected session and open pointer keys")
	}

	session.Hints[domain.HintFriendCall] = domain.RefQuest(10)
	session.Missed = domain.SlotRef{Slot: domain.SlotB, Valid: true}
	session.Awaiting = domain.AwaitSecondGuess
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	open, err := store.OpenSession(ctx, 3)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !open.Hints[domain.HintFriendCall].Is(10) || open.Missed != session.Missed || open.Awaiting != domain.AwaitSecondGuess {
		t.Fatalf("state not preserved: %+v", open)
	}
	if !open.StartedAt.Equal(now) {
		t.Fatalf("started at changed: %v", open.StartedAt)
	}
}

func TestSessionStoreOneOpenSessionPerPlayer(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	store := NewSessionStore(client, 0)

	first, err := store.CreateSession(ctx, domain.Session{PlayerID: 3, QuestID: 10, Level: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{PlayerID: 3, QuestID: 11, Level: 1}); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected game in progress, got %v", err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{PlayerID: 4, QuestID: 11, Level: 1}); err != nil {
		t.Fatalf("other player: %v", err)
	}

	first.Closed = true
	first.Outcome = domain.OutcomeLost
	if err := store.SaveSession(ctx, first); err != nil {
		t.Fatalf("close: %v", err)
	}
	if mr.Exists("quiz:player:3:open") {
		t.Fatalf("expected open pointer removed")
	}
	if _, err := store.OpenSession(ctx, 3); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected no active game, got %v", err)
	}
	closed, err := store.Session(ctx, first.ID)
	if err != nil || !closed.Closed || closed.Outcome != domain.OutcomeLost {
		t.Fatalf("closed session not kept: %+v %v", closed, err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{PlayerID: 3, QuestID: 12, Level: 1}); err != nil {
		t.Fatalf("new game after close: %v", err)
	}
}

func TestSessionStoreMissing(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	store := NewSessionStore(client, 0)

	if err := store.SaveSession(ctx, domain.Session{ID: 5, PlayerID: 1}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := store.Session(ctx, 5); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}

	session, err := store.CreateSession(ctx, domain.Session{PlayerID: 1, QuestID: 1, Level: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.Del(sessionKey(session.ID))
	if _, err := store.OpenSession(ctx, 1); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected dangling pointer to read as no game, got %v", err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{PlayerID: 1, QuestID: 1, Level: 1}); err != nil {
		t.Fatalf("dangling pointer blocked a new game: %v", err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	store := NewSessionStore(client, time.Minute)

	if _, err := store.CreateSession(ctx, domain.Session{PlayerID: 2, QuestID: 1, Level: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.OpenSession(ctx, 2); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected expired session gone, got %v", err)
	}
}
