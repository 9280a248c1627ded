package memory

import (
	"context"
	"sync"
	"time"

	"ladder-quiz-bot/internal/domain"
)

// PlayerStore is an in-memory implementation of app.PlayerRepository.
type PlayerStore struct {
	mu      sync.Mutex
	now     func() time.Time
	players map[int64]domain.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{now: time.Now, players: make(map[int64]domain.Player)}
}

func (s *PlayerStore) GetOrCreatePlayer(_ context.Context, id int64) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player, ok := s.players[id]; ok {
		return player, nil
	}
	player := domain.Player{ID: id, CreatedAt: s.now()}
	s.players[id] = player
	return player, nil
}
