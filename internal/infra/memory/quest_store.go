package memory

import (
	"context"
	"fmt"
	"sync"

	"ladder-quiz-bot/internal/domain"
)

// QuestStore is an in-memory implementation of app.QuestRepository.
type QuestStore struct {
	mu     sync.RWMutex
	nextID int64
	quests map[int64]domain.Quest
	byKey  map[questKey]int64
}

type questKey struct {
	questionID int64
	slots      [domain.SlotCount]int64
}

func NewQuestStore() *QuestStore {
	return &QuestStore{
		quests: make(map[int64]domain.Quest),
		byKey:  make(map[questKey]int64),
	}
}

func (s *QuestStore) GetOrCreateQuest(_ context.Context, quest domain.Quest) (domain.Quest, error) {
	key := questKey{questionID: quest.QuestionID, slots: quest.Slots}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		return s.quests[id], nil
	}
	s.nextID++
	quest.ID = s.nextID
	s.quests[quest.ID] = quest
	s.byKey[key] = quest.ID
	return quest, nil
}

func (s *QuestStore) Quest(_ context.Context, id int64) (domain.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quest, ok := s.quests[id]
	if !ok {
		return domain.Quest{}, fmt.Errorf("quest %d: %w", id, domain.ErrQuestNotFound)
	}
	return quest, nil
}

// Len reports how many distinct quests were assembled.
func (s *QuestStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quests)
}
