package app

import (
	"context"
	"errors"
	"fmt"

	"ladder-quiz-bot/internal/domain"
)

// QuestFactory assembles four-option quests from the question bank.
type QuestFactory struct {
	bank   Bank
	quests QuestRepository
	rnd    Rand
}

func NewQuestFactory(bank Bank, quests QuestRepository, rnd Rand) *QuestFactory {
	return &QuestFactory{bank: bank, quests: quests, rnd: rnd}
}

// CreateByDifficulty builds a quest for a random usable question at level.
// It returns domain.ErrNoQuestAvailable when no question there has one correct and three incorrect answers.
func (f *QuestFactory) CreateByDifficulty(ctx context.Context, level int) (domain.Quest, error) {
	questions, err := f.bank.QuestionsAt(ctx, level)
	if err != nil {
		return domain.Quest{}, err
	}
	candidates := append([]domain.Question(nil), questions...)

	for len(candidates) > 0 {
		i := f.rnd.Intn(len(candidates))
		question := candidates[i]
		candidates[i] = candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]

		links, err := f.bank.Links(ctx, question.ID)
		if err != nil {
			return domain.Quest{}, err
		}
		correct := f.pick(links, true, 1)
		incorrect := f.pick(links, false, domain.SlotCount-1)
		if len(correct)+len(incorrect) != domain.SlotCount {
			continue
		}

		answers := append(correct, incorrect...)
		f.rnd.Shuffle(len(answers), func(i, j int) {
			answers[i], answers[j] = answers[j], answers[i]
		})
		quest := domain.Quest{QuestionID: question.ID}
		copy(quest.Slots[:], answers)
		return f.quests.GetOrCreateQuest(ctx, quest)
	}
	return domain.Quest{}, fmt.Errorf("level %d: %w", level, domain.ErrNoQuestAvailable)
}

// pick draws up to count answer IDs without replacement among links with the given correctness.
func (f *QuestFactory) pick(links []domain.Link, correct bool, count int) []int64 {
	pool := make([]int64, 0, len(links))
	for _, link := range links {
		if link.Correct == correct {
			pool = append(pool, link.Answer.ID)
		}
	}
	picked := make([]int64, 0, count)
	for len(pool) > 0 && len(picked) < count {
		i := f.rnd.Intn(len(pool))
		picked = append(picked, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return picked
}

// Card loads everything needed to display and judge the quest.
func (f *QuestFactory) Card(ctx context.Context, questID int64) (domain.Card, error) {
	quest, err := f.quests.Quest(ctx, questID)
	if err != nil {
		return domain.Card{}, err
	}
	question, err := f.bank.Question(ctx, quest.QuestionID)
	if err != nil {
		return domain.Card{}, err
	}
	level, err := f.bank.Level(ctx, question.Level)
	if err != nil {
		return domain.Card{}, err
	}
	links, err := f.bank.Links(ctx, question.ID)
	if err != nil {
		return domain.Card{}, err
	}
	correct, err := domain.CorrectSlot(quest, links)
	if err != nil {
		return domain.Card{}, err
	}

	card := domain.Card{Quest: quest, Question: question, Level: level, Correct: correct}
	for _, slot := range domain.Slots {
		answer, ok := findAnswer(links, quest.Slots[slot])
		if !ok {
			return domain.Card{}, fmt.Errorf("quest %d slot %s: %w", quest.ID, slot, domain.ErrBankInvalid)
		}
		card.Answers[slot] = answer
	}
	return card, nil
}

// HasLevel reports whether the ladder has the given rung.
func (f *QuestFactory) HasLevel(ctx context.Context, level int) (bool, error) {
	if _, err := f.bank.Level(ctx, level); err != nil {
		if errors.Is(err, domain.ErrLevelNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func findAnswer(links []domain.Link, id int64) (domain.Answer, bool) {
	for _, link := range links {
		if link.Answer.ID == id {
			return link.Answer, true
		}
	}
	return domain.Answer{}, false
}
