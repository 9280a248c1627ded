package memory

import (
	"context"
	"fmt"

	"ladder-quiz-bot/internal/domain"
	"ladder-quiz-bot/internal/seed"
)

// Bank is an immutable question bank held in memory. IDs are assigned in file order.
type Bank struct {
	levels    []domain.DifficultyLevel
	questions map[int64]domain.Question
	byLevel   map[int][]domain.Question
	links     map[int64][]domain.Link
}

func NewBank(src seed.Bank) *Bank {
	b := &Bank{
		levels:    src.DifficultyLevels(),
		questions: make(map[int64]domain.Question, len(src.Questions)),
		byLevel:   make(map[int][]domain.Question),
		links:     make(map[int64][]domain.Link, len(src.Questions)),
	}

	var answerID int64
	for i, q := range src.Questions {
		question := domain.Question{ID: int64(i + 1), Level: q.Level, Text: q.Text}
		b.questions[question.ID] = question
		b.byLevel[q.Level] = append(b.byLevel[q.Level], question)

		answerID++
		links := []domain.Link{{
			QuestionID: question.ID,
			Answer:     domain.Answer{ID: answerID, Text: q.Correct},
			Correct:    true,
		}}
		for _, text := range q.Incorrect {
			answerID++
			links = append(links, domain.Link{
				QuestionID: question.ID,
				Answer:     domain.Answer{ID: answerID, Text: text},
			})
		}
		b.links[question.ID] = links
	}
	return b
}

func (b *Bank) Level(_ context.Context, level int) (domain.DifficultyLevel, error) {
	if level < 1 || level > len(b.levels) {
		return domain.DifficultyLevel{}, fmt.Errorf("level %d: %w", level, domain.ErrLevelNotFound)
	}
	return b.levels[level-1], nil
}

func (b *Bank) Levels(_ context.Context) ([]domain.DifficultyLevel, error) {
	return append([]domain.DifficultyLevel(nil), b.levels...), nil
}

func (b *Bank) QuestionsAt(_ context.Context, level int) ([]domain.Question, error) {
	return append([]domain.Question(nil), b.byLevel[level]...), nil
}

func (b *Bank) Question(_ context.Context, id int64) (domain.Question, error) {
	question, ok := b.questions[id]
	if !ok {
		return domain.Question{}, fmt.Errorf("question %d: %w", id, domain.ErrQuestionNotFound)
	}
	return question, nil
}

func (b *Bank) Links(_ context.Context, questionID int64) ([]domain.Link, error) {
	return append([]domain.Link(nil), b.links[questionID]...), nil
}
