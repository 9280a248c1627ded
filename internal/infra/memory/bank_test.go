package memory

import (
	"context"
	"errors"
	"testing"

	"ladder-quiz-bot/internal/domain"
	"ladder-quiz-bot/internal/seed"
)

func TestBankLinksOneCorrectAnswer(t *testing.T) {
	ctx := context.Background()
	bank := NewBank(seed.Default())

	questions, err := bank.QuestionsAt(ctx, 3)
	if err != nil || len(questions) == 0 {
		t.Fatalf("questions at 3: %v %v", questions, err)
	}
	links, err := bank.Links(ctx, questions[0].ID)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	correct := 0
	for _, link := range links {
		if link.Correct {
			correct++
		}
	}
	if correct != 1 || len(links) != 4 {
		t.Fatalf("expected 1 correct of 4, got %d of %d", correct, len(links))
	}
}

func TestBankUnknownLevel(t *testing.T) {
	bank := NewBank(seed.Default())
	if _, err := bank.Level(context.Background(), 16); !errors.Is(err, domain.ErrLevelNotFound) {
		t.Fatalf("expected level not found, got %v", err)
	}
	lvl, err := bank.Level(context.Background(), 15)
	if err != nil || lvl.Cost != 3000000 {
		t.Fatalf("unexpected top level %+v %v", lvl, err)
	}
}
