package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/domain"
	"ladder-quiz-bot/internal/infra/sqlite"
	"ladder-quiz-bot/internal/random"
	"ladder-quiz-bot/internal/seed"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestImportBankIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	bank := seed.Default()

	added, err := store.ImportBank(ctx, bank)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if added != len(bank.Questions) {
		t.Fatalf("expected %d questions added, got %d", len(bank.Questions), added)
	}
	added, err = store.ImportBank(ctx, bank)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected nothing added on reimport, got %d", added)
	}

	levels, err := store.Levels(ctx)
	if err != nil || len(levels) != len(bank.Levels) {
		t.Fatalf("levels: %v %v", levels, err)
	}
	questions, err := store.QuestionsAt(ctx, 1)
	if err != nil || len(questions) != 1 {
		t.Fatalf("questions at 1: %v %v", questions, err)
	}
	links, err := store.Links(ctx, questions[0].ID)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	correct := 0
	for _, link := range links {
		if link.Correct {
			correct++
			if link.Answer.Text != bank.Questions[0].Correct {
				t.Fatalf("unexpected correct answer %q", link.Answer.Text)
			}
		}
	}
	if len(links) != 4 || correct != 1 {
		t.Fatalf("expected 4 links with one correct, got %+v", links)
	}
}

func TestMissingRows(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	if _, err := store.Level(ctx, 1); !errors.Is(err, domain.ErrLevelNotFound) {
		t.Fatalf("expected level not found, got %v", err)
	}
	if _, err := store.Question(ctx, 1); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, err := store.Quest(ctx, 1); !errors.Is(err, domain.ErrQuestNotFound) {
		t.Fatalf("expected quest not found, got %v", err)
	}
	if _, err := store.OpenSession(ctx, 1); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected no active game, got %v", err)
	}
}

func TestQuestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	if _, err := store.ImportBank(ctx, seed.Default()); err != nil {
		t.Fatalf("import: %v", err)
	}
	questions, _ := store.QuestionsAt(ctx, 1)
	links, _ := store.Links(ctx, questions[0].ID)
	quest := domain.Quest{QuestionID: questions[0].ID}
	for i, link := range links {
		quest.Slots[i] = link.Answer.ID
	}

	first, err := store.GetOrCreateQuest(ctx, quest)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.GetOrCreateQuest(ctx, quest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.ID == 0 || first.ID != second.ID {
		t.Fatalf("expected the same quest, got %d and %d", first.ID, second.ID)
	}

	quest.Slots[0], quest.Slots[1] = quest.Slots[1], quest.Slots[0]
	other, err := store.GetOrCreateQuest(ctx, quest)
	if err != nil {
		t.Fatalf("create swapped: %v", err)
	}
	if other.ID == first.ID {
		t.Fatalf("different slot order must be a different quest")
	}
	loaded, err := store.Quest(ctx, other.ID)
	if err != nil || loaded != other {
		t.Fatalf("load quest: %+v %v", loaded, err)
	}
}

func TestSessionRoundTripAndOpenInvariant(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	if _, err := store.ImportBank(ctx, seed.Default()); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := store.GetOrCreatePlayer(ctx, 5); err != nil {
		t.Fatalf("player: %v", err)
	}
	questions, _ := store.QuestionsAt(ctx, 1)
	links, _ := store.Links(ctx, questions[0].ID)
	quest, err := store.GetOrCreateQuest(ctx, domain.Quest{
		QuestionID: questions[0].ID,
		Slots:      [4]int64{links[0].Answer.ID, links[1].Answer.ID, links[2].Answer.ID, links[3].Answer.ID},
	})
	if err != nil {
		t.Fatalf("quest: %v", err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	session, err := store.CreateSession(ctx, domain.Session{PlayerID: 5, QuestID: quest.ID, Level: 1, StartedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{PlayerID: 5, QuestID: quest.ID, Level: 1, StartedAt: now, UpdatedAt: now}); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected game in progress, got %v", err)
	}

	session.Hints[domain.HintDoubleAnswer] = domain.RefQuest(quest.ID)
	session.Missed = domain.SlotRef{Slot: domain.SlotC, Valid: true}
	session.Awaiting = domain.AwaitSecondGuess
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	open, err := store.OpenSession(ctx, 5)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if open.ID != session.ID || !open.Hints[domain.HintDoubleAnswer].Is(quest.ID) || open.Hints[domain.HintElimination].Valid {
		t.Fatalf("hint markers not preserved: %+v", open)
	}
	if open.Missed != session.Missed || open.Awaiting != domain.AwaitSecondGuess || !open.StartedAt.Equal(now) {
		t.Fatalf("state not preserved: %+v", open)
	}

	open.Closed = true
	open.Outcome = domain.OutcomeLost
	if err := store.SaveSession(ctx, open); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := store.OpenSession(ctx, 5); !errors.Is(err, domain.ErrNoActiveGame) {
		t.Fatalf("expected no active game after close, got %v", err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{PlayerID: 5, QuestID: quest.ID, Level: 1, StartedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("new session after close: %v", err)
	}
	if err := store.SaveSession(ctx, domain.Session{ID: 99, PlayerID: 5, Closed: true}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestGameOnSQLite(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	if _, err := store.ImportBank(ctx, seed.Default()); err != nil {
		t.Fatalf("import: %v", err)
	}
	rnd := random.New(9)
	game := app.NewGame(store, store, app.NewQuestFactory(store, store, rnd), app.NewHintEngine(rnd, app.DefaultHintConfig()))

	session, card, err := game.Start(ctx, 11)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := game.Answer(ctx, 11, card.Correct)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if out.Result != app.AnswerAdvanced || out.Session.ID != session.ID || out.Session.Level != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	player, err := store.GetOrCreatePlayer(ctx, 11)
	if err != nil || player.CreatedAt.IsZero() {
		t.Fatalf("player not registered: %+v %v", player, err)
	}
}
