package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/chat"
	"ladder-quiz-bot/internal/infra/memory"
	"ladder-quiz-bot/internal/random"
	"ladder-quiz-bot/internal/seed"
)

func TestRunPlaysLines(t *testing.T) {
	rnd := random.New(2)
	factory := app.NewQuestFactory(memory.NewBank(seed.Default()), memory.NewQuestStore(), rnd)
	game := app.NewGame(memory.NewSessionStore(), memory.NewPlayerStore(), factory, app.NewHintEngine(rnd, app.DefaultHintConfig()))

	in := strings.NewReader("/play\n\n/hint\nCancel\n")
	var out bytes.Buffer
	if err := Run(context.Background(), chat.NewDispatcher(game), 1, in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Question #1 for 500", "[A | B | C | D]", "Choose a hint.", "Choose an answer."} {
		if !strings.Contains(text, want) {
			t.Fatalf("output misses %q:\n%s", want, text)
		}
	}
}
