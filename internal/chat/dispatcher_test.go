package chat_test

import (
	"context"
	"strings"
	"testing"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/chat"
	"ladder-quiz-bot/internal/domain"
	"ladder-quiz-bot/internal/infra/memory"
	"ladder-quiz-bot/internal/random"
	"ladder-quiz-bot/internal/seed"
)

const player int64 = 7

func newDispatcher(t *testing.T) (*chat.Dispatcher, *app.Game, *memory.SessionStore) {
	t.Helper()
	rnd := random.New(3)
	sessions := memory.NewSessionStore()
	factory := app.NewQuestFactory(memory.NewBank(seed.Default()), memory.NewQuestStore(), rnd)
	game := app.NewGame(sessions, memory.NewPlayerStore(), factory, app.NewHintEngine(rnd, app.DefaultHintConfig()))
	return chat.NewDispatcher(game), game, sessions
}

func send(t *testing.T, d *chat.Dispatcher, text string) []chat.Reply {
	t.Helper()
	replies, err := d.Handle(context.Background(), chat.NewEvent(player, text))
	if err != nil {
		t.Fatalf("handle %q: %v", text, err)
	}
	if len(replies) == 0 {
		t.Fatalf("handle %q: no replies", text)
	}
	return replies
}

func last(replies []chat.Reply) chat.Reply {
	return replies[len(replies)-1]
}

func TestParseCommand(t *testing.T) {
	cases := map[string]chat.Command{
		"/play":            chat.CmdPlay,
		"/hint@ladder_bot": chat.CmdHint,
		"/HELP now":        chat.CmdHelp,
	}
	for text, want := range cases {
		got, ok := chat.ParseCommand(text)
		if !ok || got != want {
			t.Fatalf("parse %q: got %q %v", text, got, ok)
		}
	}
	if _, ok := chat.ParseCommand("A"); ok {
		t.Fatalf("free text parsed as command")
	}
}

func TestTextWithoutGame(t *testing.T) {
	d, _, _ := newDispatcher(t)
	reply := last(send(t, d, "A"))
	if !strings.Contains(reply.Text, "/play") {
		t.Fatalf("expected a prompt to start, got %q", reply.Text)
	}
}

func TestPlayShowsQuestion(t *testing.T) {
	d, _, _ := newDispatcher(t)
	send(t, d, "/start")
	reply := last(send(t, d, "/play"))
	if !strings.HasPrefix(reply.Text, "Question #1 for 500") {
		t.Fatalf("unexpected question text %q", reply.Text)
	}
	if strings.Join(reply.Options, "") != "ABCD" {
		t.Fatalf("expected all four options, got %v", reply.Options)
	}
}

func TestContinueOrNewGame(t *testing.T) {
	ctx := context.Background()
	d, game, sessions := newDispatcher(t)
	send(t, d, "/play")
	first, _ := sessions.OpenSession(ctx, player)

	reply := last(send(t, d, "/play"))
	if len(reply.Options) != 2 || reply.Options[0] != chat.LabelContinue {
		t.Fatalf("expected continue prompt, got %+v", reply)
	}

	reply = last(send(t, d, "maybe"))
	if len(reply.Options) != 2 {
		t.Fatalf("expected re-prompt, got %+v", reply)
	}

	reply = last(send(t, d, chat.LabelContinue))
	if !strings.HasPrefix(reply.Text, "Question #1") {
		t.Fatalf("expected the same question, got %q", reply.Text)
	}
	same, _ := sessions.OpenSession(ctx, player)
	if same.ID != first.ID || same.Awaiting != domain.AwaitNone {
		t.Fatalf("continue changed the session: %+v", same)
	}

	send(t, d, "/play")
	send(t, d, chat.LabelNewGame)
	fresh, _, err := game.Current(ctx, player)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if fresh.ID == first.ID {
		t.Fatalf("expected a new session")
	}
}

func TestHintMenuCancelAndUnknown(t *testing.T) {
	ctx := context.Background()
	d, _, sessions := newDispatcher(t)
	send(t, d, "/play")

	reply := last(send(t, d, "/hint"))
	if len(reply.Options) != domain.HintKindCount+1 || reply.Options[len(reply.Options)-1] != chat.LabelCancel {
		t.Fatalf("unexpected hint menu %+v", reply)
	}

	reply = last(send(t, d, "Crystal ball"))
	if !strings.Contains(reply.Text, "no such hint") {
		t.Fatalf("expected not recognized, got %q", reply.Text)
	}
	session, _ := sessions.OpenSession(ctx, player)
	if session.Awaiting != domain.AwaitHintChoice {
		t.Fatalf("expected hint choice still pending, got %s", session.Awaiting)
	}

	send(t, d, chat.LabelCancel)
	session, _ = sessions.OpenSession(ctx, player)
	if session.Awaiting != domain.AwaitNone {
		t.Fatalf("expected no pending prompt, got %s", session.Awaiting)
	}
	for _, kind := range domain.HintKinds {
		if !session.HintAvailable(kind) {
			t.Fatalf("cancel spent hint %s", kind)
		}
	}
}

func TestEliminationShrinksOptions(t *testing.T) {
	d, _, _ := newDispatcher(t)
	send(t, d, "/play")
	send(t, d, "/hint")
	reply := last(send(t, d, chat.HintLabel(domain.HintElimination)))
	if len(reply.Options) != 2 {
		t.Fatalf("expected two options, got %v", reply.Options)
	}

	menu := last(send(t, d, "/hint"))
	for _, option := range menu.Options {
		if option == chat.HintLabel(domain.HintElimination) {
			t.Fatalf("spent hint still offered: %v", menu.Options)
		}
	}
	reply = last(send(t, d, chat.HintLabel(domain.HintElimination)))
	if !strings.Contains(reply.Text, "no such hint") && !strings.Contains(reply.Text, "already used") {
		t.Fatalf("expected spent hint rejected, got %q", reply.Text)
	}
}

func TestAudienceReply(t *testing.T) {
	d, _, _ := newDispatcher(t)
	send(t, d, "/play")
	send(t, d, "/hint")
	replies := send(t, d, chat.HintLabel(domain.HintHallHelp))
	if len(replies) != 2 || !strings.Contains(replies[0].Text, "A) ") || !strings.Contains(replies[0].Text, "%") {
		t.Fatalf("unexpected audience reply %+v", replies)
	}
}

func TestCorrectThenWrongAnswer(t *testing.T) {
	ctx := context.Background()
	d, game, sessions := newDispatcher(t)
	send(t, d, "/play")

	_, card, _ := game.Current(ctx, player)
	replies := send(t, d, strings.ToLower(card.Correct.String()))
	if replies[0].Text != "Correct!" || !strings.HasPrefix(last(replies).Text, "Question #2") {
		t.Fatalf("unexpected replies %+v", replies)
	}

	_, card, _ = game.Current(ctx, player)
	wrong := domain.SlotA
	if card.Correct == domain.SlotA {
		wrong = domain.SlotB
	}
	reply := last(send(t, d, wrong.String()))
	if !strings.Contains(reply.Text, card.Correct.String()+".") {
		t.Fatalf("expected the correct answer revealed, got %q", reply.Text)
	}
	if _, err := sessions.OpenSession(ctx, player); err == nil {
		t.Fatalf("expected the session closed")
	}
}

func TestSecondGuessHidesMissedOption(t *testing.T) {
	ctx := context.Background()
	d, game, _ := newDispatcher(t)
	send(t, d, "/play")
	send(t, d, "/hint")
	send(t, d, chat.HintLabel(domain.HintDoubleAnswer))

	_, card, _ := game.Current(ctx, player)
	wrong := domain.SlotA
	if card.Correct == domain.SlotA {
		wrong = domain.SlotB
	}
	reply := last(send(t, d, wrong.String()))
	if len(reply.Options) != 3 {
		t.Fatalf("expected three options for the second guess, got %v", reply.Options)
	}
	for _, option := range reply.Options {
		if option == wrong.String() {
			t.Fatalf("missed option still offered")
		}
	}
	replies := send(t, d, card.Correct.String())
	if replies[0].Text != "Correct!" {
		t.Fatalf("expected the second guess to count, got %+v", replies)
	}
}

func TestInvalidLetter(t *testing.T) {
	d, _, _ := newDispatcher(t)
	send(t, d, "/play")
	reply := last(send(t, d, "E"))
	if !strings.Contains(reply.Text, "letters") || len(reply.Options) != 4 {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestRepeatQuestAfterHintMenu(t *testing.T) {
	ctx := context.Background()
	d, _, sessions := newDispatcher(t)
	if reply := last(send(t, d, "/repeat_quest")); !strings.Contains(reply.Text, "/play") {
		t.Fatalf("expected a prompt to start, got %q", reply.Text)
	}

	send(t, d, "/play")
	send(t, d, "/hint")
	reply := last(send(t, d, "/repeat_quest"))
	if !strings.HasPrefix(reply.Text, "Question #1") {
		t.Fatalf("expected the question again, got %q", reply.Text)
	}
	session, _ := sessions.OpenSession(ctx, player)
	if session.Awaiting != domain.AwaitNone {
		t.Fatalf("repeat left a pending prompt: %s", session.Awaiting)
	}
}
