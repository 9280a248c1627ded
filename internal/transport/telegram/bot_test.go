package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ladder-quiz-bot/internal/chat"
)

type recordingAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (a *recordingAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, c)
	return tgbotapi.Message{}, nil
}

func (a *recordingAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type echoHandler struct {
	events []chat.Event
}

func (h *echoHandler) Handle(_ context.Context, ev chat.Event) ([]chat.Reply, error) {
	h.events = append(h.events, ev)
	return []chat.Reply{{Text: "first"}, {Text: "second", Options: []string{"A", "B", "C"}}}, nil
}

func TestMessageForBuildsKeyboardRows(t *testing.T) {
	msg := messageFor(5, chat.Reply{Text: "pick", Options: []string{"A", "B", "C"}})
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("expected reply keyboard, got %T", msg.ReplyMarkup)
	}
	if len(keyboard.Keyboard) != 2 || len(keyboard.Keyboard[0]) != 2 || len(keyboard.Keyboard[1]) != 1 {
		t.Fatalf("expected rows of two, got %+v", keyboard.Keyboard)
	}
	if keyboard.Keyboard[1][0].Text != "C" || !keyboard.OneTimeKeyboard || !keyboard.ResizeKeyboard {
		t.Fatalf("unexpected keyboard %+v", keyboard)
	}
	if msg.ChatID != 5 || msg.Text != "pick" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestMessageForRemovesKeyboard(t *testing.T) {
	msg := messageFor(5, chat.Reply{Text: "done"})
	if _, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove); !ok {
		t.Fatalf("expected keyboard removal, got %T", msg.ReplyMarkup)
	}
}

func TestCommandsConfig(t *testing.T) {
	cfg := commandsConfig()
	if len(cfg.Commands) != len(chat.Commands) {
		t.Fatalf("expected %d commands, got %d", len(chat.Commands), len(cfg.Commands))
	}
	if cfg.Commands[2].Command != "play" {
		t.Fatalf("unexpected command order %+v", cfg.Commands)
	}
}

func TestHandleUpdate(t *testing.T) {
	api := &recordingAPI{}
	handler := &echoHandler{}
	bot := NewBot(api, handler)

	bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 77},
		Chat: &tgbotapi.Chat{ID: 99},
		Text: "/play@ladder_bot",
	}})
	if len(handler.events) != 1 || handler.events[0].PlayerID != 77 || handler.events[0].Command != chat.CmdPlay {
		t.Fatalf("unexpected events %+v", handler.events)
	}
	if len(api.sent) != 2 {
		t.Fatalf("expected two messages, got %d", len(api.sent))
	}
	if msg := api.sent[1].(tgbotapi.MessageConfig); msg.ChatID != 99 || msg.Text != "second" {
		t.Fatalf("unexpected message %+v", msg)
	}

	bot.HandleUpdate(context.Background(), tgbotapi.Update{})
	if len(handler.events) != 1 {
		t.Fatalf("empty update reached the handler")
	}

	if err := bot.RegisterCommands(); err != nil || len(api.requests) != 1 {
		t.Fatalf("register commands: %v", err)
	}
}

// stallingHandler holds player 1 until release is closed.
type stallingHandler struct {
	release chan struct{}
	handled chan int64
}

func (h *stallingHandler) Handle(ctx context.Context, ev chat.Event) ([]chat.Reply, error) {
	if ev.PlayerID == 1 {
		<-h.release
	}
	h.handled <- ev.PlayerID
	return []chat.Reply{{Text: "ok"}}, nil
}

func textUpdate(playerID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: playerID},
		Chat: &tgbotapi.Chat{ID: playerID},
		Text: text,
	}}
}

func TestServeDoesNotBlockOtherPlayers(t *testing.T) {
	api := &recordingAPI{}
	handler := &stallingHandler{release: make(chan struct{}), handled: make(chan int64, 2)}
	bot := NewBot(api, handler)

	updates := make(chan tgbotapi.Update)
	served := make(chan error, 1)
	go func() { served <- bot.Serve(context.Background(), updates) }()

	updates <- textUpdate(1, "/play")
	updates <- textUpdate(2, "/play")

	select {
	case id := <-handler.handled:
		if id != 2 {
			t.Fatalf("expected player 2 first, got %d", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("player 2 waited behind player 1")
	}

	close(handler.release)
	close(updates)
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after updates closed")
	}
	if id := <-handler.handled; id != 1 {
		t.Fatalf("expected player 1 to finish, got %d", id)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.sent) != 2 {
		t.Fatalf("expected a reply per update, got %d", len(api.sent))
	}
}
