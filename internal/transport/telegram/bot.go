// Package telegram serves the game over the Telegram Bot API with long polling.
package telegram

import (
	"context"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ladder-quiz-bot/internal/chat"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot relays Telegram messages to a chat handler.
type Bot struct {
	api     API
	handler chat.Handler
}

func NewBot(api API, handler chat.Handler) *Bot {
	return &Bot{api: api, handler: handler}
}

// Connect authorizes the token against the Bot API.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = debug
	log.Printf("authorized on account %s", api.Self.UserName)
	return api, nil
}

// RegisterCommands publishes the command menu.
func (b *Bot) RegisterCommands() error {
	if _, err := b.api.Request(commandsConfig()); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// Run long-polls api until ctx is done.
func Run(ctx context.Context, api *tgbotapi.BotAPI, bot *Bot, timeout int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	log.Println("starting bot polling...")
	return bot.Serve(ctx, updates)
}

// Serve handles each update in its own goroutine until ctx is done or updates is closed,
// then waits for the handlers in flight. Ordering per player is left to the chat handler.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}(update)
		}
	}
}

// HandleUpdate serves one update. Only text messages are handled.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.From == nil || message.Text == "" {
		return
	}
	log.Printf("message from %s (ID: %d): %s", message.From.UserName, message.From.ID, message.Text)

	replies, err := b.handler.Handle(ctx, chat.NewEvent(message.From.ID, message.Text))
	if err != nil {
		log.Printf("handle message from %d: %v", message.From.ID, err)
	}
	for _, reply := range replies {
		if _, err := b.api.Send(messageFor(message.Chat.ID, reply)); err != nil {
			log.Printf("send to %d: %v", message.Chat.ID, err)
		}
	}
}

func commandsConfig() tgbotapi.SetMyCommandsConfig {
	commands := make([]tgbotapi.BotCommand, 0, len(chat.Commands))
	for _, c := range chat.Commands {
		commands = append(commands, tgbotapi.BotCommand{Command: string(c.Command), Description: c.Description})
	}
	return tgbotapi.NewSetMyCommands(commands...)
}

// buttonsPerRow is the reply keyboard width.
const buttonsPerRow = 2

func messageFor(chatID int64, reply chat.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Options) == 0 {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		return msg
	}

	var rows [][]tgbotapi.KeyboardButton
	for start := 0; start < len(reply.Options); start += buttonsPerRow {
		end := start + buttonsPerRow
		if end > len(reply.Options) {
			end = len(reply.Options)
		}
		row := make([]tgbotapi.KeyboardButton, 0, buttonsPerRow)
		for _, option := range reply.Options[start:end] {
			row = append(row, tgbotapi.NewKeyboardButton(option))
		}
		rows = append(rows, row)
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard
	return msg
}
