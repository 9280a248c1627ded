// Package chat turns inbound chat events into game actions and outbound replies.
// It is shared by every transport; pending prompts live on the stored session.
package chat

import (
	"context"
	"strings"
)

// Command is a structured inbound command.
type Command string

const (
	CmdNone   Command = ""
	CmdStart  Command = "start"
	CmdHelp   Command = "help"
	CmdPlay   Command = "play"
	CmdRepeat Command = "repeat_quest"
	CmdHint   Command = "hint"
)

// CommandInfo describes a command for bot menus.
type CommandInfo struct {
	Command     Command
	Description string
}

// Commands lists the supported commands in menu order.
var Commands = []CommandInfo{
	{CmdStart, "Welcome message"},
	{CmdHelp, "List of commands"},
	{CmdPlay, "Start or continue a game"},
	{CmdRepeat, "Repeat the question"},
	{CmdHint, "Use a hint"},
}

// Event is one inbound message: either a command or free text.
type Event struct {
	PlayerID int64
	Command  Command
	Text     string
}

// Reply is one outbound message with an optional set of reply options.
type Reply struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

// ParseCommand recognizes "/name", "/name@bot" and "/name args". ok is false for free text.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return CmdNone, false
	}
	name := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return Command(strings.ToLower(name)), true
}

// NewEvent builds an event from raw text, splitting commands from free text.
func NewEvent(playerID int64, text string) Event {
	if cmd, ok := ParseCommand(text); ok {
		return Event{PlayerID: playerID, Command: cmd}
	}
	return Event{PlayerID: playerID, Text: strings.TrimSpace(text)}
}

// Handler serves inbound events. *Dispatcher implements it.
type Handler interface {
	Handle(ctx context.Context, ev Event) ([]Reply, error)
}
