// Package console plays the game on a terminal, one line per message.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"ladder-quiz-bot/internal/chat"
)

// Run reads lines from in until EOF or ctx is done and writes replies to out.
func Run(ctx context.Context, handler chat.Handler, playerID int64, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Type /play to start, /help for commands.")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		replies, err := handler.Handle(ctx, chat.NewEvent(playerID, line))
		if err != nil {
			return err
		}
		for _, reply := range replies {
			writeReply(out, reply)
		}
	}
	return scanner.Err()
}

func writeReply(out io.Writer, reply chat.Reply) {
	fmt.Fprintln(out, strings.TrimRight(reply.Text, "\n"))
	if len(reply.Options) > 0 {
		fmt.Fprintf(out, "[%s]\n", strings.Join(reply.Options, " | "))
	}
}
