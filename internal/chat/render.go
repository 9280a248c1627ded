package chat

import (
	"fmt"
	"strings"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/domain"
)

const (
	LabelContinue = "Continue"
	LabelNewGame  = "New game"
	LabelCancel   = "Cancel"
)

var hintLabels = map[domain.HintKind]string{
	domain.HintElimination:  "50/50",
	domain.HintDoubleAnswer: "Double answer",
	domain.HintFriendCall:   "Phone a friend",
	domain.HintHallHelp:     "Ask the audience",
}

// HintLabel is the menu label of a hint.
func HintLabel(kind domain.HintKind) string {
	return hintLabels[kind]
}

func hintByLabel(label string) (domain.HintKind, bool) {
	for kind, l := range hintLabels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return kind, true
		}
	}
	return 0, false
}

const helpText = `/start        - welcome message
/help         - this list of commands
/play         - start or continue a game
/repeat_quest - print the current question again
/hint         - use a hint`

func welcomeReply() Reply {
	return Reply{Text: "Welcome! Send /play to start a game."}
}

func noGameReply() Reply {
	return Reply{Text: "You have not started a game yet. Send /play to start one."}
}

func slotLabels(slots []domain.Slot) []string {
	labels := make([]string, 0, len(slots))
	for _, slot := range slots {
		labels = append(labels, slot.String())
	}
	return labels
}

func questReply(session domain.Session, card domain.Card) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "Question #%d for %d\n", card.Level.Level, card.Level.Cost)
	b.WriteString(card.Question.Text)
	b.WriteString("\n")
	for _, slot := range domain.Slots {
		fmt.Fprintf(&b, "• %s) %s\n", slot, card.Answers[slot].Text)
	}
	return Reply{Text: b.String(), Options: slotLabels(app.Options(session, card))}
}

func chooseAnswerReply(session domain.Session, card domain.Card) Reply {
	return Reply{Text: "Choose an answer.", Options: slotLabels(app.Options(session, card))}
}

func continueReply(text string) Reply {
	return Reply{Text: text, Options: []string{LabelContinue, LabelNewGame}}
}

func hintMenuReply(text string, session domain.Session) Reply {
	options := make([]string, 0, domain.HintKindCount+1)
	for _, kind := range domain.HintKinds {
		if session.HintAvailable(kind) {
			options = append(options, HintLabel(kind))
		}
	}
	return Reply{Text: text, Options: append(options, LabelCancel)}
}

func hintText(result app.HintResult) string {
	switch result.Kind {
	case domain.HintElimination:
		return fmt.Sprintf("Two wrong answers are gone: %s and %s.", result.Excluded[0], result.Excluded[1])
	case domain.HintDoubleAnswer:
		return "You may make one mistake on this question."
	case domain.HintFriendCall:
		return fmt.Sprintf("Your friend thinks it is %s.", result.Guess)
	case domain.HintHallHelp:
		var b strings.Builder
		for _, slot := range domain.Slots {
			fmt.Fprintf(&b, "%s) %7.3f%%\n", slot, result.Poll[slot])
		}
		return b.String()
	default:
		return ""
	}
}
