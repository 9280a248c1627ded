package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ladder-quiz-bot/internal/app"
	"ladder-quiz-bot/internal/domain"
)

// Dispatcher routes events of every player to the game. Turns of one player are serialized.
type Dispatcher struct {
	game  *app.Game
	locks playerLocks
}

func NewDispatcher(game *app.Game) *Dispatcher {
	return &Dispatcher{game: game, locks: playerLocks{held: make(map[int64]*playerLock)}}
}

// Handle serves one inbound event. Expected game conditions become replies; the error is
// non-nil only for failures the player cannot fix, in which case an apology reply is returned too.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) ([]Reply, error) {
	unlock := d.locks.lock(ev.PlayerID)
	defer unlock()

	replies, err := d.handle(ctx, ev)
	if err != nil {
		return []Reply{{Text: "Something went wrong, please try again later."}}, fmt.Errorf("player %d: %w", ev.PlayerID, err)
	}
	return replies, nil
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) ([]Reply, error) {
	switch ev.Command {
	case CmdStart:
		if _, err := d.game.Register(ctx, ev.PlayerID); err != nil {
			return nil, err
		}
		return []Reply{welcomeReply()}, nil
	case CmdHelp:
		return []Reply{{Text: helpText}}, nil
	case CmdPlay:
		return d.play(ctx, ev.PlayerID)
	case CmdRepeat:
		return d.repeat(ctx, ev.PlayerID)
	case CmdHint:
		return d.hintMenu(ctx, ev.PlayerID)
	case CmdNone:
		return d.text(ctx, ev.PlayerID, ev.Text)
	default:
		return []Reply{{Text: "Unknown command.\n" + helpText}}, nil
	}
}

func (d *Dispatcher) play(ctx context.Context, playerID int64) ([]Reply, error) {
	session, card, err := d.game.Start(ctx, playerID)
	if errors.Is(err, domain.ErrGameInProgress) {
		if _, err := d.game.Await(ctx, playerID, domain.AwaitContinueChoice); err != nil {
			return nil, err
		}
		return []Reply{continueReply("You are already in a game. Continue it or start a new one?")}, nil
	}
	if errors.Is(err, domain.ErrNoQuestAvailable) {
		return []Reply{{Text: "There are no questions yet, try again later."}}, nil
	}
	if err != nil {
		return nil, err
	}
	return []Reply{questReply(session, card)}, nil
}

func (d *Dispatcher) repeat(ctx context.Context, playerID int64) ([]Reply, error) {
	session, card, err := d.game.Settle(ctx, playerID)
	if errors.Is(err, domain.ErrNoActiveGame) {
		return []Reply{noGameReply()}, nil
	}
	if err != nil {
		return nil, err
	}
	return []Reply{questReply(session, card)}, nil
}

func (d *Dispatcher) hintMenu(ctx context.Context, playerID int64) ([]Reply, error) {
	session, err := d.game.Await(ctx, playerID, domain.AwaitHintChoice)
	switch {
	case errors.Is(err, domain.ErrNoActiveGame):
		return []Reply{noGameReply()}, nil
	case errors.Is(err, domain.ErrNoHintsLeft):
		return []Reply{{Text: "You have no hints left."}}, nil
	case err != nil:
		return nil, err
	}
	return []Reply{hintMenuReply("Choose a hint.", session)}, nil
}

func (d *Dispatcher) text(ctx context.Context, playerID int64, text string) ([]Reply, error) {
	session, card, err := d.game.Current(ctx, playerID)
	if errors.Is(err, domain.ErrNoActiveGame) {
		return []Reply{noGameReply()}, nil
	}
	if err != nil {
		return nil, err
	}

	switch session.Awaiting {
	case domain.AwaitContinueChoice:
		return d.continueChoice(ctx, playerID, text)
	case domain.AwaitHintChoice:
		return d.hintChoice(ctx, playerID, session, card, text)
	default:
		return d.answer(ctx, playerID, session, card, text)
	}
}

func (d *Dispatcher) continueChoice(ctx context.Context, playerID int64, text string) ([]Reply, error) {
	switch {
	case strings.EqualFold(text, LabelContinue):
		session, card, err := d.game.Settle(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return []Reply{questReply(session, card)}, nil
	case strings.EqualFold(text, LabelNewGame):
		session, card, err := d.game.Restart(ctx, playerID)
		if errors.Is(err, domain.ErrNoQuestAvailable) {
			return []Reply{{Text: "There are no questions yet, try again later."}}, nil
		}
		if err != nil {
			return nil, err
		}
		return []Reply{questReply(session, card)}, nil
	default:
		return []Reply{continueReply("I do not understand your answer.")}, nil
	}
}

func (d *Dispatcher) hintChoice(ctx context.Context, playerID int64, session domain.Session, card domain.Card, text string) ([]Reply, error) {
	if strings.EqualFold(text, LabelCancel) {
		session, card, err := d.game.Settle(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return []Reply{chooseAnswerReply(session, card)}, nil
	}

	kind, ok := hintByLabel(text)
	if !ok {
		return []Reply{hintMenuReply("There is no such hint.", session)}, nil
	}
	out, err := d.game.UseHint(ctx, playerID, kind)
	switch {
	case errors.Is(err, domain.ErrHintUnavailable):
		return []Reply{hintMenuReply("That hint is already used.", session)}, nil
	case errors.Is(err, domain.ErrNoHintsLeft):
		session, card, err := d.game.Settle(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return []Reply{{Text: "You have no hints left."}, chooseAnswerReply(session, card)}, nil
	case err != nil:
		return nil, err
	}
	return []Reply{{Text: hintText(out.Hint)}, chooseAnswerReply(out.Session, out.Card)}, nil
}

func (d *Dispatcher) answer(ctx context.Context, playerID int64, session domain.Session, card domain.Card, text string) ([]Reply, error) {
	slot, err := domain.ParseSlot(text)
	if err != nil {
		return []Reply{{Text: "Answer with one of the letters.", Options: slotLabels(app.Options(session, card))}}, nil
	}

	outcome, err := d.game.Answer(ctx, playerID, slot)
	if errors.Is(err, domain.ErrSlotUnavailable) {
		return []Reply{{Text: "That option is not available.", Options: slotLabels(app.Options(session, card))}}, nil
	}
	if err != nil {
		return nil, err
	}

	switch outcome.Result {
	case app.AnswerAdvanced:
		return []Reply{{Text: "Correct!"}, questReply(outcome.Session, outcome.Card)}, nil
	case app.AnswerSecondChance:
		return []Reply{{
			Text:    "Wrong, but you may try once more. Choose another answer.",
			Options: slotLabels(app.Options(outcome.Session, outcome.Card)),
		}}, nil
	case app.AnswerWon:
		return []Reply{{Text: fmt.Sprintf("Congratulations, you won %d!", outcome.Prize)}}, nil
	default:
		return []Reply{{Text: fmt.Sprintf("Wrong answer. The correct answer was %s.", outcome.Correct)}}, nil
	}
}

// playerLocks hands out one mutex per player and forgets it once nobody holds it.
type playerLocks struct {
	mu   sync.Mutex
	held map[int64]*playerLock
}

type playerLock struct {
	mu   sync.Mutex
	refs int
}

func (l *playerLocks) lock(playerID int64) func() {
	l.mu.Lock()
	pl, ok := l.held[playerID]
	if !ok {
		pl = &playerLock{}
		l.held[playerID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.held, playerID)
		}
		l.mu.Unlock()
	}
}
