package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ladder-quiz-bot/internal/domain"
)

// Game contains the ladder game use cases. Every method loads the player's session from the
// repository and stores it back, so a turn can be served by any process.
// Callers serialize turns of the same player.
type Game struct {
	sessions SessionRepository
	players  PlayerRepository
	factory  *QuestFactory
	hints    *HintEngine
	now      func() time.Time
}

func NewGame(sessions SessionRepository, players PlayerRepository, factory *QuestFactory, hints *HintEngine) *Game {
	return NewGameWithClock(sessions, players, factory, hints, time.Now)
}

// NewGameWithClock allows deterministic timestamps in tests.
func NewGameWithClock(sessions SessionRepository, players PlayerRepository, factory *QuestFactory, hints *HintEngine, now func() time.Time) *Game {
	return &Game{sessions: sessions, players: players, factory: factory, hints: hints, now: now}
}

// AnswerOutcome summarizes a submitted answer.
type AnswerOutcome struct {
	Result  AnswerResult
	Correct domain.Slot
	Session domain.Session
	// Card is the quest the player faces next; zero when the session closed.
	Card domain.Card
	// Prize is the cost of the last level cleared, zero if none.
	Prize int64
}

// HintOutcome is the result of a spent hint together with the state it applies to.
type HintOutcome struct {
	Hint    HintResult
	Session domain.Session
	Card    domain.Card
}

// Register creates the player on first contact.
func (g *Game) Register(ctx context.Context, playerID int64) (domain.Player, error) {
	return g.players.GetOrCreatePlayer(ctx, playerID)
}

// Start opens a new game at the first level. It fails with domain.ErrGameInProgress when the
// player already has an open session.
func (g *Game) Start(ctx context.Context, playerID int64) (domain.Session, domain.Card, error) {
	if _, err := g.sessions.OpenSession(ctx, playerID); err == nil {
		return domain.Session{}, domain.Card{}, domain.ErrGameInProgress
	} else if !errors.Is(err, domain.ErrNoActiveGame) {
		return domain.Session{}, domain.Card{}, err
	}
	if _, err := g.players.GetOrCreatePlayer(ctx, playerID); err != nil {
		return domain.Session{}, domain.Card{}, err
	}

	quest, err := g.factory.CreateByDifficulty(ctx, FirstLevel)
	if err != nil {
		return domain.Session{}, domain.Card{}, err
	}
	card, err := g.factory.Card(ctx, quest.ID)
	if err != nil {
		return domain.Session{}, domain.Card{}, err
	}
	session, err := g.sessions.CreateSession(ctx, newSession(playerID, quest, card.Level.Level, g.now()))
	if err != nil {
		return domain.Session{}, domain.Card{}, err
	}
	return session, card, nil
}

// Restart abandons the open session, if any, and starts a new one.
func (g *Game) Restart(ctx context.Context, playerID int64) (domain.Session, domain.Card, error) {
	session, err := g.sessions.OpenSession(ctx, playerID)
	switch {
	case err == nil:
		if closeSession(&session, domain.OutcomeAbandoned, g.now()) {
			if err := g.sessions.SaveSession(ctx, session); err != nil {
				return domain.Session{}, domain.Card{}, err
			}
		}
	case !errors.Is(err, domain.ErrNoActiveGame):
		return domain.Session{}, domain.Card{}, err
	}
	return g.Start(ctx, playerID)
}

// Current returns the open session and the quest it stands on.
func (g *Game) Current(ctx context.Context, playerID int64) (domain.Session, domain.Card, error) {
	session, err := g.sessions.OpenSession(ctx, playerID)
	if err != nil {
		return domain.Session{}, domain.Card{}, err
	}
	card, err := g.factory.Card(ctx, session.QuestID)
	if err != nil {
		return domain.Session{}, domain.Card{}, err
	}
	return session, card, nil
}

// Answer submits slot for the current quest.
func (g *Game) Answer(ctx context.Context, playerID int64, slot domain.Slot) (AnswerOutcome, error) {
	if !slot.Valid() {
		return AnswerOutcome{}, domain.ErrInvalidSlot
	}
	session, card, err := g.Current(ctx, playerID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if !isVisible(session, card, slot) {
		return AnswerOutcome{}, fmt.Errorf("slot %s: %w", slot, domain.ErrSlotUnavailable)
	}

	now := g.now()
	outcome := AnswerOutcome{Result: judge(session, card, slot), Correct: card.Correct}
	switch outcome.Result {
	case AnswerAdvanced:
		outcome.Prize = card.Level.Cost
		next, nextCard, err := g.nextQuest(ctx, session.Level+1)
		if err != nil {
			return AnswerOutcome{}, err
		}
		if next == nil {
			outcome.Result = AnswerWon
			closeSession(&session, domain.OutcomeWon, now)
			break
		}
		advance(&session, *next, nextCard.Level.Level, now)
		outcome.Card = nextCard
	case AnswerSecondChance:
		missFirst(&session, slot, now)
		outcome.Card = card
	case AnswerLost:
		closeSession(&session, domain.OutcomeLost, now)
	}

	if err := g.sessions.SaveSession(ctx, session); err != nil {
		return AnswerOutcome{}, err
	}
	outcome.Session = session
	return outcome, nil
}

// nextQuest assembles a quest for level; nil means the ladder ends below it.
func (g *Game) nextQuest(ctx context.Context, level int) (*domain.Quest, domain.Card, error) {
	ok, err := g.factory.HasLevel(ctx, level)
	if err != nil || !ok {
		return nil, domain.Card{}, err
	}
	quest, err := g.factory.CreateByDifficulty(ctx, level)
	if errors.Is(err, domain.ErrNoQuestAvailable) {
		return nil, domain.Card{}, nil
	}
	if err != nil {
		return nil, domain.Card{}, err
	}
	card, err := g.factory.Card(ctx, quest.ID)
	if err != nil {
		return nil, domain.Card{}, err
	}
	return &quest, card, nil
}

// UseHint spends a hint on the current quest.
func (g *Game) UseHint(ctx context.Context, playerID int64, kind domain.HintKind) (HintOutcome, error) {
	session, card, err := g.Current(ctx, playerID)
	if err != nil {
		return HintOutcome{}, err
	}
	if !session.AnyHintLeft() {
		return HintOutcome{}, domain.ErrNoHintsLeft
	}

	spent := session
	result, err := g.hints.Use(&spent, card, kind)
	if err != nil {
		return HintOutcome{}, err
	}
	spent.Awaiting = spent.Settled()
	spent.UpdatedAt = g.now()
	if err := g.sessions.SaveSession(ctx, spent); err != nil {
		return HintOutcome{}, err
	}
	return HintOutcome{Hint: result, Session: spent, Card: card}, nil
}

// Await stores a pending prompt on the open session.
// Asking for the hint menu with every hint spent fails with domain.ErrNoHintsLeft.
func (g *Game) Await(ctx context.Context, playerID int64, awaiting domain.Awaiting) (domain.Session, error) {
	session, err := g.sessions.OpenSession(ctx, playerID)
	if err != nil {
		return domain.Session{}, err
	}
	if awaiting == domain.AwaitHintChoice && !session.AnyHintLeft() {
		return domain.Session{}, domain.ErrNoHintsLeft
	}
	if awaiting == domain.AwaitSecondGuess && !session.Missed.Valid {
		return domain.Session{}, fmt.Errorf("no missed guess to retry")
	}
	if session.Awaiting == awaiting {
		return session, nil
	}
	session.Awaiting = awaiting
	session.UpdatedAt = g.now()
	if err := g.sessions.SaveSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Settle drops a pending prompt without touching quest or hints.
func (g *Game) Settle(ctx context.Context, playerID int64) (domain.Session, domain.Card, error) {
	session, card, err := g.Current(ctx, playerID)
	if err != nil {
		return domain.Session{}, domain.Card{}, err
	}
	if settled := session.Settled(); session.Awaiting != settled {
		session.Awaiting = settled
		session.UpdatedAt = g.now()
		if err := g.sessions.SaveSession(ctx, session); err != nil {
			return domain.Session{}, domain.Card{}, err
		}
	}
	return session, card, nil
}

// Close finishes a session. Closing a closed session is a no-op.
func (g *Game) Close(ctx context.Context, sessionID int64) (domain.Session, error) {
	session, err := g.sessions.Session(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !closeSession(&session, domain.OutcomeAbandoned, g.now()) {
		return session, nil
	}
	if err := g.sessions.SaveSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Options lists the slots the player may pick on the current quest.
func Options(session domain.Session, card domain.Card) []domain.Slot {
	return card.Visible(session.HintOnCurrent(domain.HintElimination), session.Missed)
}

func isVisible(session domain.Session, card domain.Card, slot domain.Slot) bool {
	for _, visible := range Options(session, card) {
		if visible == slot {
			return true
		}
	}
	return false
}
