package domain

import "errors"

var (
	// ErrNoActiveGame is returned when an action needs an open session and the player has none.
	ErrNoActiveGame = errors.New("no active game")
	// ErrGameInProgress is returned when starting a game while another one is still open.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrSessionClosed indicates a mutation was attempted on a finished session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNoQuestAvailable means no question at the level has a resolvable set of four answers.
	ErrNoQuestAvailable = errors.New("no quest available")
	// ErrHintUnavailable is returned for a hint that was already spent in this session.
	ErrHintUnavailable = errors.New("hint unavailable")
	// ErrNoHintsLeft is returned when every hint of the session is spent.
	ErrNoHintsLeft = errors.New("no hints left")
	// ErrHintNotRecognized indicates an unknown hint selection.
	ErrHintNotRecognized = errors.New("hint not recognized")
	// ErrInvalidSlot indicates the text does not name one of the four slots.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrSlotUnavailable is returned for a slot hidden by elimination or already missed.
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrQuestNotFound    = errors.New("quest not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrLevelNotFound    = errors.New("difficulty level not found")
	ErrSessionNotFound  = errors.New("session not found")
	// ErrBankInvalid indicates seed data breaks the question bank invariants.
	ErrBankInvalid = errors.New("invalid question bank")
)
