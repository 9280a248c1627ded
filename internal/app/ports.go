package app

import (
	"context"

	"ladder-quiz-bot/internal/domain"
)

// Bank serves read-only reference data: levels, questions and correctness links.
type Bank interface {
	Level(ctx context.Context, level int) (domain.DifficultyLevel, error)
	Levels(ctx context.Context) ([]domain.DifficultyLevel, error)
	QuestionsAt(ctx context.Context, level int) ([]domain.Question, error)
	Question(ctx context.Context, id int64) (domain.Question, error)
	Links(ctx context.Context, questionID int64) ([]domain.Link, error)
}

// QuestRepository stores assembled quests.
type QuestRepository interface {
	// GetOrCreateQuest returns the stored quest with the same question and slot contents,
	// creating it when none exists. The ID of the argument is ignored.
	GetOrCreateQuest(ctx context.Context, quest domain.Quest) (domain.Quest, error)
	Quest(ctx context.Context, id int64) (domain.Quest, error)
}

// SessionRepository abstracts how game sessions are stored (in-memory, SQL, Redis).
type SessionRepository interface {
	// CreateSession stores a new open session and assigns its ID.
	// It fails with domain.ErrGameInProgress if the player already has an open session.
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	SaveSession(ctx context.Context, session domain.Session) error
	Session(ctx context.Context, id int64) (domain.Session, error)
	// OpenSession returns the player's open session or domain.ErrNoActiveGame.
	OpenSession(ctx context.Context, playerID int64) (domain.Session, error)
}

// PlayerRepository registers players.
type PlayerRepository interface {
	GetOrCreatePlayer(ctx context.Context, id int64) (domain.Player, error)
}

// Rand is the randomness used by quest assembly and hints.
type Rand interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}
