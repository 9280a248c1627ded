package app

import (
	"time"

	"ladder-quiz-bot/internal/domain"
)

// FirstLevel is the rung every game starts on.
const FirstLevel = 1

// AnswerResult is the transition taken by a submitted answer.
type AnswerResult int

const (
	// AnswerAdvanced moves the session to the next level.
	AnswerAdvanced AnswerResult = iota
	// AnswerSecondChance keeps the quest after a first miss covered by the double answer hint.
	AnswerSecondChance
	// AnswerWon closes the session at the top of the ladder.
	AnswerWon
	// AnswerLost closes the session after a wrong answer.
	AnswerLost
)

func (r AnswerResult) String() string {
	switch r {
	case AnswerAdvanced:
		return "advanced"
	case AnswerSecondChance:
		return "second_chance"
	case AnswerWon:
		return "won"
	case AnswerLost:
		return "lost"
	default:
		return "unknown"
	}
}

func newSession(playerID int64, quest domain.Quest, level int, now time.Time) domain.Session {
	return domain.Session{
		PlayerID:  playerID,
		QuestID:   quest.ID,
		Level:     level,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// advance moves an open session to the next quest. Hint markers are kept.
func advance(s *domain.Session, quest domain.Quest, level int, now time.Time) {
	s.QuestID = quest.ID
	s.Level = level
	s.Missed = domain.SlotRef{}
	s.Awaiting = domain.AwaitNone
	s.UpdatedAt = now
}

// missFirst records a wrong first guess under the double answer hint.
func missFirst(s *domain.Session, slot domain.Slot, now time.Time) {
	s.Missed = domain.SlotRef{Slot: slot, Valid: true}
	s.Awaiting = domain.AwaitSecondGuess
	s.UpdatedAt = now
}

// closeSession finishes the session. Closing twice keeps the first outcome and reports false.
func closeSession(s *domain.Session, outcome domain.Outcome, now time.Time) bool {
	if s.Closed {
		return false
	}
	s.Closed = true
	s.Outcome = outcome
	s.Awaiting = domain.AwaitNone
	s.UpdatedAt = now
	return true
}

// judge decides the transition for slot without touching the session.
func judge(s domain.Session, card domain.Card, slot domain.Slot) AnswerResult {
	if slot == card.Correct {
		return AnswerAdvanced
	}
	if s.HintOnCurrent(domain.HintDoubleAnswer) && !s.Missed.Valid {
		return AnswerSecondChance
	}
	return AnswerLost
}
