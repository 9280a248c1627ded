package domain

import (
	"fmt"
	"time"
)

// HintKind identifies one of the four one-shot hints.
type HintKind int

const (
	HintElimination HintKind = iota
	HintDoubleAnswer
	HintFriendCall
	HintHallHelp
)

// HintKindCount is the number of hint kinds.
const HintKindCount = 4

// HintKinds lists the hints in menu order.
var HintKinds = [HintKindCount]HintKind{HintElimination, HintDoubleAnswer, HintFriendCall, HintHallHelp}

func (k HintKind) String() string {
	switch k {
	case HintElimination:
		return "50x50"
	case HintDoubleAnswer:
		return "double_answer"
	case HintFriendCall:
		return "friend_call"
	case HintHallHelp:
		return "hall_help"
	default:
		return fmt.Sprintf("HintKind(%d)", int(k))
	}
}

// Valid reports whether k is a known hint kind.
func (k HintKind) Valid() bool {
	return k >= HintElimination && k <= HintHallHelp
}

// QuestRef is an optional reference to a quest.
type QuestRef struct {
	ID    int64 `json:"id"`
	Valid bool  `json:"valid"`
}

// RefQuest returns a present reference to the quest id.
func RefQuest(id int64) QuestRef {
	return QuestRef{ID: id, Valid: true}
}

// Is reports whether the reference is present and points at the quest id.
func (r QuestRef) Is(id int64) bool {
	return r.Valid && r.ID == id
}

// SlotRef is an optional slot.
type SlotRef struct {
	Slot  Slot `json:"slot"`
	Valid bool `json:"valid"`
}

// Outcome describes how a session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWon
	OutcomeLost
	// OutcomeAbandoned marks a session closed because the player started a new game.
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Awaiting is the pending conversational step stored with a session.
type Awaiting int

const (
	AwaitNone Awaiting = iota
	AwaitContinueChoice
	AwaitSecondGuess
	AwaitHintChoice
)

func (a Awaiting) String() string {
	switch a {
	case AwaitNone:
		return "none"
	case AwaitContinueChoice:
		return "continue_choice"
	case AwaitSecondGuess:
		return "second_guess"
	case AwaitHintChoice:
		return "hint_choice"
	default:
		return fmt.Sprintf("Awaiting(%d)", int(a))
	}
}

// Session is one game of one player.
type Session struct {
	ID       int64                   `json:"id"`
	PlayerID int64                   `json:"playerId"`
	QuestID  int64                   `json:"questId"`
	Level    int                     `json:"level"`
	Closed   bool                    `json:"closed"`
	Outcome  Outcome                 `json:"outcome"`
	Hints    [HintKindCount]QuestRef `json:"hints"`
	// Missed is the first wrong guess on a quest covered by the double answer hint.
	Missed    SlotRef   `json:"missed"`
	Awaiting  Awaiting  `json:"awaiting"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HintAvailable reports whether the hint has not been spent yet.
func (s Session) HintAvailable(kind HintKind) bool {
	return kind.Valid() && !s.Hints[kind].Valid
}

// AnyHintLeft reports whether at least one hint is still available.
func (s Session) AnyHintLeft() bool {
	for _, kind := range HintKinds {
		if s.HintAvailable(kind) {
			return true
		}
	}
	return false
}

// HintOnCurrent reports whether the hint was spent on the current quest.
func (s Session) HintOnCurrent(kind HintKind) bool {
	return kind.Valid() && s.QuestID != 0 && s.Hints[kind].Is(s.QuestID)
}

// Settled is the awaiting state once no prompt is pending.
func (s Session) Settled() Awaiting {
	if s.Missed.Valid {
		return AwaitSecondGuess
	}
	return AwaitNone
}
