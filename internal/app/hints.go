package app

import (
	"fmt"

	"ladder-quiz-bot/internal/domain"
)

// HintConfig tunes how reliable the simulated friend and audience are.
// The correct slot weight is Factor*(Ceiling-level), never below zero.
type HintConfig struct {
	Ceiling int
	Factor  int
}

func DefaultHintConfig() HintConfig {
	return HintConfig{Ceiling: 15, Factor: 2}
}

// HintResult is what a hint tells the player. Only the field matching Kind is meaningful.
type HintResult struct {
	Kind     domain.HintKind
	Excluded [2]domain.Slot
	Guess    domain.Slot
	Poll     [domain.SlotCount]float64
}

// HintEngine computes hints over a session's current quest.
type HintEngine struct {
	rnd Rand
	cfg HintConfig
}

func NewHintEngine(rnd Rand, cfg HintConfig) *HintEngine {
	return &HintEngine{rnd: rnd, cfg: cfg}
}

// Use spends the hint on the current quest and returns its output.
// A spent hint yields domain.ErrHintUnavailable and leaves the session untouched.
func (e *HintEngine) Use(session *domain.Session, card domain.Card, kind domain.HintKind) (HintResult, error) {
	if !kind.Valid() {
		return HintResult{}, domain.ErrHintNotRecognized
	}
	if session.Closed {
		return HintResult{}, domain.ErrSessionClosed
	}
	if session.QuestID == 0 || session.QuestID != card.Quest.ID {
		return HintResult{}, fmt.Errorf("card %d is not the current quest %d", card.Quest.ID, session.QuestID)
	}
	if !session.HintAvailable(kind) {
		return HintResult{}, fmt.Errorf("%s: %w", kind, domain.ErrHintUnavailable)
	}

	result := HintResult{Kind: kind}
	switch kind {
	case domain.HintElimination:
		result.Excluded = card.Excludes()
	case domain.HintFriendCall:
		result.Guess = e.friendGuess(*session, card)
	case domain.HintHallHelp:
		result.Poll = e.hallPoll(*session, card)
	}
	session.Hints[kind] = domain.RefQuest(card.Quest.ID)
	return result, nil
}

// Weights is the per-slot weight vector shared by the friend and the audience.
func (e *HintEngine) Weights(session domain.Session, card domain.Card) [domain.SlotCount]float64 {
	w := [domain.SlotCount]float64{1, 1, 1, 1}
	if session.HintOnCurrent(domain.HintElimination) {
		for _, slot := range card.Excludes() {
			w[slot] = 0
		}
	}
	reliability := e.cfg.Factor * (e.cfg.Ceiling - card.Level.Level)
	if reliability < 0 {
		reliability = 0
	}
	w[card.Correct] *= float64(reliability)
	return w
}

func (e *HintEngine) friendGuess(session domain.Session, card domain.Card) domain.Slot {
	if slot, ok := drawWeighted(e.rnd, e.Weights(session, card)); ok {
		return slot
	}
	visible := card.Visible(session.HintOnCurrent(domain.HintElimination), domain.SlotRef{})
	return visible[e.rnd.Intn(len(visible))]
}

func (e *HintEngine) hallPoll(session domain.Session, card domain.Card) [domain.SlotCount]float64 {
	w := e.Weights(session, card)
	total := 0.0
	for i := range w {
		w[i] *= e.rnd.Float64()
		total += w[i]
	}

	var poll [domain.SlotCount]float64
	if total <= 0 {
		visible := card.Visible(session.HintOnCurrent(domain.HintElimination), domain.SlotRef{})
		for _, slot := range visible {
			poll[slot] = 100 / float64(len(visible))
		}
		return poll
	}
	for i := range w {
		poll[i] = 100 * w[i] / total
	}
	return poll
}

// drawWeighted picks a slot with probability proportional to its weight.
// Negative weights count as zero; ok is false when nothing has positive weight.
func drawWeighted(rnd Rand, weights [domain.SlotCount]float64) (domain.Slot, bool) {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0, false
	}

	u := rnd.Float64() * total
	last := domain.Slot(-1)
	cumulative := 0.0
	for _, slot := range domain.Slots {
		if weights[slot] <= 0 {
			continue
		}
		cumulative += weights[slot]
		last = slot
		if u < cumulative {
			return slot, true
		}
	}
	return last, true
}
