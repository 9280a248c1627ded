package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SlotCount is the number of answer positions in a quest.
const SlotCount = 4

// Slot is an answer position, A..D.
type Slot int

const (
	SlotA Slot = iota
	SlotB
	SlotC
	SlotD
)

// Slots lists every slot in display order.
var Slots = [SlotCount]Slot{SlotA, SlotB, SlotC, SlotD}

func (s Slot) String() string {
	if s < SlotA || s > SlotD {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return string(rune('A' + s))
}

// Valid reports whether s names one of the four slots.
func (s Slot) Valid() bool {
	return s >= SlotA && s <= SlotD
}

// ParseSlot accepts a single letter a-d, case-insensitive, surrounding spaces ignored.
func ParseSlot(raw string) (Slot, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if len(v) != 1 || v[0] < 'A' || v[0] > 'D' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, raw)
	}
	return Slot(v[0] - 'A'), nil
}

// Quest is an assembled quiz item. Slots hold answer IDs and never change once stored.
type Quest struct {
	ID         int64            `json:"id"`
	QuestionID int64            `json:"questionId"`
	Slots      [SlotCount]int64 `json:"slots"`
}

// SameAssembly reports whether two quests are built from the same question with the same slot contents.
func (q Quest) SameAssembly(other Quest) bool {
	return q.QuestionID == other.QuestionID && q.Slots == other.Slots
}

// Card is the display view of a quest.
type Card struct {
	Quest    Quest
	Question Question
	Level    DifficultyLevel
	Answers  [SlotCount]Answer
	Correct  Slot
}

// CorrectSlot returns the slot holding the answer linked as correct to the quest's question.
// Matching is by answer identity.
func CorrectSlot(quest Quest, links []Link) (Slot, error) {
	found := Slot(-1)
	for _, link := range links {
		if link.QuestionID != quest.QuestionID || !link.Correct {
			continue
		}
		for _, slot := range Slots {
			if quest.Slots[slot] != link.Answer.ID {
				continue
			}
			if found.Valid() && found != slot {
				return 0, fmt.Errorf("%w: quest %d has several correct slots", ErrBankInvalid, quest.ID)
			}
			found = slot
		}
	}
	if !found.Valid() {
		return 0, fmt.Errorf("%w: quest %d has no correct slot", ErrBankInvalid, quest.ID)
	}
	return found, nil
}

// CorrectSlot returns the slot of the correct answer.
func (c Card) CorrectSlot() Slot {
	return c.Correct
}

// Excludes returns the two slots hidden by the elimination hint. Slots are ranked by answer text,
// ties broken by slot order; the result is the two ranks following the correct one, wrapping around.
func (c Card) Excludes() [2]Slot {
	order := Slots
	sort.SliceStable(order[:], func(i, j int) bool {
		return c.Answers[order[i]].Text < c.Answers[order[j]].Text
	})
	rank := 0
	for i, slot := range order {
		if slot == c.Correct {
			rank = i
			break
		}
	}
	return [2]Slot{order[(rank+1)%SlotCount], order[(rank+2)%SlotCount]}
}

// Visible returns the slots a player may still pick, in display order.
func (c Card) Visible(eliminated bool, missed SlotRef) []Slot {
	hidden := [SlotCount]bool{}
	if eliminated {
		for _, slot := range c.Excludes() {
			hidden[slot] = true
		}
	}
	if missed.Valid {
		hidden[missed.Slot] = true
	}
	visible := make([]Slot, 0, SlotCount)
	for _, slot := range Slots {
		if !hidden[slot] {
			visible = append(visible, slot)
		}
	}
	return visible
}
