// Package seed reads question banks from YAML.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ladder-quiz-bot/internal/domain"
)

//go:embed bank.yaml
var defaultBank []byte

// Bank is the YAML layout of a question bank.
type Bank struct {
	Levels    []Level    `yaml:"levels"`
	Questions []Question `yaml:"questions"`
}

// Level is a ladder rung with its cost.
type Level struct {
	Level int   `yaml:"level"`
	Cost  int64 `yaml:"cost"`
}

// Question carries its answers inline. Questions with fewer than three incorrect answers are
// kept in the bank but never assembled into a quest.
type Question struct {
	Level     int      `yaml:"level"`
	Text      string   `yaml:"text"`
	Correct   string   `yaml:"correct"`
	Incorrect []string `yaml:"incorrect"`
}

// Default returns the embedded sample bank.
func Default() Bank {
	bank, err := Parse(defaultBank)
	if err != nil {
		panic(fmt.Sprintf("embedded bank: %v", err))
	}
	return bank
}

// Load reads a bank from path.
func Load(path string) (Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bank{}, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML bank.
func Parse(data []byte) (Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return Bank{}, fmt.Errorf("decode bank: %w", err)
	}
	if err := bank.Validate(); err != nil {
		return Bank{}, err
	}
	return bank, nil
}

// Validate checks that levels run 1..N and every question points at a known level.
func (b Bank) Validate() error {
	for i, lvl := range b.Levels {
		if lvl.Level != i+1 {
			return fmt.Errorf("%w: level #%d is %d, want %d", domain.ErrBankInvalid, i, lvl.Level, i+1)
		}
	}
	for i, q := range b.Questions {
		if q.Level < 1 || q.Level > len(b.Levels) {
			return fmt.Errorf("%w: question #%d has unknown level %d", domain.ErrBankInvalid, i, q.Level)
		}
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question #%d has no text", domain.ErrBankInvalid, i)
		}
		if strings.TrimSpace(q.Correct) == "" {
			return fmt.Errorf("%w: question #%d has no correct answer", domain.ErrBankInvalid, i)
		}
	}
	return nil
}

// DifficultyLevels converts the YAML levels.
func (b Bank) DifficultyLevels() []domain.DifficultyLevel {
	levels := make([]domain.DifficultyLevel, 0, len(b.Levels))
	for _, lvl := range b.Levels {
		levels = append(levels, domain.DifficultyLevel{Level: lvl.Level, Cost: lvl.Cost})
	}
	return levels
}
