package domain

import "time"

// DifficultyLevel is one rung of the ladder.
type DifficultyLevel struct {
	Level int   `json:"level"`
	Cost  int64 `json:"cost"`
}

// Question is a bank question bound to a difficulty level.
type Question struct {
	ID    int64  `json:"id"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Answer is a bank answer. Texts are not unique across the bank.
type Answer struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Link ties an answer to a question with its correctness flag.
type Link struct {
	QuestionID int64  `json:"questionId"`
	Answer     Answer `json:"answer"`
	Correct    bool   `json:"correct"`
}

// Player is a registered user of the bot.
type Player struct {
	ID        int64
	Superuser bool
	CreatedAt time.Time
}
