// Package sqlite keeps the question bank and game state in a single SQLite file.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements app.Bank, app.QuestRepository, app.SessionRepository and
// app.PlayerRepository on top of SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and creates missing tables.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS difficulty_levels (
		level INTEGER PRIMARY KEY,
		cost INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		level INTEGER NOT NULL REFERENCES difficulty_levels(level),
		text TEXT NOT NULL,
		UNIQUE (level, text)
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS question_answers (
		question_id INTEGER NOT NULL REFERENCES questions(id),
		answer_id INTEGER NOT NULL REFERENCES answers(id),
		correct BOOLEAN NOT NULL,
		PRIMARY KEY (question_id, answer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS quests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL REFERENCES questions(id),
		slot_a INTEGER NOT NULL REFERENCES answers(id),
		slot_b INTEGER NOT NULL REFERENCES answers(id),
		slot_c INTEGER NOT NULL REFERENCES answers(id),
		slot_d INTEGER NOT NULL REFERENCES answers(id),
		UNIQUE (question_id, slot_a, slot_b, slot_c, slot_d)
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY,
		superuser BOOLEAN NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id INTEGER NOT NULL REFERENCES players(id),
		quest_id INTEGER REFERENCES quests(id),
		level INTEGER NOT NULL,
		closed BOOLEAN NOT NULL DEFAULT 0,
		outcome INTEGER NOT NULL DEFAULT 0,
		hint_elimination INTEGER REFERENCES quests(id),
		hint_double_answer INTEGER REFERENCES quests(id),
		hint_friend_call INTEGER REFERENCES quests(id),
		hint_hall_help INTEGER REFERENCES quests(id),
		missed INTEGER,
		awaiting INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS game_sessions_open_player
		ON game_sessions (player_id) WHERE closed = 0`,
	`CREATE INDEX IF NOT EXISTS questions_level ON questions (level)`,
}

func createTables(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
