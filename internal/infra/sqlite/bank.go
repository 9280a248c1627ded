package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ladder-quiz-bot/internal/domain"
	"ladder-quiz-bot/internal/seed"
)

func (s *Store) Level(ctx context.Context, level int) (domain.DifficultyLevel, error) {
	lvl := domain.DifficultyLevel{Level: level}
	err := s.db.QueryRowContext(ctx, `SELECT cost FROM difficulty_levels WHERE level = ?`, level).Scan(&lvl.Cost)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DifficultyLevel{}, fmt.Errorf("level %d: %w", level, domain.ErrLevelNotFound)
	}
	if err != nil {
		return domain.DifficultyLevel{}, fmt.Errorf("query level %d: %w", level, err)
	}
	return lvl, nil
}

func (s *Store) Levels(ctx context.Context) ([]domain.DifficultyLevel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, cost FROM difficulty_levels ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("query levels: %w", err)
	}
	defer rows.Close()

	var levels []domain.DifficultyLevel
	for rows.Next() {
		var lvl domain.DifficultyLevel
		if err := rows.Scan(&lvl.Level, &lvl.Cost); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}

func (s *Store) QuestionsAt(ctx context.Context, level int) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, level, text FROM questions WHERE level = ? ORDER BY id`, level)
	if err != nil {
		return nil, fmt.Errorf("query questions at %d: %w", level, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Level, &q.Text); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) Question(ctx context.Context, id int64) (domain.Question, error) {
	q := domain.Question{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT level, text FROM questions WHERE id = ?`, id).Scan(&q.Level, &q.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, fmt.Errorf("question %d: %w", id, domain.ErrQuestionNotFound)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("query question %d: %w", id, err)
	}
	return q, nil
}

func (s *Store) Links(ctx context.Context, questionID int64) ([]domain.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.text, qa.correct
		FROM question_answers qa
		JOIN answers a ON a.id = qa.answer_id
		WHERE qa.question_id = ?
		ORDER BY a.id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("query links of %d: %w", questionID, err)
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		link := domain.Link{QuestionID: questionID}
		if err := rows.Scan(&link.Answer.ID, &link.Answer.Text, &link.Correct); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// ImportBank loads a YAML bank. Levels are upserted by number; a question already present at
// its level with the same text is left alone together with its answers. It returns the number
// of questions added.
func (s *Store) ImportBank(ctx context.Context, bank seed.Bank) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, lvl := range bank.Levels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO difficulty_levels (level, cost) VALUES (?, ?)
			ON CONFLICT (level) DO UPDATE SET cost = excluded.cost`, lvl.Level, lvl.Cost); err != nil {
			return 0, fmt.Errorf("upsert level %d: %w", lvl.Level, err)
		}
	}

	added := 0
	for _, q := range bank.Questions {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO questions (level, text) VALUES (?, ?)
			ON CONFLICT (level, text) DO NOTHING`, q.Level, q.Text)
		if err != nil {
			return 0, fmt.Errorf("insert question %q: %w", q.Text, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		questionID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		if err := insertAnswer(ctx, tx, questionID, q.Correct, true); err != nil {
			return 0, err
		}
		for _, text := range q.Incorrect {
			if err := insertAnswer(ctx, tx, questionID, text, false); err != nil {
				return 0, err
			}
		}
		added++
	}
	return added, tx.Commit()
}

func insertAnswer(ctx context.Context, tx *sql.Tx, questionID int64, text string, correct bool) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO answers (text) VALUES (?)`, text)
	if err != nil {
		return fmt.Errorf("insert answer %q: %w", text, err)
	}
	answerID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO question_answers (question_id, answer_id, correct) VALUES (?, ?, ?)`,
		questionID, answerID, correct); err != nil {
		return fmt.Errorf("link answer %q: %w", text, err)
	}
	return nil
}
