package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ladder-quiz-bot/internal/domain"
	"ladder-quiz-bot/internal/seed"
)

// Store implements app.Bank, app.QuestRepository, app.SessionRepository and
// app.PlayerRepository on Postgres. The schema comes from the migrations package.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Level(ctx context.Context, level int) (domain.DifficultyLevel, error) {
	lvl := domain.DifficultyLevel{Level: level}
	err := s.pool.QueryRow(ctx, `SELECT cost FROM difficulty_levels WHERE level=$1`, level).Scan(&lvl.Cost)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DifficultyLevel{}, fmt.Errorf("level %d: %w", level, domain.ErrLevelNotFound)
	}
	if err != nil {
		return domain.DifficultyLevel{}, fmt.Errorf("load level: %w", err)
	}
	return lvl, nil
}

func (s *Store) Levels(ctx context.Context) ([]domain.DifficultyLevel, error) {
	rows, err := s.pool.Query(ctx, `SELECT level, cost FROM difficulty_levels ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
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
	rows, err := s.pool.Query(ctx, `SELECT id, level, text FROM questions WHERE level=$1 ORDER BY id`, level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
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
	err := s.pool.QueryRow(ctx, `SELECT level, text FROM questions WHERE id=$1`, id).Scan(&q.Level, &q.Text)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, fmt.Errorf("question %d: %w", id, domain.ErrQuestionNotFound)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (s *Store) Links(ctx context.Context, questionID int64) ([]domain.Link, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.text, qa.correct
		FROM question_answers qa JOIN answers a ON a.id = qa.answer_id
		WHERE qa.question_id=$1
		ORDER BY a.id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
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

// ImportBank loads a YAML bank in one transaction. Levels are upserted, questions already
// present at their level with the same text are skipped. It returns the number of new questions.
func (s *Store) ImportBank(ctx context.Context, bank seed.Bank) (int, error) {
	added := 0
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, lvl := range bank.Levels {
			if _, err := tx.Exec(ctx, `
				INSERT INTO difficulty_levels (level, cost) VALUES ($1, $2)
				ON CONFLICT (level) DO UPDATE SET cost = EXCLUDED.cost`, lvl.Level, lvl.Cost); err != nil {
				return fmt.Errorf("upsert level %d: %w", lvl.Level, err)
			}
		}
		for _, q := range bank.Questions {
			var questionID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO questions (level, text) VALUES ($1, $2)
				ON CONFLICT (level, text) DO NOTHING
				RETURNING id`, q.Level, q.Text).Scan(&questionID)
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert question %q: %w", q.Text, err)
			}
			if err := linkAnswer(ctx, tx, questionID, q.Correct, true); err != nil {
				return err
			}
			for _, text := range q.Incorrect {
				if err := linkAnswer(ctx, tx, questionID, text, false); err != nil {
					return err
				}
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func linkAnswer(ctx context.Context, tx pgx.Tx, questionID int64, text string, correct bool) error {
	_, err := tx.Exec(ctx, `
		WITH a AS (INSERT INTO answers (text) VALUES ($2) RETURNING id)
		INSERT INTO question_answers (question_id, answer_id, correct) SELECT $1, id, $3 FROM a`,
		questionID, text, correct)
	if err != nil {
		return fmt.Errorf("insert answer %q: %w", text, err)
	}
	return nil
}

func (s *Store) GetOrCreateQuest(ctx context.Context, quest domain.Quest) (domain.Quest, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quests (question_id, slot_a, slot_b, slot_c, slot_d) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (question_id, slot_a, slot_b, slot_c, slot_d) DO UPDATE SET question_id = EXCLUDED.question_id
		RETURNING id`,
		quest.QuestionID, quest.Slots[0], quest.Slots[1], quest.Slots[2], quest.Slots[3]).Scan(&quest.ID)
	if err != nil {
		return domain.Quest{}, fmt.Errorf("upsert quest: %w", err)
	}
	return quest, nil
}

func (s *Store) Quest(ctx context.Context, id int64) (domain.Quest, error) {
	quest := domain.Quest{ID: id}
	err := s.pool.QueryRow(ctx, `SELECT question_id, slot_a, slot_b, slot_c, slot_d FROM quests WHERE id=$1`, id).
		Scan(&quest.QuestionID, &quest.Slots[0], &quest.Slots[1], &quest.Slots[2], &quest.Slots[3])
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quest{}, fmt.Errorf("quest %d: %w", id, domain.ErrQuestNotFound)
	}
	if err != nil {
		return domain.Quest{}, fmt.Errorf("load quest: %w", err)
	}
	return quest, nil
}

func (s *Store) GetOrCreatePlayer(ctx context.Context, id int64) (domain.Player, error) {
	player := domain.Player{ID: id}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO players (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING superuser, created_at`, id).Scan(&player.Superuser, &player.CreatedAt)
	if err != nil {
		return domain.Player{}, fmt.Errorf("upsert player: %w", err)
	}
	return player, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
