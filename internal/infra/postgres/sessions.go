package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"ladder-quiz-bot/internal/domain"
)

const sessionColumns = `id, player_id, quest_id, level, closed, outcome,
	hint_elimination, hint_double_answer, hint_friend_call, hint_hall_help,
	missed, awaiting, started_at, updated_at`

func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	args := sessionArgs(session)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO game_sessions (player_id, quest_id, level, closed, outcome,
			hint_elimination, hint_double_answer, hint_friend_call, hint_hall_help,
			missed, awaiting, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`, args...).Scan(&session.ID)
	if isUniqueViolation(err) {
		return domain.Session{}, domain.ErrGameInProgress
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	args := append(sessionArgs(session), session.ID)
	tag, err := s.pool.Exec(ctx, `
		UPDATE game_sessions SET player_id=$1, quest_id=$2, level=$3, closed=$4, outcome=$5,
			hint_elimination=$6, hint_double_answer=$7, hint_friend_call=$8, hint_hall_help=$9,
			missed=$10, awaiting=$11, started_at=$12, updated_at=$13
		WHERE id=$14`, args...)
	if isUniqueViolation(err) {
		return domain.ErrGameInProgress
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %d: %w", session.ID, domain.ErrSessionNotFound)
	}
	return nil
}

func (s *Store) Session(ctx context.Context, id int64) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session %d: %w", id, domain.ErrSessionNotFound)
	}
	return session, err
}

func (s *Store) OpenSession(ctx context.Context, playerID int64) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE player_id=$1 AND NOT closed`, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrNoActiveGame
	}
	return session, err
}

// sessionArgs lists every column but id, in insert order.
func sessionArgs(s domain.Session) []interface{} {
	var questID *int64
	if s.QuestID != 0 {
		questID = &s.QuestID
	}
	var missed *int16
	if s.Missed.Valid {
		slot := int16(s.Missed.Slot)
		missed = &slot
	}
	args := []interface{}{s.PlayerID, questID, s.Level, s.Closed, int16(s.Outcome)}
	for _, ref := range s.Hints {
		if ref.Valid {
			id := ref.ID
			args = append(args, &id)
		} else {
			args = append(args, (*int64)(nil))
		}
	}
	return append(args, missed, int16(s.Awaiting), s.StartedAt, s.UpdatedAt)
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		session  domain.Session
		questID  *int64
		outcome  int16
		hints    [domain.HintKindCount]*int64
		missed   *int16
		awaiting int16
	)
	err := row.Scan(&session.ID, &session.PlayerID, &questID, &session.Level, &session.Closed, &outcome,
		&hints[0], &hints[1], &hints[2], &hints[3],
		&missed, &awaiting, &session.StartedAt, &session.UpdatedAt)
	if err != nil {
		return domain.Session{}, err
	}
	if questID != nil {
		session.QuestID = *questID
	}
	for i, id := range hints {
		if id != nil {
			session.Hints[i] = domain.RefQuest(*id)
		}
	}
	if missed != nil {
		session.Missed = domain.SlotRef{Slot: domain.Slot(*missed), Valid: true}
	}
	session.Outcome = domain.Outcome(outcome)
	session.Awaiting = domain.Awaiting(awaiting)
	session.StartedAt = session.StartedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	return session, nil
}
