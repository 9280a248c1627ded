package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"ladder-quiz-bot/internal/domain"
)

func (s *Store) GetOrCreateQuest(ctx context.Context, quest domain.Quest) (domain.Quest, error) {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO quests (question_id, slot_a, slot_b, slot_c, slot_d) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (question_id, slot_a, slot_b, slot_c, slot_d) DO NOTHING`,
		quest.QuestionID, quest.Slots[0], quest.Slots[1], quest.Slots[2], quest.Slots[3]); err != nil {
		return domain.Quest{}, fmt.Errorf("insert quest: %w", err)
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM quests
		WHERE question_id = ? AND slot_a = ? AND slot_b = ? AND slot_c = ? AND slot_d = ?`,
		quest.QuestionID, quest.Slots[0], quest.Slots[1], quest.Slots[2], quest.Slots[3]).Scan(&quest.ID)
	if err != nil {
		return domain.Quest{}, fmt.Errorf("select quest: %w", err)
	}
	return quest, nil
}

func (s *Store) Quest(ctx context.Context, id int64) (domain.Quest, error) {
	quest := domain.Quest{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT question_id, slot_a, slot_b, slot_c, slot_d FROM quests WHERE id = ?`, id).
		Scan(&quest.QuestionID, &quest.Slots[0], &quest.Slots[1], &quest.Slots[2], &quest.Slots[3])
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quest{}, fmt.Errorf("quest %d: %w", id, domain.ErrQuestNotFound)
	}
	if err != nil {
		return domain.Quest{}, fmt.Errorf("query quest %d: %w", id, err)
	}
	return quest, nil
}

func (s *Store) GetOrCreatePlayer(ctx context.Context, id int64) (domain.Player, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		id, time.Now().Unix()); err != nil {
		return domain.Player{}, fmt.Errorf("insert player %d: %w", id, err)
	}
	player := domain.Player{ID: id}
	var created int64
	if err := s.db.QueryRowContext(ctx, `SELECT superuser, created_at FROM players WHERE id = ?`, id).
		Scan(&player.Superuser, &created); err != nil {
		return domain.Player{}, fmt.Errorf("select player %d: %w", id, err)
	}
	player.CreatedAt = time.Unix(created, 0).UTC()
	return player, nil
}

const sessionColumns = `id, player_id, quest_id, level, closed, outcome,
	hint_elimination, hint_double_answer, hint_friend_call, hint_hall_help,
	missed, awaiting, started_at, updated_at`

func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	row := toRow(session)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (player_id, quest_id, level, closed, outcome,
			hint_elimination, hint_double_answer, hint_friend_call, hint_hall_help,
			missed, awaiting, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.args()[1:]...)
	if isUniqueViolation(err) {
		return domain.Session{}, domain.ErrGameInProgress
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}
	if session.ID, err = res.LastInsertId(); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	row := toRow(session)
	args := append(row.args()[1:], session.ID)
	res, err := s.db.ExecContext(ctx, `
		UPDATE game_sessions SET player_id = ?, quest_id = ?, level = ?, closed = ?, outcome = ?,
			hint_elimination = ?, hint_double_answer = ?, hint_friend_call = ?, hint_hall_help = ?,
			missed = ?, awaiting = ?, started_at = ?, updated_at = ?
		WHERE id = ?`, args...)
	if isUniqueViolation(err) {
		return domain.ErrGameInProgress
	}
	if err != nil {
		return fmt.Errorf("update session %d: %w", session.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %d: %w", session.ID, domain.ErrSessionNotFound)
	}
	return nil
}

func (s *Store) Session(ctx context.Context, id int64) (domain.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session %d: %w", id, domain.ErrSessionNotFound)
	}
	return session, err
}

func (s *Store) OpenSession(ctx context.Context, playerID int64) (domain.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE player_id = ? AND closed = 0`, playerID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNoActiveGame
	}
	return session, err
}

type sessionRow struct {
	id, playerID int64
	questID      sql.NullInt64
	level        int
	closed       bool
	outcome      int
	hints        [domain.HintKindCount]sql.NullInt64
	missed       sql.NullInt64
	awaiting     int
	startedAt    int64
	updatedAt    int64
}

func toRow(s domain.Session) sessionRow {
	row := sessionRow{
		id:        s.ID,
		playerID:  s.PlayerID,
		questID:   sql.NullInt64{Int64: s.QuestID, Valid: s.QuestID != 0},
		level:     s.Level,
		closed:    s.Closed,
		outcome:   int(s.Outcome),
		missed:    sql.NullInt64{Int64: int64(s.Missed.Slot), Valid: s.Missed.Valid},
		awaiting:  int(s.Awaiting),
		startedAt: s.StartedAt.UnixNano(),
		updatedAt: s.UpdatedAt.UnixNano(),
	}
	for i, ref := range s.Hints {
		row.hints[i] = sql.NullInt64{Int64: ref.ID, Valid: ref.Valid}
	}
	return row
}

func (r sessionRow) args() []interface{} {
	return []interface{}{
		r.id, r.playerID, r.questID, r.level, r.closed, r.outcome,
		r.hints[0], r.hints[1], r.hints[2], r.hints[3],
		r.missed, r.awaiting, r.startedAt, r.updatedAt,
	}
}

func scanSession(row *sql.Row) (domain.Session, error) {
	var r sessionRow
	err := row.Scan(&r.id, &r.playerID, &r.questID, &r.level, &r.closed, &r.outcome,
		&r.hints[0], &r.hints[1], &r.hints[2], &r.hints[3],
		&r.missed, &r.awaiting, &r.startedAt, &r.updatedAt)
	if err != nil {
		return domain.Session{}, err
	}
	session := domain.Session{
		ID:        r.id,
		PlayerID:  r.playerID,
		QuestID:   r.questID.Int64,
		Level:     r.level,
		Closed:    r.closed,
		Outcome:   domain.Outcome(r.outcome),
		Missed:    domain.SlotRef{Slot: domain.Slot(r.missed.Int64), Valid: r.missed.Valid},
		Awaiting:  domain.Awaiting(r.awaiting),
		StartedAt: time.Unix(0, r.startedAt).UTC(),
		UpdatedAt: time.Unix(0, r.updatedAt).UTC(),
	}
	for i, h := range r.hints {
		session.Hints[i] = domain.QuestRef{ID: h.Int64, Valid: h.Valid}
	}
	return session, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
