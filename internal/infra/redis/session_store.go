package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ladder-quiz-bot/internal/domain"
)

// SessionStore keeps game sessions in Redis so any bot instance can serve a turn.
// Layout:
//
//	quiz:session:seq            INCR counter for session IDs
//	quiz:session:{id}           session JSON
//	quiz:player:{playerID}:open ID of the player's open session
//
// The open pointer is changed under WATCH, which keeps one open session per player.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore returns a store whose keys expire after ttl of inactivity; zero keeps them.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

const maxTxRetries = 5

func (s *SessionStore) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	id, err := s.client.Incr(ctx, "quiz:session:seq").Result()
	if err != nil {
		return domain.Session{}, fmt.Errorf("next session id: %w", err)
	}
	session.ID = id
	if err := s.store(ctx, session, true); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *SessionStore) SaveSession(ctx context.Context, session domain.Session) error {
	return s.store(ctx, session, false)
}

func (s *SessionStore) store(ctx context.Context, session domain.Session, create bool) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	key := sessionKey(session.ID)
	openKey := openKey(session.PlayerID)

	txf := func(tx *redis.Tx) error {
		if !create {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("session %d: %w", session.ID, domain.ErrSessionNotFound)
			}
		}
		openID, err := tx.Get(ctx, openKey).Int64()
		hasOpen := err == nil
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if hasOpen && openID != session.ID && !session.Closed {
			// A pointer at an expired session does not block a new game.
			n, err := tx.Exists(ctx, sessionKey(openID)).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.ErrGameInProgress
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			switch {
			case !session.Closed:
				pipe.Set(ctx, openKey, session.ID, s.ttl)
			case hasOpen && openID == session.ID:
				pipe.Del(ctx, openKey)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key, openKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrGameInProgress) && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("store session %d: %w", session.ID, err)
		}
		return err
	}
	return fmt.Errorf("store session %d: %w", session.ID, redis.TxFailedErr)
}

func (s *SessionStore) Session(ctx context.Context, id int64) (domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, fmt.Errorf("session %d: %w", id, domain.ErrSessionNotFound)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session %d: %w", id, err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %d: %w", id, err)
	}
	return session, nil
}

func (s *SessionStore) OpenSession(ctx context.Context, playerID int64) (domain.Session, error) {
	id, err := s.client.Get(ctx, openKey(playerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrNoActiveGame
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load open session of %d: %w", playerID, err)
	}
	session, err := s.Session(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, domain.ErrNoActiveGame
	}
	if err != nil {
		return domain.Session{}, err
	}
	if session.Closed {
		return domain.Session{}, domain.ErrNoActiveGame
	}
	return session, nil
}

func sessionKey(id int64) string {
	return "quiz:session:" + strconv.FormatInt(id, 10)
}

func openKey(playerID int64) string {
	return "quiz:player:" + strconv.FormatInt(playerID, 10) + ":open"
}
