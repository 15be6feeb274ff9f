package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MatMasIt/birthdaybot/internal/cache"
)

type State int

const (
	StateIdle State = iota
	StateAwaitingName
	StateAwaitingSurname
	StateAwaitingDate
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingName:
		return "awaiting_name"
	case StateAwaitingSurname:
		return "awaiting_surname"
	case StateAwaitingDate:
		return "awaiting_date"
	default:
		return "unknown"
	}
}

// Flow tells which of the two flows sharing the awaiting states is active.
type Flow int

const (
	FlowNone Flow = iota
	FlowAdd
	FlowEdit
)

// Session is the per-user conversation state. BirthdayID is the record
// selected with /view_bd_<id>; the edit and delete actions operate on it.
type Session struct {
	State      State  `json:"state"`
	Flow       Flow   `json:"flow"`
	BirthdayID *int64 `json:"birthday_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Surname    string `json:"surname,omitempty"`
	DateText   string `json:"datetime,omitempty"`
}

// Reset returns the session to idle and forgets every pending field,
// including the selected record.
func (s *Session) Reset() { *s = Session{} }

func (s Session) isZero() bool {
	return s.State == StateIdle && s.Flow == FlowNone && s.BirthdayID == nil &&
		s.Name == "" && s.Surname == "" && s.DateText == ""
}

// SessionStore keeps sessions in a cache under "session:<user id>".
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

func sessionKey(userID int64) string {
	return "session:" + strconv.FormatInt(userID, 10)
}

// Load returns the user's session, or an idle one if none is stored.
func (s *SessionStore) Load(ctx context.Context, userID int64) (Session, error) {
	raw, err := s.cache.Get(ctx, sessionKey(userID))
	if errors.Is(err, cache.ErrMiss) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session %d: %w", userID, err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// A session we cannot read is treated as idle.
		return Session{}, nil
	}
	return sess, nil
}

// Save stores sess; an idle session with nothing pending is deleted instead.
func (s *SessionStore) Save(ctx context.Context, userID int64, sess Session) error {
	if sess.isZero() {
		if _, err := s.cache.Del(ctx, sessionKey(userID)); err != nil {
			return fmt.Errorf("clear session %d: %w", userID, err)
		}
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %d: %w", userID, err)
	}
	if err := s.cache.Set(ctx, sessionKey(userID), string(data), s.ttl); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}
