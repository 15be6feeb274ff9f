// Package reminder runs the daily loop that notifies users about upcoming
// birthdays.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/MatMasIt/birthdaybot/internal/cache"
	"github.com/MatMasIt/birthdaybot/internal/domain"
	"github.com/MatMasIt/birthdaybot/internal/notify"
)

type Repository interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListUsersWithAnyCadence(ctx context.Context) ([]domain.User, error)
	ListBirthdays(ctx context.Context, ownerID int64) ([]domain.Birthday, error)
}

// Sender delivers one message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, markdown bool) error
}

type Config struct {
	MessageLimit int
	SendTimeout  time.Duration
	StrictDaily  bool
	Location     *time.Location
}

// ledgerTTL outlives the day a ledger key refers to.
const ledgerTTL = 48 * time.Hour

type Scheduler struct {
	repo   Repository
	sender Sender
	ledger cache.Cache
	log    *slog.Logger
	cfg    Config
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time

	lastRun atomic.Int64 // unix nanoseconds, 0 before the first run
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

// WithAfter replaces time.After for the wait until midnight.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) { s.after = after }
}

func New(repo Repository, sender Sender, ledger cache.Cache, log *slog.Logger, cfg Config, opts ...Option) *Scheduler {
	if cfg.MessageLimit <= 0 {
		cfg.MessageLimit = 4096
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Scheduler{repo: repo, sender: sender, ledger: ledger, log: log, cfg: cfg, now: time.Now, after: time.After}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastRun reports when the last iteration finished; zero if none has.
func (s *Scheduler) LastRun() time.Time {
	n := s.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).In(s.cfg.Location)
}

// Run performs an iteration right away and then one after every local
// midnight until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	var lastDay time.Time
	for {
		today := domain.DateOnly(s.now().In(s.cfg.Location))
		if !today.Equal(lastDay) {
			rep := s.RunOnce(ctx)
			s.log.Info("reminder iteration done",
				"day", today.Format("2006-01-02"), "users", rep.Users,
				"dispatched", rep.Dispatched, "failures", rep.Failures)
			lastDay = today
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(untilMidnight(s.now().In(s.cfg.Location))):
		}
	}
}

// untilMidnight is the wait from now to the next 00:00:00 in now's location.
func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Sub(now)
}

// Report summarizes one iteration.
type Report struct {
	Users      int
	Dispatched int // users that received at least one message
	Failures   int // users skipped or with failed messages
}

// RunOnce scans every user once for the current day.
func (s *Scheduler) RunOnce(ctx context.Context) Report {
	defer func() { s.lastRun.Store(s.now().UnixNano()) }()

	today := s.now().In(s.cfg.Location)
	var rep Report

	// The daily fallback reaches every user unless StrictDaily is set.
	list := s.repo.ListUsers
	if s.cfg.StrictDaily {
		list = s.repo.ListUsersWithAnyCadence
	}
	users, err := list(ctx)
	if err != nil {
		s.log.Error("list users for reminders", "err", err)
		rep.Failures++
		return rep
	}
	rep.Users = len(users)

	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		sent, err := s.remind(ctx, u, today)
		if sent {
			rep.Dispatched++
		}
		if err != nil {
			rep.Failures++
			s.log.Warn("reminder skipped", "user_id", u.ID, "err", err)
		}
	}
	return rep
}

func ledgerKey(userID int64, today time.Time) string {
	return "reminder:" + strconv.FormatInt(userID, 10) + ":" + today.Format("2006-01-02")
}

var errPartialDispatch = errors.New("some messages were not delivered")

func (s *Scheduler) remind(ctx context.Context, u domain.User, today time.Time) (bool, error) {
	c, ok := SelectCadence(u, today, s.cfg.StrictDaily)
	if !ok {
		return false, nil
	}

	key := ledgerKey(u.ID, today)
	if _, err := s.ledger.Get(ctx, key); err == nil {
		return false, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("reminder ledger unavailable", "user_id", u.ID, "err", err)
	}

	list, err := s.repo.ListBirthdays(ctx, u.ID)
	if err != nil {
		return false, fmt.Errorf("list birthdays: %w", err)
	}

	cands := Candidates(c, list, today)
	lines := make([]string, 0, len(cands))
	for _, b := range cands {
		lines = append(lines, Line(b, today))
	}
	chunks := notify.Batch(lines, s.cfg.MessageLimit)
	if len(chunks) == 0 {
		return false, nil
	}

	failed := 0
	if !s.send(ctx, u.ID, Header(c), true, c) {
		failed++
	}
	for _, chunk := range chunks {
		if !s.send(ctx, u.ID, chunk, false, c) {
			failed++
		}
	}
	if failed == len(chunks)+1 {
		return false, errPartialDispatch
	}
	if failed > 0 {
		return true, errPartialDispatch
	}

	if err := s.ledger.Set(ctx, key, c.String(), ledgerTTL); err != nil {
		s.log.Warn("record reminder in ledger", "user_id", u.ID, "err", err)
	}
	return true, nil
}

// send delivers one message within SendTimeout and reports success.
func (s *Scheduler) send(ctx context.Context, chatID int64, text string, markdown bool, c domain.Cadence) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	if err := s.sender.Send(ctx, chatID, text, markdown); err != nil {
		s.log.Warn("send reminder", "user_id", chatID, "cadence", c.String(), "err", err)
		return false
	}
	return true
}
