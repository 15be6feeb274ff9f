// Package conversation drives the chat dialogue: the main menu actions and
// the add/edit state machine over a per-user Session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MatMasIt/birthdaybot/internal/domain"
	"github.com/MatMasIt/birthdaybot/internal/notify"
)

// Repository is the storage the engine needs.
type Repository interface {
	UpsertUser(ctx context.Context, id domain.Identity) (bool, domain.User, error)
	SetCadence(ctx context.Context, id int64, c domain.Cadence, enabled bool) error
	AddBirthday(ctx context.Context, ownerID int64, firstName, lastName string, birth time.Time) (domain.Birthday, error)
	GetBirthday(ctx context.Context, id int64) (domain.Birthday, error)
	ListBirthdays(ctx context.Context, ownerID int64) ([]domain.Birthday, error)
	CountBirthdays(ctx context.Context, ownerID int64) (int, error)
	UpdateBirthdayField(ctx context.Context, id int64, upd domain.FieldUpdate) error
	DeleteBirthday(ctx context.Context, id int64) error
	CountMatchingName(ctx context.Context, ownerID int64, firstName, lastName string) (int, error)
}

const (
	intro = "This bot will help you keep track of your friends' birthdays and remind you when they are coming up."
	about = "This bot keeps your friends' birthdays and reminds you daily, weekly or monthly.\n" +
		"Pick the reminders you want from *" + LabelReminders + "*."

	msgFailure   = "⚠️ Something went wrong, please try again later"
	msgNotFound  = "⚠️ Birthday not found"
	msgBadDate   = "Wrong date format, please try again using DD/MM/YYYY"
	msgFutureDay = "The date you entered is in the future, please try again"
)

var (
	errMalformedDate = errors.New("malformed date")
	errFutureDate    = errors.New("date in the future")
)

type Engine struct {
	repo      Repository
	sessions  *SessionStore
	log       *slog.Logger
	now       func() time.Time
	loc       *time.Location
	listLimit int
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLocation sets the location dates typed by users are read in.
func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }

// WithListLimit sets the chunk size of the birthday list.
func WithListLimit(n int) Option { return func(e *Engine) { e.listLimit = n } }

func New(repo Repository, sessions *SessionStore, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:      repo,
		sessions:  sessions,
		log:       log,
		now:       time.Now,
		loc:       time.UTC,
		listLimit: 3000,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one event from the user and returns the replies to send.
// Callers must not run Handle concurrently for the same user; the session is
// read and written without locking. A non-nil error means a storage failure:
// the session was reset and the replies carry a generic failure message.
func (e *Engine) Handle(ctx context.Context, id domain.Identity, ev Event) ([]Reply, error) {
	isNew, user, err := e.repo.UpsertUser(ctx, id)
	if err != nil {
		_ = e.sessions.Save(ctx, id.ID, Session{})
		return failure(), err
	}

	sess, err := e.sessions.Load(ctx, id.ID)
	if err != nil {
		return failure(), err
	}

	t := &turn{Engine: e, ctx: ctx, user: user, isNew: isNew, sess: &sess, today: e.now().In(e.loc)}
	replies, err := t.dispatch(ev)
	if err != nil {
		e.log.Error("conversation turn failed", "user_id", id.ID, "state", sess.State.String(), "err", err)
		sess.Reset()
		replies = failure()
	}

	if serr := e.sessions.Save(ctx, id.ID, sess); serr != nil {
		return failure(), errors.Join(err, serr)
	}
	return replies, err
}

func failure() []Reply {
	return []Reply{{Text: msgFailure, Keyboard: homeKeyboard, OneTime: true}}
}

// turn holds everything one Handle call works on.
type turn struct {
	*Engine
	ctx   context.Context
	user  domain.User
	isNew bool
	sess  *Session
	today time.Time
}

func (t *turn) dispatch(ev Event) ([]Reply, error) {
	switch ev.Intent {
	case IntentCancel:
		t.sess.Reset()
		return t.mainMenu("Operation cancelled")
	case IntentStart:
		t.sess.Reset()
		return t.welcome()
	}

	if t.sess.State != StateIdle {
		return t.step(ev.Text)
	}

	switch ev.Intent {
	case IntentHome:
		return t.welcome()
	case IntentAddBirthday:
		*t.sess = Session{State: StateAwaitingName, Flow: FlowAdd, BirthdayID: t.sess.BirthdayID}
		return prompt("Type the first name of the person you want to add", "First name"), nil
	case IntentListBirthdays:
		return t.listBirthdays()
	case IntentView:
		return t.view(ev.BirthdayID)
	case IntentEdit:
		return t.withSelected(func(domain.Birthday) ([]Reply, error) {
			return []Reply{{Text: "Which one to edit?", Keyboard: editKeyboard, OneTime: true, Placeholder: "Action"}}, nil
		})
	case IntentEditDate:
		return t.enterEdit(StateAwaitingDate, "Enter the new date of birth in the format DD/MM/YYYY", "DD/MM/YYYY")
	case IntentEditFirstName:
		return t.enterEdit(StateAwaitingName, "Enter the new first name", "First name")
	case IntentEditLastName:
		return t.enterEdit(StateAwaitingSurname, "Enter the new last name", "Last name")
	case IntentDelete:
		return t.withSelected(func(b domain.Birthday) ([]Reply, error) {
			return []Reply{{
				Text:     "Are you sure you want to delete the entry for " + bold(plainName(b)) + "?",
				Markdown: true, Keyboard: deleteKeyboard, OneTime: true, Placeholder: "Action",
			}}, nil
		})
	case IntentDeleteConfirm:
		return t.withSelected(func(b domain.Birthday) ([]Reply, error) {
			if err := t.repo.DeleteBirthday(t.ctx, b.ID); err != nil {
				return nil, err
			}
			t.sess.Reset()
			return t.mainMenu("✅ Birthday deleted")
		})
	case IntentReminders:
		return t.reminders(), nil
	case IntentToggleCadence:
		if err := t.repo.SetCadence(t.ctx, t.user.ID, ev.Cadence, ev.Enable); err != nil {
			return nil, err
		}
		switch ev.Cadence {
		case domain.CadenceDaily:
			t.user.Daily = ev.Enable
		case domain.CadenceWeekly:
			t.user.Weekly = ev.Enable
		case domain.CadenceMonthly:
			t.user.Monthly = ev.Enable
		}
		return t.reminders(), nil
	case IntentAbout:
		return []Reply{{Text: about, Markdown: true}}, nil
	default:
		return t.mainMenu("Choose an action")
	}
}

// step feeds text to the flow waiting for input.
func (t *turn) step(text string) ([]Reply, error) {
	text = strings.TrimSpace(text)
	if t.sess.Flow == FlowEdit {
		return t.stepEdit(text)
	}

	switch t.sess.State {
	case StateAwaitingName:
		if text == "" {
			return prompt("Type the first name of the person you want to add", "First name"), nil
		}
		t.sess.Name = text
		t.sess.State = StateAwaitingSurname
		return []Reply{{
			Text:     "Add the last name of " + bold(text),
			Markdown: true, Keyboard: cancelKeyboard, OneTime: true, Placeholder: "Last name",
		}}, nil

	case StateAwaitingSurname:
		if text == "" {
			return prompt("Add the last name of "+bold(t.sess.Name), "Last name"), nil
		}
		n, err := t.repo.CountMatchingName(t.ctx, t.user.ID, t.sess.Name, text)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			who := bold(t.sess.Name + " " + text)
			t.sess.Name, t.sess.Surname = "", ""
			t.sess.State = StateAwaitingName
			return prompt(who+" is already in your database, set the name again or cancel the operation", "First name"), nil
		}
		t.sess.Surname = text
		t.sess.State = StateAwaitingDate
		return prompt("Add the date of birth of "+bold(t.sess.Name+" "+text)+" in the day/month/year format", "DD/MM/YYYY"), nil

	case StateAwaitingDate:
		t.sess.DateText = text
		birth, err := t.parseBirth(text)
		if err != nil {
			return dateProblem(err), nil
		}
		b, err := t.repo.AddBirthday(t.ctx, t.user.ID, t.sess.Name, t.sess.Surname, birth)
		if err != nil {
			return nil, err
		}
		t.sess.Reset()
		saved := Reply{
			Text: "*Information saved*\n\nName: " + escapeMD(b.FirstName) +
				"\nLast name: " + escapeMD(b.LastName) +
				"\nDate of birth: " + b.Birth.Format(displayLayout),
			Markdown: true,
		}
		menu, err := t.mainMenu("Welcome back!")
		if err != nil {
			return nil, err
		}
		return append([]Reply{saved}, menu...), nil
	}

	return nil, fmt.Errorf("add flow in unexpected state %s", t.sess.State)
}

func (t *turn) stepEdit(text string) ([]Reply, error) {
	b, ok, err := t.selected()
	if err != nil {
		return nil, err
	}
	if !ok {
		t.sess.Reset()
		return t.notFound()
	}

	var (
		upd  domain.FieldUpdate
		done string
	)
	switch t.sess.State {
	case StateAwaitingDate:
		birth, err := t.parseBirth(text)
		if err != nil {
			return dateProblem(err), nil
		}
		upd = domain.FieldUpdate{Field: domain.FieldBirth, Date: birth}
		b.Birth = birth
		done = "✅ Date of birth updated"
	case StateAwaitingName:
		if text == "" {
			return prompt("Enter the new first name", "First name"), nil
		}
		upd = domain.FieldUpdate{Field: domain.FieldFirstName, Text: text}
		b.FirstName = text
		done = "✅ First name updated"
	case StateAwaitingSurname:
		if text == "" {
			return prompt("Enter the new last name", "Last name"), nil
		}
		upd = domain.FieldUpdate{Field: domain.FieldLastName, Text: text}
		b.LastName = text
		done = "✅ Last name updated"
	default:
		return nil, fmt.Errorf("edit flow in unexpected state %s", t.sess.State)
	}

	if err := t.repo.UpdateBirthdayField(t.ctx, b.ID, upd); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			t.sess.Reset()
			return t.notFound()
		}
		return nil, err
	}

	t.sess.Reset()
	id := b.ID
	t.sess.BirthdayID = &id
	return []Reply{
		{Text: done},
		{Text: describe(b, t.today), Markdown: true, Keyboard: recordKeyboard, OneTime: true},
	}, nil
}

// parseBirth reads a DD/MM/YYYY date and rejects dates after now.
func (t *turn) parseBirth(text string) (time.Time, error) {
	birth, err := time.ParseInLocation(DateLayout, strings.TrimSpace(text), t.loc)
	if err != nil {
		return time.Time{}, errMalformedDate
	}
	if birth.After(t.now()) {
		return time.Time{}, errFutureDate
	}
	return birth, nil
}

func dateProblem(err error) []Reply {
	msg := msgBadDate
	if errors.Is(err, errFutureDate) {
		msg = msgFutureDay
	}
	return prompt(msg, "DD/MM/YYYY")
}

func prompt(text, placeholder string) []Reply {
	return []Reply{{Text: text, Markdown: true, Keyboard: cancelKeyboard, OneTime: true, Placeholder: placeholder}}
}

// selected loads the record picked with /view_bd_<id>. ok is false when
// nothing is selected, the record is gone or it belongs to someone else.
func (t *turn) selected() (domain.Birthday, bool, error) {
	if t.sess.BirthdayID == nil {
		return domain.Birthday{}, false, nil
	}
	b, err := t.repo.GetBirthday(t.ctx, *t.sess.BirthdayID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Birthday{}, false, nil
	}
	if err != nil {
		return domain.Birthday{}, false, err
	}
	if b.UserID != t.user.ID {
		return domain.Birthday{}, false, nil
	}
	return b, true, nil
}

func (t *turn) withSelected(fn func(domain.Birthday) ([]Reply, error)) ([]Reply, error) {
	b, ok, err := t.selected()
	if err != nil {
		return nil, err
	}
	if !ok {
		t.sess.Reset()
		return t.notFound()
	}
	return fn(b)
}

func (t *turn) enterEdit(state State, text, placeholder string) ([]Reply, error) {
	return t.withSelected(func(b domain.Birthday) ([]Reply, error) {
		id := b.ID
		*t.sess = Session{State: state, Flow: FlowEdit, BirthdayID: &id}
		return []Reply{{Text: text, Keyboard: cancelKeyboard, OneTime: true, Placeholder: placeholder}}, nil
	})
}

func (t *turn) notFound() ([]Reply, error) {
	return t.mainMenu(msgNotFound)
}

func (t *turn) welcome() ([]Reply, error) {
	greeting := "Welcome back!"
	if t.isNew {
		greeting = "Welcome!"
	}
	return t.mainMenu(greeting + "\n\n" + intro)
}

func (t *turn) mainMenu(text string) ([]Reply, error) {
	n, err := t.repo.CountBirthdays(t.ctx, t.user.ID)
	if err != nil {
		return nil, err
	}
	return []Reply{{Text: text, Keyboard: mainKeyboard(n > 0), OneTime: true, Placeholder: "Action"}}, nil
}

func (t *turn) view(id int64) ([]Reply, error) {
	b, err := t.repo.GetBirthday(t.ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && b.UserID != t.user.ID) {
		return t.notFound()
	}
	if err != nil {
		return nil, err
	}
	t.sess.BirthdayID = &b.ID
	return []Reply{{Text: describe(b, t.today), Markdown: true, Keyboard: recordKeyboard, OneTime: true}}, nil
}

func (t *turn) listBirthdays() ([]Reply, error) {
	list, err := t.repo.ListBirthdays(t.ctx, t.user.ID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return t.mainMenu("You have no birthdays yet")
	}

	lines := make([]string, 0, len(list))
	for _, b := range list {
		lines = append(lines, listEntry(b, t.today))
	}

	var out []Reply
	for _, chunk := range notify.Batch(lines, t.listLimit) {
		out = append(out, Reply{Text: "*Birthdays* 🎂\n\n" + chunk, Markdown: true, Keyboard: homeKeyboard, OneTime: true})
	}
	return out, nil
}

func (t *turn) reminders() []Reply {
	return []Reply{{Text: "Choose which reminders you want to receive", Keyboard: remindersKeyboard(t.user)}}
}
