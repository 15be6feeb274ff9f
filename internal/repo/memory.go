package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MatMasIt/birthdaybot/internal/domain"
)

// Memory is a mutex-guarded in-process repository with the same contract as
// Store. Each call takes the lock once and never across a suspension point.
type Memory struct {
	mu        sync.Mutex
	users     map[int64]domain.User
	birthdays map[int64]domain.Birthday
	nextID    int64
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[int64]domain.User),
		birthdays: make(map[int64]domain.Birthday),
		now:       time.Now,
	}
}

func (m *Memory) UpsertUser(_ context.Context, id domain.Identity) (bool, domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id.ID]
	if !ok {
		u = domain.User{ID: id.ID, Daily: true, Weekly: true, Monthly: true}
	}
	u.Username = nullable(id.Username)
	u.FirstName = id.FirstName
	u.LastName = nullable(id.LastName)
	u.LanguageCode = nullable(id.LanguageCode)
	u.LastSeen = m.now()
	m.users[id.ID] = u
	return !ok, u, nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("get user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (m *Memory) SetCadence(_ context.Context, id int64, c domain.Cadence, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("set %s for user %d: %w", c, id, domain.ErrNotFound)
	}
	switch c {
	case domain.CadenceDaily:
		u.Daily = enabled
	case domain.CadenceWeekly:
		u.Weekly = enabled
	case domain.CadenceMonthly:
		u.Monthly = enabled
	default:
		return fmt.Errorf("set cadence: unknown cadence %d", c)
	}
	m.users[id] = u
	return nil
}

func (m *Memory) ListUsers(context.Context) ([]domain.User, error) {
	return m.listUsers(func(domain.User) bool { return true }), nil
}

func (m *Memory) ListUsersWithAnyCadence(context.Context) ([]domain.User, error) {
	return m.listUsers(func(u domain.User) bool { return u.Daily || u.Weekly || u.Monthly }), nil
}

func (m *Memory) listUsers(keep func(domain.User) bool) []domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.User
	for _, u := range m.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) AddBirthday(_ context.Context, ownerID int64, firstName, lastName string, birth time.Time) (domain.Birthday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	b := domain.Birthday{
		ID:        m.nextID,
		UserID:    ownerID,
		FirstName: firstName,
		LastName:  lastName,
		Birth:     domain.DateOnly(birth),
	}
	m.birthdays[b.ID] = b
	return b, nil
}

func (m *Memory) GetBirthday(_ context.Context, id int64) (domain.Birthday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.birthdays[id]
	if !ok {
		return domain.Birthday{}, fmt.Errorf("get birthday %d: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

func (m *Memory) ListBirthdays(_ context.Context, ownerID int64) ([]domain.Birthday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Birthday, 0, 16)
	for _, b := range m.birthdays {
		if b.UserID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].LastName, out[j].LastName); c != 0 {
			return c < 0
		}
		if c := strings.Compare(out[i].FirstName, out[j].FirstName); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) CountBirthdays(_ context.Context, ownerID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, b := range m.birthdays {
		if b.UserID == ownerID && !b.IsAnniversary {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateBirthdayField(_ context.Context, id int64, upd domain.FieldUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.birthdays[id]
	if !ok {
		return fmt.Errorf("update birthday %d: %w", id, domain.ErrNotFound)
	}
	switch upd.Field {
	case domain.FieldBirth:
		b.Birth = domain.DateOnly(upd.Date)
	case domain.FieldFirstName:
		b.FirstName = upd.Text
	case domain.FieldLastName:
		b.LastName = upd.Text
	default:
		return fmt.Errorf("update birthday %d: unknown field %d", id, upd.Field)
	}
	m.birthdays[id] = b
	return nil
}

func (m *Memory) DeleteBirthday(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.birthdays[id]; !ok {
		return fmt.Errorf("delete birthday %d: %w", id, domain.ErrNotFound)
	}
	delete(m.birthdays, id)
	return nil
}

func (m *Memory) CountMatchingName(_ context.Context, ownerID int64, firstName, lastName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, b := range m.birthdays {
		if b.UserID == ownerID && b.FirstName == firstName && b.LastName == lastName {
			n++
		}
	}
	return n, nil
}
