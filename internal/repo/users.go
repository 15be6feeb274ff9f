package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MatMasIt/birthdaybot/internal/domain"
)

type Users struct{ pool *pgxpool.Pool }

func NewUsers(p *pgxpool.Pool) *Users { return &Users{pool: p} }

const userColumns = `id, username, first_name, last_name, language_code, last_seen, daily, weekly, monthly`

func scanUser(row pgx.Row, extra ...any) (domain.User, error) {
	var u domain.User
	dest := append(extra, &u.ID, &u.Username, &u.FirstName, &u.LastName, &u.LanguageCode, &u.LastSeen, &u.Daily, &u.Weekly, &u.Monthly)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// UpsertUser registers the sender on first contact and refreshes names and
// last_seen afterwards. Cadence flags are left untouched on update.
func (r *Users) UpsertUser(ctx context.Context, id domain.Identity) (bool, domain.User, error) {
	var inserted bool
	u, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users(id, username, first_name, last_name, language_code, last_seen)
		VALUES($1,$2,$3,$4,$5,now())
		ON CONFLICT (id) DO UPDATE
		SET username=EXCLUDED.username,
			first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name,
			language_code=EXCLUDED.language_code,
			last_seen=now()
		RETURNING (xmax = 0), `+userColumns,
		id.ID, nullable(id.Username), id.FirstName, nullable(id.LastName), nullable(id.LanguageCode),
	), &inserted)
	if err != nil {
		return false, domain.User{}, fmt.Errorf("upsert user %d: %w", id.ID, err)
	}
	return inserted, u, nil
}

func (r *Users) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *Users) SetCadence(ctx context.Context, id int64, c domain.Cadence, enabled bool) error {
	var column string
	switch c {
	case domain.CadenceDaily:
		column = "daily"
	case domain.CadenceWeekly:
		column = "weekly"
	case domain.CadenceMonthly:
		column = "monthly"
	default:
		return fmt.Errorf("set cadence: unknown cadence %d", c)
	}

	tag, err := r.pool.Exec(ctx, `UPDATE users SET `+column+`=$2 WHERE id=$1`, id, enabled)
	if err != nil {
		return fmt.Errorf("set %s for user %d: %w", c, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set %s for user %d: %w", c, id, domain.ErrNotFound)
	}
	return nil
}

// ListUsers returns every known user.
func (r *Users) ListUsers(ctx context.Context) ([]domain.User, error) {
	return r.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// ListUsersWithAnyCadence skips users that turned every reminder off.
func (r *Users) ListUsersWithAnyCadence(ctx context.Context) ([]domain.User, error) {
	return r.listUsers(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE daily OR weekly OR monthly
		ORDER BY id
	`)
}

func (r *Users) listUsers(ctx context.Context, query string) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
