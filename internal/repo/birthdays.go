package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MatMasIt/birthdaybot/internal/domain"
)

type Birthdays struct{ pool *pgxpool.Pool }

func NewBirthdays(p *pgxpool.Pool) *Birthdays { return &Birthdays{pool: p} }

const birthdayColumns = `id, user_id, first_name, last_name, birth, is_anniversary`

func scanBirthday(row pgx.Row) (domain.Birthday, error) {
	var b domain.Birthday
	if err := row.Scan(&b.ID, &b.UserID, &b.FirstName, &b.LastName, &b.Birth, &b.IsAnniversary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Birthday{}, domain.ErrNotFound
		}
		return domain.Birthday{}, err
	}
	return b, nil
}

func (r *Birthdays) AddBirthday(ctx context.Context, ownerID int64, firstName, lastName string, birth time.Time) (domain.Birthday, error) {
	b, err := scanBirthday(r.pool.QueryRow(ctx, `
		INSERT INTO birthdays(user_id, first_name, last_name, birth)
		VALUES($1,$2,$3,$4)
		RETURNING `+birthdayColumns,
		ownerID, firstName, lastName, birth.Format("2006-01-02"),
	))
	if err != nil {
		return domain.Birthday{}, fmt.Errorf("add birthday for user %d: %w", ownerID, err)
	}
	return b, nil
}

func (r *Birthdays) GetBirthday(ctx context.Context, id int64) (domain.Birthday, error) {
	b, err := scanBirthday(r.pool.QueryRow(ctx, `SELECT `+birthdayColumns+` FROM birthdays WHERE id=$1`, id))
	if err != nil {
		return domain.Birthday{}, fmt.Errorf("get birthday %d: %w", id, err)
	}
	return b, nil
}

// ListBirthdays returns the owner's records ordered by last name.
func (r *Birthdays) ListBirthdays(ctx context.Context, ownerID int64) ([]domain.Birthday, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+birthdayColumns+`
		FROM birthdays
		WHERE user_id=$1
		ORDER BY last_name, first_name, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list birthdays for user %d: %w", ownerID, err)
	}
	defer rows.Close()

	out := make([]domain.Birthday, 0, 16)
	for rows.Next() {
		b, err := scanBirthday(rows)
		if err != nil {
			return nil, fmt.Errorf("list birthdays for user %d: %w", ownerID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountBirthdays counts the owner's records that are not anniversaries.
func (r *Birthdays) CountBirthdays(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM birthdays WHERE user_id=$1 AND NOT is_anniversary
	`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count birthdays for user %d: %w", ownerID, err)
	}
	return n, nil
}

func (r *Birthdays) UpdateBirthdayField(ctx context.Context, id int64, upd domain.FieldUpdate) error {
	var (
		query string
		value any
	)
	switch upd.Field {
	case domain.FieldBirth:
		query, value = `UPDATE birthdays SET birth=$2 WHERE id=$1`, upd.Date.Format("2006-01-02")
	case domain.FieldFirstName:
		query, value = `UPDATE birthdays SET first_name=$2 WHERE id=$1`, upd.Text
	case domain.FieldLastName:
		query, value = `UPDATE birthdays SET last_name=$2 WHERE id=$1`, upd.Text
	default:
		return fmt.Errorf("update birthday %d: unknown field %d", id, upd.Field)
	}

	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("update birthday %d %s: %w", id, upd.Field, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update birthday %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *Birthdays) DeleteBirthday(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM birthdays WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete birthday %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete birthday %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *Birthdays) CountMatchingName(ctx context.Context, ownerID int64, firstName, lastName string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM birthdays
		WHERE user_id=$1 AND first_name=$2 AND last_name=$3
	`, ownerID, firstName, lastName).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count matching names for user %d: %w", ownerID, err)
	}
	return n, nil
}
