// Package repo persists users and their birthdays.
//
// Every method runs a single statement on the pool, so no transaction or
// connection is held between calls and the store is safe for concurrent use
// by the update workers and the reminder scheduler.
package repo

import "github.com/jackc/pgx/v5/pgxpool"

// Store is the Postgres-backed repository.
type Store struct {
	*Users
	*Birthdays
}

func NewStore(p *pgxpool.Pool) *Store {
	return &Store{Users: NewUsers(p), Birthdays: NewBirthdays(p)}
}
