package model

import "database/sql"

type Customer struct {
	ID           int64        `db:"id" json:"id"`
	Username     string       `db:"username" json:"username"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	FirstName    string       `db:"first_name" json:"first_name"`
	LastName     string       `db:"last_name" json:"last_name"`
	CreatedAt    sql.NullTime `db:"created_at" json:"-"`
}
