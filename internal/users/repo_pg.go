package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo stores users in Postgres. Optional profile fields are NULL when empty.
type PGRepo struct {
	DB *sql.DB
}

const upsertUserSQL = `
INSERT INTO users (id, email, full_name, given_name, family_name, picture_url)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  given_name = EXCLUDED.given_name,
  family_name = EXCLUDED.family_name,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()`

const selectUserSQL = `
SELECT id, email, full_name, given_name, family_name, picture_url, stripe_customer_id, created_at, updated_at
FROM users WHERE id = $1`

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	_, err := r.DB.ExecContext(ctx, upsertUserSQL,
		user.ID, user.Email,
		optional(user.FullName), optional(user.GivenName), optional(user.FamilyName), optional(user.PictureURL),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	var (
		u        User
		nullable [5]sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, selectUserSQL, userID).Scan(
		&u.ID, &u.Email,
		&nullable[0], &nullable[1], &nullable[2], &nullable[3], &nullable[4],
		&u.CreatedAt, &u.UpdatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return User{}, ErrNotFound
	case err != nil:
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.FullName, u.GivenName, u.FamilyName = nullable[0].String, nullable[1].String, nullable[2].String
	u.PictureURL, u.StripeCustomerID = nullable[3].String, nullable[4].String
	return u, nil
}

func (r *PGRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET stripe_customer_id = $2, updated_at = now() WHERE id = $1`,
		userID, customerID)
	if err != nil {
		return fmt.Errorf("set stripe customer: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func optional(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
