package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
)

const userColumns = `id, login_id, employee_number, first_name, last_name, email, gecos, created_at`

type usersRepo struct {
	db dbtx
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u     domain.User
		empNo sql.NullInt64
		first sql.NullString
		last  sql.NullString
		email sql.NullString
		gecos sql.NullString
	)
	if err := row.Scan(&u.ID, &u.LoginID, &empNo, &first, &last, &email, &gecos, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}

	if empNo.Valid {
		u.EmployeeNumber = &empNo.Int64
	}
	u.FirstName = stringPtr(first)
	u.LastName = stringPtr(last)
	u.Email = stringPtr(email)
	u.Gecos = stringPtr(gecos)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByLoginID(ctx context.Context, loginID string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE login_id = $1`, loginID))
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (login_id, employee_number, first_name, last_name, email, gecos)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		u.LoginID, u.EmployeeNumber, u.FirstName, u.LastName, u.Email, u.Gecos,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
