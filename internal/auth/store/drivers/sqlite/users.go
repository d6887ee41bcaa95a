package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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

	u.EmployeeNumber = mapNullInt64Ptr(empNo)
	u.FirstName = mapNullStringPtr(first)
	u.LastName = mapNullStringPtr(last)
	u.Email = mapNullStringPtr(email)
	u.Gecos = mapNullStringPtr(gecos)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByLoginID(ctx context.Context, loginID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE login_id = ?`, loginID)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (login_id, employee_number, first_name, last_name, email, gecos, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		u.LoginID,
		mapOptionalInt64(u.EmployeeNumber),
		mapOptionalString(u.FirstName),
		mapOptionalString(u.LastName),
		mapOptionalString(u.Email),
		mapOptionalString(u.Gecos),
		u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return domain.User{}, mapConstraint(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapNullInt64Ptr(n sql.NullInt64) *int64 {
	if n.Valid {
		val := n.Int64
		return &val
	}
	return nil
}

func mapOptionalInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
