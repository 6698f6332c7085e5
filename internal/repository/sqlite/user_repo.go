package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/construction-robotics/site-coordination/internal/domain"
)

type UserRepo interface {
	// Upsert creates or overwrites the user keyed by email. A replaced row
	// starts over with credentials_sent = 0.
	Upsert(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	Search(ctx context.Context, query string) ([]domain.User, error)
	Emails(ctx context.Context) ([]string, error)
	IncrementCredentialsSent(ctx context.Context, email string) error
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userCols = `email, password, first_name, last_name, affiliation, project, phone, credentials_sent, created_at`

func (r *userRepo) Upsert(ctx context.Context, user *domain.User) error {
	const q = `INSERT OR REPLACE INTO users (
		email, password, first_name, last_name, affiliation, project, phone
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, q,
		user.Email, user.Password,
		user.FirstName, user.LastName,
		user.Affiliation, user.Project, user.Phone,
	)
	return err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, q, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (r *userRepo) Exists(ctx context.Context, email string) (bool, error) {
	const q = `SELECT 1 FROM users WHERE email = ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var one int
	err := r.db.QueryRowContext(ctx, q, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepo) Search(ctx context.Context, query string) ([]domain.User, error) {
	q := `SELECT ` + userCols + ` FROM users`
	var args []any
	if query != "" {
		q += ` WHERE email LIKE ? OR first_name LIKE ? OR last_name LIKE ?
			OR affiliation LIKE ? OR project LIKE ? OR phone LIKE ?`
		like := likeTerm(query)
		args = []any{like, like, like, like, like, like}
	}
	q += ` ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepo) Emails(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT email FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *userRepo) IncrementCredentialsSent(ctx context.Context, email string) error {
	const q = `UPDATE users SET credentials_sent = credentials_sent + 1 WHERE email = ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, q, email)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var createdAt string
	err := row.Scan(
		&user.Email, &user.Password,
		&user.FirstName, &user.LastName,
		&user.Affiliation, &user.Project, &user.Phone,
		&user.CredentialsSent, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = parseTimestamp(createdAt)
	return &user, nil
}
