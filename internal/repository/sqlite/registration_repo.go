package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/construction-robotics/site-coordination/internal/domain"
)

type RegistrationRepo interface {
	Upsert(ctx context.Context, reg *domain.Registration) error
	GetByEmail(ctx context.Context, email string) (*domain.Registration, error)
	Search(ctx context.Context, query string) ([]domain.Registration, error)
	UpdateStatus(ctx context.Context, email string, status domain.RegistrationStatus) error
}

type registrationRepo struct {
	db *sql.DB
}

func NewRegistrationRepo(db *sql.DB) RegistrationRepo {
	return &registrationRepo{db: db}
}

const registrationCols = `email, first_name, last_name, affiliation, project, phone, activity, status, created_at`

func (r *registrationRepo) Upsert(ctx context.Context, reg *domain.Registration) error {
	const q = `INSERT OR REPLACE INTO registrations (
		email, first_name, last_name, affiliation, project, phone, activity, status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, q,
		reg.Email, reg.FirstName, reg.LastName,
		reg.Affiliation, reg.Project, reg.Phone,
		reg.Activity, reg.Status,
	)
	return err
}

func (r *registrationRepo) GetByEmail(ctx context.Context, email string) (*domain.Registration, error) {
	const q = `SELECT ` + registrationCols + ` FROM registrations WHERE email = ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, q, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reg, err
}

func (r *registrationRepo) Search(ctx context.Context, query string) ([]domain.Registration, error) {
	q := `SELECT ` + registrationCols + ` FROM registrations`
	var args []any
	if query != "" {
		q += ` WHERE email LIKE ? OR first_name LIKE ? OR last_name LIKE ?
			OR affiliation LIKE ? OR project LIKE ? OR status LIKE ?`
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

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepo) UpdateStatus(ctx context.Context, email string, status domain.RegistrationStatus) error {
	const q = `UPDATE registrations SET status = ? WHERE email = ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, q, status, email)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	var reg domain.Registration
	var createdAt string
	err := row.Scan(
		&reg.Email, &reg.FirstName, &reg.LastName,
		&reg.Affiliation, &reg.Project, &reg.Phone,
		&reg.Activity, &reg.Status, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	reg.CreatedAt = parseTimestamp(createdAt)
	return &reg, nil
}
