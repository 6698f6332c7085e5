package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/construction-robotics/site-coordination/internal/domain"
)

type BookingRepo interface {
	// Insert appends a booking row and returns its id. Bookings are never
	// mutated except for their status, and never deleted.
	Insert(ctx context.Context, b *domain.Booking) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Search(ctx context.Context, query string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	// ListForAnalysis filters by email and an inclusive calendar-date range
	// on created_at; empty arguments are not applied.
	ListForAnalysis(ctx context.Context, email, startDate, endDate string) ([]domain.Booking, error)
	ProjectsByEmail(ctx context.Context, email string) ([]string, error)
}

type bookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) BookingRepo {
	return &bookingRepo{db: db}
}

const bookingCols = `id, email, first_name, last_name, project, timeslot_raw, duration_weeks,
indoor, outdoor, outdoor_type, equipment, status, created_at`

func (r *bookingRepo) Insert(ctx context.Context, b *domain.Booking) (int64, error) {
	const q = `INSERT INTO bookings (
		email, first_name, last_name, project, timeslot_raw, duration_weeks,
		indoor, outdoor, outdoor_type, equipment, status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, q,
		b.Email, b.FirstName, b.LastName, b.Project,
		b.TimeslotRaw, b.DurationWeeks,
		b.Indoor, b.Outdoor, b.OutdoorType, b.Equipment,
		b.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *bookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *bookingRepo) Search(ctx context.Context, query string) ([]domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings`
	var args []any
	if query != "" {
		q += ` WHERE email LIKE ? OR first_name LIKE ? OR last_name LIKE ?
			OR project LIKE ? OR timeslot_raw LIKE ? OR status LIKE ?`
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

	return collectBookings(rows)
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	const q = `UPDATE bookings SET status = ? WHERE id = ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookingRepo) ListForAnalysis(ctx context.Context, email, startDate, endDate string) ([]domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE 1=1`
	var args []any
	if email != "" {
		q += ` AND email = ?`
		args = append(args, email)
	}
	if startDate != "" {
		q += ` AND date(created_at) >= date(?)`
		args = append(args, startDate)
	}
	if endDate != "" {
		q += ` AND date(created_at) <= date(?)`
		args = append(args, endDate)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepo) ProjectsByEmail(ctx context.Context, email string) ([]string, error) {
	const q = `SELECT DISTINCT project FROM bookings WHERE email = ? ORDER BY project`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var createdAt string
	err := row.Scan(
		&b.ID, &b.Email, &b.FirstName, &b.LastName, &b.Project,
		&b.TimeslotRaw, &b.DurationWeeks,
		&b.Indoor, &b.Outdoor, &b.OutdoorType, &b.Equipment,
		&b.Status, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = parseTimestamp(createdAt)
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
