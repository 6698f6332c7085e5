package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/construction-robotics/site-coordination/internal/domain"
)

type ActivityRepo interface {
	// InsertResearch appends a researcher presence row and returns the
	// timestamp written to it.
	InsertResearch(ctx context.Context, a *domain.ResearchActivity) (time.Time, error)
	InsertService(ctx context.Context, a *domain.ServiceActivity) (time.Time, error)
	SearchResearch(ctx context.Context, query string) ([]domain.ResearchActivity, error)
	SearchService(ctx context.Context, query string) ([]domain.ServiceActivity, error)
	ListResearchForAnalysis(ctx context.Context, email, startDate, endDate string) ([]domain.ResearchActivity, error)
	ListServiceForAnalysis(ctx context.Context, startDate, endDate string) ([]domain.ServiceActivity, error)
}

type activityRepo struct {
	db  *sql.DB
	loc *time.Location
}

func NewActivityRepo(db *sql.DB) ActivityRepo {
	// Presence rows carry site-local timestamps; the site is in Aachen.
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.Local
	}
	return &activityRepo{db: db, loc: loc}
}

const researchCols = `id, email, first_name, last_name, project, presence, created_at`
const serviceCols = `id, name, company, mobile, service, presence, created_at`

func (r *activityRepo) InsertResearch(ctx context.Context, a *domain.ResearchActivity) (time.Time, error) {
	const q = `INSERT INTO activity_research (
		email, first_name, last_name, project, presence, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().In(r.loc)
	_, err := r.db.ExecContext(ctx, q,
		a.Email, a.FirstName, a.LastName, a.Project, a.Presence,
		now.Format(timestampLayout),
	)
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *activityRepo) InsertService(ctx context.Context, a *domain.ServiceActivity) (time.Time, error) {
	const q = `INSERT INTO activity_service_provider (
		name, company, mobile, service, presence, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().In(r.loc)
	_, err := r.db.ExecContext(ctx, q,
		a.Name, a.Company, a.Mobile, a.Service, a.Presence,
		now.Format(timestampLayout),
	)
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *activityRepo) SearchResearch(ctx context.Context, query string) ([]domain.ResearchActivity, error) {
	q := `SELECT ` + researchCols + ` FROM activity_research`
	var args []any
	if query != "" {
		q += ` WHERE email LIKE ? OR first_name LIKE ? OR last_name LIKE ?
			OR project LIKE ? OR presence LIKE ? OR created_at LIKE ?`
		like := likeTerm(query)
		args = []any{like, like, like, like, like, createdAtTerm(query)}
	}
	q += ` ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.ResearchActivity
	for rows.Next() {
		var a domain.ResearchActivity
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Project, &a.Presence, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTimestamp(createdAt)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepo) SearchService(ctx context.Context, query string) ([]domain.ServiceActivity, error) {
	q := `SELECT ` + serviceCols + ` FROM activity_service_provider`
	var args []any
	if query != "" {
		q += ` WHERE name LIKE ? OR company LIKE ? OR service LIKE ? OR presence LIKE ?
			OR created_at LIKE ?`
		like := likeTerm(query)
		args = []any{like, like, like, like, createdAtTerm(query)}
	}
	q += ` ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectServiceActivities(rows)
}

func (r *activityRepo) ListResearchForAnalysis(ctx context.Context, email, startDate, endDate string) ([]domain.ResearchActivity, error) {
	q := `SELECT ` + researchCols + ` FROM activity_research WHERE 1=1`
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

	var activities []domain.ResearchActivity
	for rows.Next() {
		var a domain.ResearchActivity
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Project, &a.Presence, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTimestamp(createdAt)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepo) ListServiceForAnalysis(ctx context.Context, startDate, endDate string) ([]domain.ServiceActivity, error) {
	q := `SELECT ` + serviceCols + ` FROM activity_service_provider WHERE 1=1`
	var args []any
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

	return collectServiceActivities(rows)
}

// createdAtTerm prefers the normalized DD.MM.YYYY form when the query
// looks like a date, so date searches hit the stored format.
func createdAtTerm(query string) string {
	if normalized := normalizeDateQuery(query); normalized != "" {
		return "%" + normalized + "%"
	}
	return likeTerm(query)
}

func collectServiceActivities(rows *sql.Rows) ([]domain.ServiceActivity, error) {
	var activities []domain.ServiceActivity
	for rows.Next() {
		var a domain.ServiceActivity
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.Company, &a.Mobile, &a.Service, &a.Presence, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTimestamp(createdAt)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
