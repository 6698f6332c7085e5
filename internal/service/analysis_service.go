package service

import (
	"context"
	"strings"

	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
)

// BookingSummary aggregates bookings by calendar week. Conflicts are
// advisory only; nothing prevents overlapping approvals.
type BookingSummary struct {
	Total        int                       `json:"total"`
	WeekCounts   map[string]int            `json:"week_counts"`
	WeekProjects map[string]map[string]int `json:"week_projects"`
	Conflicts    map[string]int            `json:"conflicts"`
}

type ActivitySummary struct {
	Total   int            `json:"total"`
	PerUser map[string]int `json:"per_user"`
}

type ServiceSummary struct {
	Total      int            `json:"total"`
	PerService map[string]int `json:"per_service"`
}

type AnalysisService interface {
	// Emails lists the known user emails for the analysis filter dropdown.
	Emails(ctx context.Context) ([]string, error)
	BookingSummary(ctx context.Context, email, startDate, endDate string) (*BookingSummary, error)
	UserActivitySummary(ctx context.Context, email, startDate, endDate string) (*ActivitySummary, error)
	ServiceActivitySummary(ctx context.Context, startDate, endDate string) (*ServiceSummary, error)
}

type analysisService struct {
	users      sqlite.UserRepo
	bookings   sqlite.BookingRepo
	activities sqlite.ActivityRepo
}

func NewAnalysisService(users sqlite.UserRepo, bookings sqlite.BookingRepo, activities sqlite.ActivityRepo) AnalysisService {
	return &analysisService{users: users, bookings: bookings, activities: activities}
}

func (s *analysisService) Emails(ctx context.Context) ([]string, error) {
	return s.users.Emails(ctx)
}

// weekKey reduces a raw timeslot to its leading week token. Timeslots are
// submitted free-form; only the first semicolon-separated entry counts.
func weekKey(timeslotRaw string) string {
	week := timeslotRaw
	if i := strings.Index(week, ";"); i >= 0 {
		week = week[:i]
	}
	week = strings.TrimSpace(week)
	if week == "" {
		return "unknown"
	}
	return week
}

func (s *analysisService) BookingSummary(ctx context.Context, email, startDate, endDate string) (*BookingSummary, error) {
	bookings, err := s.bookings.ListForAnalysis(ctx, email, startDate, endDate)
	if err != nil {
		return nil, err
	}

	summary := &BookingSummary{
		Total:        len(bookings),
		WeekCounts:   make(map[string]int),
		WeekProjects: make(map[string]map[string]int),
		Conflicts:    make(map[string]int),
	}
	for _, b := range bookings {
		week := weekKey(b.TimeslotRaw)
		summary.WeekCounts[week]++
		if summary.WeekProjects[week] == nil {
			summary.WeekProjects[week] = make(map[string]int)
		}
		project := b.Project
		if project == "" {
			project = "unknown"
		}
		summary.WeekProjects[week][project]++
	}
	for week, count := range summary.WeekCounts {
		if count > 1 {
			summary.Conflicts[week] = count
		}
	}
	return summary, nil
}

func (s *analysisService) UserActivitySummary(ctx context.Context, email, startDate, endDate string) (*ActivitySummary, error) {
	activities, err := s.activities.ListResearchForAnalysis(ctx, email, startDate, endDate)
	if err != nil {
		return nil, err
	}
	summary := &ActivitySummary{
		Total:   len(activities),
		PerUser: make(map[string]int),
	}
	for _, a := range activities {
		summary.PerUser[a.Email]++
	}
	return summary, nil
}

func (s *analysisService) ServiceActivitySummary(ctx context.Context, startDate, endDate string) (*ServiceSummary, error) {
	activities, err := s.activities.ListServiceForAnalysis(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	summary := &ServiceSummary{
		Total:      len(activities),
		PerService: make(map[string]int),
	}
	for _, a := range activities {
		service := a.Service
		if service == "" {
			service = "unknown"
		}
		summary.PerService[service]++
	}
	return summary, nil
}
