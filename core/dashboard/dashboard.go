// Package dashboard aggregates the scoped counters and recent activity shown to a signed-in user.
package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/grading"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/subject"
)

// Stats is the payload of the stats endpoint.
type Stats struct {
	TotalStudents int     `json:"total_students"`
	TotalSubjects int     `json:"total_subjects"`
	TotalGrades   int     `json:"total_grades"`
	AvgGrade      float64 `json:"avg_grade"`
	PassingRate   float64 `json:"passing_rate"`
}

// GradeSummary holds the raw grade aggregates of a scope.
type GradeSummary struct {
	Total    int     `db:"total"`
	Passed   int     `db:"passed"`
	AvgGrade float64 `db:"avg_grade"` // 0 without grades
}

// Repository computes the aggregates behind Stats, under the same scope rules as the entity lists.
type Repository interface {
	SummarizeGrades(ctx context.Context, sc core.Scope) (GradeSummary, error)
}

// Overview is everything the dashboard page renders.
type Overview struct {
	Stats
	RecentGrades []grade.Detail
	Students     []student.Student
	Subjects     []subject.Subject
}

type Service struct {
	repo     Repository
	students *student.Service
	subjects *subject.Service
	grades   *grade.Service
}

func NewService(repo Repository, students *student.Service, subjects *subject.Service, grades *grade.Service) *Service {
	return &Service{repo: repo, students: students, subjects: subjects, grades: grades}
}

func (svc *Service) Stats(ctx context.Context, sc core.Scope) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.TotalStudents, err = svc.students.Count(ctx, sc); err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	if stats.TotalSubjects, err = svc.subjects.Count(ctx, sc); err != nil {
		return Stats{}, errors.Wrap(err, "counting subjects")
	}
	sum, err := svc.repo.SummarizeGrades(ctx, sc)
	if err != nil {
		return Stats{}, errors.Wrap(err, "summarizing grades")
	}
	stats.TotalGrades = sum.Total
	stats.AvgGrade = grading.Round2(sum.AvgGrade)
	stats.PassingRate = grading.PassingRate(sum.Passed, sum.Total)
	return stats, nil
}

func (svc *Service) Overview(ctx context.Context, sc core.Scope) (Overview, error) {
	stats, err := svc.Stats(ctx, sc)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Stats: stats}
	if ov.RecentGrades, err = svc.grades.Recent(ctx, sc); err != nil {
		return Overview{}, errors.Wrap(err, "listing recent grades")
	}
	if ov.Students, err = svc.students.List(ctx, sc); err != nil {
		return Overview{}, errors.Wrap(err, "listing students")
	}
	if ov.Subjects, err = svc.subjects.List(ctx, sc); err != nil {
		return Overview{}, errors.Wrap(err, "listing subjects")
	}
	return ov, nil
}
