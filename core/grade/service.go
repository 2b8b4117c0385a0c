package grade

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/subject"
)

// RecentLimit is the number of grades shown on the dashboard.
const RecentLimit = 10

var (
	// errors
	ErrNotFound = errors.New("grade not found")
)

type (
	// Repository persists grades. A grade is in scope exactly when its student is.
	Repository interface {
		// ListGrades returns grade details ordered by last update, most recent first.
		ListGrades(ctx context.Context, sc core.Scope, filter Filter) ([]Detail, error)
		GetGrade(ctx context.Context, sc core.Scope, id int) (Detail, error)
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		// UpdateGrade stores the scores, final grade, remarks & updated_at of g.
		UpdateGrade(ctx context.Context, sc core.Scope, g Grade) (Grade, error)
		DeleteGrade(ctx context.Context, sc core.Scope, id int) error
		CountGrades(ctx context.Context, sc core.Scope) (int, error)
	}

	studentGetter interface {
		GetStudent(ctx context.Context, sc core.Scope, id int) (student.Student, error)
	}

	subjectGetter interface {
		GetSubject(ctx context.Context, sc core.Scope, id int) (subject.Subject, error)
	}

	Service struct {
		repo     Repository
		students studentGetter
		subjects subjectGetter
	}
)

func NewService(repo Repository, students student.Repository, subjects subject.Repository) *Service {
	return &Service{repo: repo, students: students, subjects: subjects}
}

func (svc *Service) List(ctx context.Context, sc core.Scope, filter Filter) ([]Detail, error) {
	return svc.repo.ListGrades(ctx, sc, filter)
}

// Recent returns the RecentLimit most recently updated grades in scope.
func (svc *Service) Recent(ctx context.Context, sc core.Scope) ([]Detail, error) {
	return svc.repo.ListGrades(ctx, sc, Filter{Limit: RecentLimit})
}

func (svc *Service) Get(ctx context.Context, sc core.Scope, id int) (Detail, error) {
	return svc.repo.GetGrade(ctx, sc, id)
}

// Create records a grade for a student & subject in scope.
// The final grade is computed from the student's education level. ng must have been validated.
func (svc *Service) Create(ctx context.Context, sc core.Scope, ng NewGrade) (Grade, error) {
	stud, err := svc.students.GetStudent(ctx, sc, ng.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Grade{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: "select a valid student"})
		}
		return Grade{}, errors.Wrap(err, "getting student")
	}
	if _, err = svc.subjects.GetSubject(ctx, sc, ng.SubjectID); err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return Grade{}, core.NewValidationError(err, core.FieldError{Field: "subject_id", Error: "select a valid subject"})
		}
		return Grade{}, errors.Wrap(err, "getting subject")
	}

	now := time.Now().UTC()
	g := Grade{
		StudentID: stud.ID,
		SubjectID: ng.SubjectID,
		Quarter:   ng.Quarter,
		TeacherID: null.NewInt(sc.UserID, sc.UserID > 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.setScores(stud.EducationLevel, ng.Scores())

	g, err = svc.repo.CreateGrade(ctx, g)
	if err != nil {
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	return g, nil
}

// Update replaces the scores of a grade in scope, recomputes its final grade & remark and bumps updated_at.
func (svc *Service) Update(ctx context.Context, sc core.Scope, id int, ug UpdateGrade) (Grade, error) {
	d, err := svc.repo.GetGrade(ctx, sc, id)
	if err != nil {
		return Grade{}, err
	}
	g := d.Grade
	g.setScores(d.StudentEducationLevel, ug.Scores())
	g.UpdatedAt = time.Now().UTC()

	g, err = svc.repo.UpdateGrade(ctx, sc, g)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Grade{}, err
		}
		return Grade{}, errors.Wrap(err, "updating grade")
	}
	return g, nil
}

func (svc *Service) Delete(ctx context.Context, sc core.Scope, id int) error {
	return svc.repo.DeleteGrade(ctx, sc, id)
}

func (svc *Service) Count(ctx context.Context, sc core.Scope) (int, error) {
	return svc.repo.CountGrades(ctx, sc)
}
