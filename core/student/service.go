package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

// SearchLimit caps the number of students returned by Search.
const SearchLimit = 10

var (
	// errors
	ErrNotFound = errors.New("student not found")
	ErrExists   = errors.New("student ID or email already exists")
)

// Repository persists students. Every read & write is restricted to the given Scope;
// rows outside of it are reported as ErrNotFound.
type Repository interface {
	ListStudents(ctx context.Context, sc core.Scope) ([]Student, error)
	GetStudent(ctx context.Context, sc core.Scope, id int) (Student, error)
	// CreateStudent returns ErrExists on a uniqueness violation.
	CreateStudent(ctx context.Context, s Student) (Student, error)
	// UpdateStudent returns ErrExists on a uniqueness violation.
	UpdateStudent(ctx context.Context, sc core.Scope, s Student) (Student, error)
	// DeleteStudent removes the student and its grades in a single transaction.
	DeleteStudent(ctx context.Context, sc core.Scope, id int) error
	// SearchStudents matches q case-insensitively against first name, last name & student ID.
	SearchStudents(ctx context.Context, sc core.Scope, q string, limit int) ([]Student, error)
	CountStudents(ctx context.Context, sc core.Scope) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context, sc core.Scope) ([]Student, error) {
	return svc.repo.ListStudents(ctx, sc)
}

func (svc *Service) Get(ctx context.Context, sc core.Scope, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, sc, id)
}

// Create adds a student owned by the scope's user. ns must have been validated.
func (svc *Service) Create(ctx context.Context, sc core.Scope, ns NewStudent) (Student, error) {
	var s Student
	ns.apply(&s, sc.UserID)
	s.CreatedAt = time.Now().UTC()

	s, err := svc.repo.CreateStudent(ctx, s)
	if err != nil {
		if errors.Cause(err) == ErrExists {
			return Student{}, core.NewConflictError(err)
		}
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

// Update edits a student in scope; the editor becomes its owner. ns must have been validated.
func (svc *Service) Update(ctx context.Context, sc core.Scope, id int, ns NewStudent) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, sc, id)
	if err != nil {
		return Student{}, err
	}
	ns.apply(&s, sc.UserID)

	s, err = svc.repo.UpdateStudent(ctx, sc, s)
	if err != nil {
		switch errors.Cause(err) {
		case ErrExists:
			return Student{}, core.NewConflictError(err)
		case ErrNotFound:
			return Student{}, err
		}
		return Student{}, errors.Wrap(err, "updating student")
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, sc core.Scope, id int) error {
	return svc.repo.DeleteStudent(ctx, sc, id)
}

// Search returns at most SearchLimit students ordered by last & first name.
func (svc *Service) Search(ctx context.Context, sc core.Scope, q string) ([]Student, error) {
	// a blank query matches every student in scope, up to SearchLimit
	return svc.repo.SearchStudents(ctx, sc, core.CleanString(q), SearchLimit)
}

func (svc *Service) Count(ctx context.Context, sc core.Scope) (int, error) {
	return svc.repo.CountStudents(ctx, sc)
}
