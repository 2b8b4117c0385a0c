package subject

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound = errors.New("subject not found")
	ErrExists   = errors.New("subject code already exists")
)

// Repository persists subjects. Every read & write is restricted to the given Scope;
// rows outside of it are reported as ErrNotFound.
type Repository interface {
	ListSubjects(ctx context.Context, sc core.Scope) ([]Subject, error)
	GetSubject(ctx context.Context, sc core.Scope, id int) (Subject, error)
	// CreateSubject returns ErrExists on a uniqueness violation.
	CreateSubject(ctx context.Context, s Subject) (Subject, error)
	// UpdateSubject returns ErrExists on a uniqueness violation.
	UpdateSubject(ctx context.Context, sc core.Scope, s Subject) (Subject, error)
	// DeleteSubject removes the subject and its grades in a single transaction.
	DeleteSubject(ctx context.Context, sc core.Scope, id int) error
	CountSubjects(ctx context.Context, sc core.Scope) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context, sc core.Scope) ([]Subject, error) {
	return svc.repo.ListSubjects(ctx, sc)
}

func (svc *Service) Get(ctx context.Context, sc core.Scope, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, sc, id)
}

// Create adds a subject owned by the scope's user. ns must have been validated.
func (svc *Service) Create(ctx context.Context, sc core.Scope, ns NewSubject) (Subject, error) {
	var s Subject
	ns.apply(&s, sc.UserID)
	s.CreatedAt = time.Now().UTC()

	s, err := svc.repo.CreateSubject(ctx, s)
	if err != nil {
		if errors.Cause(err) == ErrExists {
			return Subject{}, core.NewConflictError(err)
		}
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	return s, nil
}

// Update edits a subject in scope; the editor becomes its owner. ns must have been validated.
func (svc *Service) Update(ctx context.Context, sc core.Scope, id int, ns NewSubject) (Subject, error) {
	s, err := svc.repo.GetSubject(ctx, sc, id)
	if err != nil {
		return Subject{}, err
	}
	ns.apply(&s, sc.UserID)

	s, err = svc.repo.UpdateSubject(ctx, sc, s)
	if err != nil {
		switch errors.Cause(err) {
		case ErrExists:
			return Subject{}, core.NewConflictError(err)
		case ErrNotFound:
			return Subject{}, err
		}
		return Subject{}, errors.Wrap(err, "updating subject")
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, sc core.Scope, id int) error {
	return svc.repo.DeleteSubject(ctx, sc, id)
}

func (svc *Service) Count(ctx context.Context, sc core.Scope) (int, error) {
	return svc.repo.CountSubjects(ctx, sc)
}
