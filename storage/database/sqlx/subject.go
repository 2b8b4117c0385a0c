package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/storage/database"
)

const subjectColumns = "id, subject_code, subject_name, description, units, education_level, class_year, teacher_id, created_at"

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo subjectRepository) ListSubjects(ctx context.Context, sc core.Scope) ([]subject.Subject, error) {
	var c conditions
	c.scope(sc, "education_level", "teacher_id")

	subjects := make([]subject.Subject, 0)
	q := repo.db.Rebind("SELECT " + subjectColumns + " FROM subjects" + c.where() + " ORDER BY subject_code")
	if err := repo.db.SelectContext(ctx, &subjects, q, c.args...); err != nil {
		return nil, errors.Wrap(err, "listing subjects")
	}
	return subjects, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, sc core.Scope, id int) (subject.Subject, error) {
	var c conditions
	c.add("id = ?", id)
	c.scope(sc, "education_level", "teacher_id")

	var s subject.Subject
	q := repo.db.Rebind("SELECT " + subjectColumns + " FROM subjects" + c.where())
	if err := repo.db.GetContext(ctx, &s, q, c.args...); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "getting subject")
	}
	return s, nil
}

func (repo subjectRepository) CreateSubject(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	q := repo.db.Rebind(`INSERT INTO subjects
		(subject_code, subject_name, description, units, education_level, class_year, teacher_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := repo.db.QueryRowxContext(ctx, q,
		s.Code, s.Name, s.Description, s.Units, string(s.EducationLevel), s.ClassYear, s.TeacherID, s.CreatedAt.UTC(),
	).Scan(&s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return subject.Subject{}, subject.ErrExists
		}
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return s, nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sc core.Scope, s subject.Subject) (subject.Subject, error) {
	var c conditions
	c.add("id = ?", s.ID)
	c.scope(sc, "education_level", "teacher_id")

	args := append([]interface{}{
		s.Code, s.Name, s.Description, s.Units, string(s.EducationLevel), s.ClassYear, s.TeacherID,
	}, c.args...)
	q := repo.db.Rebind(`UPDATE subjects SET subject_code = ?, subject_name = ?, description = ?, units = ?,
		education_level = ?, class_year = ?, teacher_id = ?` + c.where())
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return subject.Subject{}, subject.ErrExists
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if err = checkAffected(res, subject.ErrNotFound); err != nil {
		return subject.Subject{}, err
	}
	return s, nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, sc core.Scope, id int) error {
	var c conditions
	c.add("id = ?", id)
	c.scope(sc, "education_level", "teacher_id")

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var found []int
	if err = tx.SelectContext(ctx, &found, tx.Rebind("SELECT id FROM subjects"+c.where()), c.args...); err != nil {
		return errors.Wrap(err, "getting subject")
	}
	if len(found) == 0 {
		return subject.ErrNotFound
	}
	if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM grades WHERE subject_id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting subject grades")
	}
	if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM subjects WHERE id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return errors.Wrap(tx.Commit(), "committing subject deletion")
}

func (repo subjectRepository) CountSubjects(ctx context.Context, sc core.Scope) (int, error) {
	var c conditions
	c.scope(sc, "education_level", "teacher_id")

	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind("SELECT COUNT(*) FROM subjects"+c.where()), c.args...); err != nil {
		return 0, errors.Wrap(err, "counting subjects")
	}
	return n, nil
}
