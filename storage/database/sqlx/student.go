package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage/database"
)

const studentColumns = "id, student_id, first_name, last_name, email, section, year_level, education_level, school_year, teacher_id, created_at"

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) ListStudents(ctx context.Context, sc core.Scope) ([]student.Student, error) {
	var c conditions
	c.scope(sc, "education_level", "teacher_id")

	students := make([]student.Student, 0)
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students" + c.where() + " ORDER BY last_name, first_name, id")
	if err := repo.db.SelectContext(ctx, &students, q, c.args...); err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, sc core.Scope, id int) (student.Student, error) {
	var c conditions
	c.add("id = ?", id)
	c.scope(sc, "education_level", "teacher_id")

	var s student.Student
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students" + c.where())
	if err := repo.db.GetContext(ctx, &s, q, c.args...); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return s, nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := repo.db.Rebind(`INSERT INTO students
		(student_id, first_name, last_name, email, section, year_level, education_level, school_year, teacher_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := repo.db.QueryRowxContext(ctx, q,
		s.StudentID, s.FirstName, s.LastName, s.Email, s.Section, s.YearLevel,
		string(s.EducationLevel), s.SchoolYear, s.TeacherID, s.CreatedAt.UTC(),
	).Scan(&s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return student.Student{}, student.ErrExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, sc core.Scope, s student.Student) (student.Student, error) {
	var c conditions
	c.add("id = ?", s.ID)
	c.scope(sc, "education_level", "teacher_id")

	args := append([]interface{}{
		s.StudentID, s.FirstName, s.LastName, s.Email, s.Section, s.YearLevel,
		string(s.EducationLevel), s.SchoolYear, s.TeacherID,
	}, c.args...)
	q := repo.db.Rebind(`UPDATE students SET student_id = ?, first_name = ?, last_name = ?, email = ?, section = ?,
		year_level = ?, education_level = ?, school_year = ?, teacher_id = ?` + c.where())
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return student.Student{}, student.ErrExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, sc core.Scope, id int) error {
	var c conditions
	c.add("id = ?", id)
	c.scope(sc, "education_level", "teacher_id")

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var found []int
	if err = tx.SelectContext(ctx, &found, tx.Rebind("SELECT id FROM students"+c.where()), c.args...); err != nil {
		return errors.Wrap(err, "getting student")
	}
	if len(found) == 0 {
		return student.ErrNotFound
	}
	if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM grades WHERE student_id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting student grades")
	}
	if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM students WHERE id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return errors.Wrap(tx.Commit(), "committing student deletion")
}

func (repo studentRepository) SearchStudents(ctx context.Context, sc core.Scope, q string, limit int) ([]student.Student, error) {
	pattern := containsPattern(q)
	var c conditions
	c.add(`LOWER(first_name) LIKE LOWER(?) ESCAPE '\' OR LOWER(last_name) LIKE LOWER(?) ESCAPE '\'
		OR LOWER(student_id) LIKE LOWER(?) ESCAPE '\'`, pattern, pattern, pattern)
	c.scope(sc, "education_level", "teacher_id")

	students := make([]student.Student, 0)
	query := repo.db.Rebind("SELECT " + studentColumns + " FROM students" + c.where() +
		" ORDER BY last_name, first_name, id LIMIT ?")
	if err := repo.db.SelectContext(ctx, &students, query, append(c.args, limit)...); err != nil {
		return nil, errors.Wrap(err, "searching students")
	}
	return students, nil
}

func (repo studentRepository) CountStudents(ctx context.Context, sc core.Scope) (int, error) {
	var c conditions
	c.scope(sc, "education_level", "teacher_id")

	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind("SELECT COUNT(*) FROM students"+c.where()), c.args...); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return n, nil
}
