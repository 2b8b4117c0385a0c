package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
)

const gradeDetailSelect = `SELECT g.id, g.student_id, g.subject_id, g.quarter, g.prelim, g.midterm, g.finals,
	g.final_grade, g.remarks, g.teacher_id, g.created_at, g.updated_at,
	s.first_name, s.last_name, s.student_id AS sid, s.section AS student_section, s.year_level AS student_year_level,
	s.education_level AS student_education_level, s.school_year AS student_school_year,
	sub.subject_code, sub.subject_name, sub.class_year AS subject_class_year
	FROM grades g
	JOIN students s ON g.student_id = s.id
	JOIN subjects sub ON g.subject_id = sub.id`

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

// studentScope restricts grades (without join) to those whose student is in sc.
func studentScope(c *conditions, sc core.Scope) {
	pred, args := scopeClause(sc, "education_level", "teacher_id")
	if pred != "" {
		c.add("student_id IN (SELECT id FROM students WHERE "+pred+")", args...)
	}
}

func (repo gradeRepository) ListGrades(ctx context.Context, sc core.Scope, filter grade.Filter) ([]grade.Detail, error) {
	var c conditions
	c.scope(sc, "s.education_level", "s.teacher_id")
	if filter.StudentID > 0 {
		c.add("g.student_id = ?", filter.StudentID)
	}
	if filter.SubjectID > 0 {
		c.add("g.subject_id = ?", filter.SubjectID)
	}

	q := gradeDetailSelect + c.where() + " ORDER BY g.updated_at DESC, g.id DESC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		c.args = append(c.args, filter.Limit)
	}

	grades := make([]grade.Detail, 0)
	if err := repo.db.SelectContext(ctx, &grades, repo.db.Rebind(q), c.args...); err != nil {
		return nil, errors.Wrap(err, "listing grades")
	}
	return grades, nil
}

func (repo gradeRepository) GetGrade(ctx context.Context, sc core.Scope, id int) (grade.Detail, error) {
	var c conditions
	c.add("g.id = ?", id)
	c.scope(sc, "s.education_level", "s.teacher_id")

	var d grade.Detail
	if err := repo.db.GetContext(ctx, &d, repo.db.Rebind(gradeDetailSelect+c.where()), c.args...); err != nil {
		return grade.Detail{}, trapNoRowsErr(err, grade.ErrNotFound, "getting grade")
	}
	return d, nil
}

func (repo gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	q := repo.db.Rebind(`INSERT INTO grades
		(student_id, subject_id, quarter, prelim, midterm, finals, final_grade, remarks, teacher_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := repo.db.QueryRowxContext(ctx, q,
		g.StudentID, g.SubjectID, g.Quarter, g.Prelim, g.Midterm, g.Finals, g.FinalGrade, string(g.Remarks),
		g.TeacherID, g.CreatedAt.UTC(), g.UpdatedAt.UTC(),
	).Scan(&g.ID)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, sc core.Scope, g grade.Grade) (grade.Grade, error) {
	var c conditions
	c.add("id = ?", g.ID)
	studentScope(&c, sc)

	args := append([]interface{}{
		g.Prelim, g.Midterm, g.Finals, g.FinalGrade, string(g.Remarks), g.UpdatedAt.UTC(),
	}, c.args...)
	q := repo.db.Rebind(`UPDATE grades SET prelim = ?, midterm = ?, finals = ?, final_grade = ?, remarks = ?, updated_at = ?` + c.where())
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if err = checkAffected(res, grade.ErrNotFound); err != nil {
		return grade.Grade{}, err
	}
	return g, nil
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, sc core.Scope, id int) error {
	var c conditions
	c.add("id = ?", id)
	studentScope(&c, sc)

	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM grades"+c.where()), c.args...)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return checkAffected(res, grade.ErrNotFound)
}

func (repo gradeRepository) CountGrades(ctx context.Context, sc core.Scope) (int, error) {
	var c conditions
	c.scope(sc, "s.education_level", "s.teacher_id")

	var n int
	q := repo.db.Rebind("SELECT COUNT(*) FROM grades g JOIN students s ON g.student_id = s.id" + c.where())
	if err := repo.db.GetContext(ctx, &n, q, c.args...); err != nil {
		return 0, errors.Wrap(err, "counting grades")
	}
	return n, nil
}
