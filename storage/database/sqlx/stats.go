package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/dashboard"
	"github.com/trezcool/gradebook/core/grading"
)

type statsRepository struct {
	db *sqlx.DB
}

var _ dashboard.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *sqlx.DB) *statsRepository {
	return &statsRepository{db: db}
}

func (repo statsRepository) SummarizeGrades(ctx context.Context, sc core.Scope) (dashboard.GradeSummary, error) {
	var c conditions
	c.scope(sc, "s.education_level", "s.teacher_id")

	q := repo.db.Rebind(`SELECT COUNT(g.id) AS total,
		COALESCE(SUM(CASE WHEN g.final_grade >= ? THEN 1 ELSE 0 END), 0) AS passed,
		COALESCE(AVG(g.final_grade), 0) AS avg_grade
		FROM grades g JOIN students s ON g.student_id = s.id` + c.where())

	var sum dashboard.GradeSummary
	args := append([]interface{}{grading.PassingGrade}, c.args...)
	if err := repo.db.GetContext(ctx, &sum, q, args...); err != nil {
		return dashboard.GradeSummary{}, errors.Wrap(err, "summarizing grades")
	}
	return sum, nil
}
