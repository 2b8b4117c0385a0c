package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

// scopeClause returns the predicate restricting rows to sc, or "" when sc sees everything.
// It is the only place where visibility rules are turned into SQL.
func scopeClause(sc core.Scope, levelCol, teacherCol string) (string, []interface{}) {
	if sc.Unrestricted() {
		return "", nil
	}
	return levelCol + " = ? AND " + teacherCol + " = ?", []interface{}{string(sc.EducationLevel), sc.UserID}
}

// conditions accumulates WHERE predicates & their args.
type conditions struct {
	preds []string
	args  []interface{}
}

func (c *conditions) add(pred string, args ...interface{}) {
	if pred == "" {
		return
	}
	c.preds = append(c.preds, pred)
	c.args = append(c.args, args...)
}

func (c *conditions) scope(sc core.Scope, levelCol, teacherCol string) {
	c.add(scopeClause(sc, levelCol, teacherCol))
}

// where renders " WHERE p1 AND p2 ...", or "" without predicates.
func (c conditions) where() string {
	if len(c.preds) == 0 {
		return ""
	}
	return " WHERE (" + strings.Join(c.preds, ") AND (") + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern is a LIKE pattern matching q literally anywhere; use it with ESCAPE '\'.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// trapNoRowsErr maps sql.ErrNoRows to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// checkAffected returns notFound when res did not touch any row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
