// Package testutil provides a migrated throwaway database and fixture helpers for tests.
package testutil

import (
	"context"
	"fmt"
	"net/mail"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/grading"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/storage/database"
)

const Password = "s3cret-Pa55"

// Config returns a test configuration using a sqlite database inside t.TempDir().
func Config(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Gradebook",
		Build:            "test",
		SecretKey:        "test-secret-key-test-secret-key!",
		DefaultFromEmail: mail.Address{Name: "Gradebook", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			Address:       ":0",
			Host:          "localhost",
			SessionMaxAge: time.Hour,
		},
		Database: core.DatabaseConfig{
			Engine: database.SQLite,
			Path:   filepath.Join(t.TempDir(), "gradebook_test.db"),
		},
	}
}

// PrepareDB opens & migrates a fresh database; it is closed when the test ends.
func PrepareDB(t *testing.T, conf ...*core.Config) *sqlx.DB {
	t.Helper()
	var c *core.Config
	if len(conf) > 0 {
		c = conf[0]
	} else {
		c = Config(t)
	}
	db, err := database.Open(c)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db, true /* quiet */); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, repo user.Repository, uname, role string, lvl core.EducationLevel) user.User {
	t.Helper()
	usr := user.User{
		Username:       uname,
		Email:          uname + "@example.com",
		Role:           role,
		EducationLevel: lvl,
		CreatedAt:      time.Now().UTC(),
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, teacher user.User, lvl core.EducationLevel, sid, first, last string) student.Student {
	t.Helper()
	s := student.Student{
		StudentID:      sid,
		FirstName:      first,
		LastName:       last,
		Email:          fmt.Sprintf("%s@students.example.com", sid),
		Section:        "A",
		YearLevel:      "1",
		EducationLevel: lvl,
		SchoolYear:     "2025-2026",
		TeacherID:      null.NewInt(teacher.ID, teacher.ID > 0),
		CreatedAt:      time.Now().UTC(),
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateSubject(t *testing.T, repo subject.Repository, teacher user.User, lvl core.EducationLevel, code, name string) subject.Subject {
	t.Helper()
	s := subject.Subject{
		Code:           code,
		Name:           name,
		Units:          subject.DefaultUnits,
		EducationLevel: lvl,
		ClassYear:      "2025",
		TeacherID:      null.NewInt(teacher.ID, teacher.ID > 0),
		CreatedAt:      time.Now().UTC(),
	}
	s, err := repo.CreateSubject(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return s
}

// CreateGrade records scores for stud in subj, computing the final grade from the student's level.
func CreateGrade(t *testing.T, repo grade.Repository, stud student.Student, subj subject.Subject, scores grading.Scores, updatedAt ...time.Time) grade.Grade {
	t.Helper()
	now := time.Now().UTC()
	if len(updatedAt) > 0 {
		now = updatedAt[0].UTC()
	}
	final, remark := grading.Compute(stud.EducationLevel, scores)
	g := grade.Grade{
		StudentID:  stud.ID,
		SubjectID:  subj.ID,
		Quarter:    grade.Quarters[0],
		Prelim:     scores.Prelim,
		Midterm:    scores.Midterm,
		Finals:     scores.Finals,
		FinalGrade: final,
		Remarks:    remark,
		TeacherID:  stud.TeacherID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	g, err := repo.CreateGrade(context.Background(), g)
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return g
}
