package grade

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
)

// Quarters are the grading period labels offered by the grade forms.
var Quarters = []string{"1st Quarter", "2nd Quarter", "3rd Quarter", "4th Quarter"}

type Grade struct {
	ID         int            `json:"id" db:"id"`
	StudentID  int            `json:"student_ref" db:"student_id"`
	SubjectID  int            `json:"subject_id" db:"subject_id"`
	Quarter    string         `json:"quarter" db:"quarter"`
	Prelim     float64        `json:"prelim" db:"prelim"`
	Midterm    float64        `json:"midterm" db:"midterm"`
	Finals     float64        `json:"finals" db:"finals"`
	FinalGrade float64        `json:"final_grade" db:"final_grade"`
	Remarks    grading.Remark `json:"remarks" db:"remarks"`
	TeacherID  null.Int       `json:"teacher_id" db:"teacher_id"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"` // UTC
}

// Passed reports whether the stored remark is PASSED.
func (g Grade) Passed() bool {
	return g.Remarks == grading.Passed
}

func (g *Grade) setScores(lvl core.EducationLevel, s grading.Scores) {
	g.Prelim, g.Midterm, g.Finals = s.Prelim, s.Midterm, s.Finals
	g.FinalGrade, g.Remarks = grading.Compute(lvl, s)
}

// Detail is a Grade joined with the student & subject it refers to.
type Detail struct {
	Grade
	FirstName             string              `json:"first_name" db:"first_name"`
	LastName              string              `json:"last_name" db:"last_name"`
	StudentCode           string              `json:"student_id" db:"sid"`
	StudentSection        string              `json:"student_section" db:"student_section"`
	StudentYearLevel      string              `json:"student_year_level" db:"student_year_level"`
	StudentEducationLevel core.EducationLevel `json:"student_education_level" db:"student_education_level"`
	StudentSchoolYear     string              `json:"student_school_year" db:"student_school_year"`
	SubjectCode           string              `json:"subject_code" db:"subject_code"`
	SubjectName           string              `json:"subject_name" db:"subject_name"`
	SubjectClassYear      string              `json:"subject_class_year" db:"subject_class_year"`
}

func (d Detail) StudentName() string {
	return d.FirstName + " " + d.LastName
}

// Filter narrows ListGrades; zero values are ignored.
type Filter struct {
	StudentID int
	SubjectID int
	Limit     int
}

// NewGrade holds the add grade form. Scores are kept as text: absent or invalid scores count as 0.
type NewGrade struct {
	StudentID int    `form:"student_id" validate:"required"`
	SubjectID int    `form:"subject_id" validate:"required"`
	Quarter   string `form:"quarter" validate:"required,max=50"`
	Prelim    string `form:"prelim"`
	Midterm   string `form:"midterm"`
	Finals    string `form:"finals"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Quarter = core.CleanString(ng.Quarter)
	return validate.Struct(ng)
}

func (ng NewGrade) Scores() grading.Scores {
	return scores(ng.Prelim, ng.Midterm, ng.Finals)
}

// UpdateGrade holds the edit grade form: only scores may change.
type UpdateGrade struct {
	Prelim  string `form:"prelim"`
	Midterm string `form:"midterm"`
	Finals  string `form:"finals"`
}

// FromGrade pre-fills the edit form.
func FromGrade(g Grade) UpdateGrade {
	return UpdateGrade{
		Prelim:  formatScore(g.Prelim),
		Midterm: formatScore(g.Midterm),
		Finals:  formatScore(g.Finals),
	}
}

func (ug UpdateGrade) Scores() grading.Scores {
	return scores(ug.Prelim, ug.Midterm, ug.Finals)
}

func scores(prelim, midterm, finals string) grading.Scores {
	return grading.Scores{
		Prelim:  grading.ParseScore(prelim),
		Midterm: grading.ParseScore(midterm),
		Finals:  grading.ParseScore(finals),
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
