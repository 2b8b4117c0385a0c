package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

type Student struct {
	ID             int                 `json:"id" db:"id"`
	StudentID      string              `json:"student_id" db:"student_id"`
	FirstName      string              `json:"first_name" db:"first_name"`
	LastName       string              `json:"last_name" db:"last_name"`
	Email          string              `json:"email" db:"email"`
	Section        string              `json:"section" db:"section"`
	YearLevel      string              `json:"year_level" db:"year_level"`
	EducationLevel core.EducationLevel `json:"education_level" db:"education_level"`
	SchoolYear     string              `json:"school_year" db:"school_year"`
	TeacherID      null.Int            `json:"teacher_id" db:"teacher_id"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"` // UTC
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStudent holds the add / edit student form.
type NewStudent struct {
	StudentID      string `form:"student_id" validate:"required,max=50"`
	FirstName      string `form:"first_name" validate:"required,max=100"`
	LastName       string `form:"last_name" validate:"required,max=100"`
	Email          string `form:"email" validate:"required,email"`
	Section        string `form:"section" validate:"max=50"`
	YearLevel      string `form:"year_level" validate:"max=50"`
	EducationLevel string `form:"education_level" validate:"edulevel"`
	SchoolYear     string `form:"school_year" validate:"max=20"`
}

// FromStudent pre-fills the edit form.
func FromStudent(s Student) NewStudent {
	return NewStudent{
		StudentID:      s.StudentID,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		Section:        s.Section,
		YearLevel:      s.YearLevel,
		EducationLevel: s.EducationLevel.String(),
		SchoolYear:     s.SchoolYear,
	}
}

func (ns *NewStudent) Clean() {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Section = core.CleanString(ns.Section)
	ns.YearLevel = core.CleanString(ns.YearLevel)
	ns.EducationLevel = string(core.ParseEducationLevel(ns.EducationLevel, core.Secondary))
	ns.SchoolYear = core.CleanString(ns.SchoolYear)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// apply copies the form onto s and hands ownership to teacherID.
func (ns NewStudent) apply(s *Student, teacherID int) {
	s.StudentID = ns.StudentID
	s.FirstName = ns.FirstName
	s.LastName = ns.LastName
	s.Email = ns.Email
	s.Section = ns.Section
	s.YearLevel = ns.YearLevel
	s.EducationLevel = core.EducationLevel(ns.EducationLevel)
	s.SchoolYear = ns.SchoolYear
	s.TeacherID = null.NewInt(teacherID, teacherID > 0)
}
