package subject

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

// DefaultUnits is used when no units are submitted.
const DefaultUnits = 3

type Subject struct {
	ID             int                 `json:"id" db:"id"`
	Code           string              `json:"subject_code" db:"subject_code"`
	Name           string              `json:"subject_name" db:"subject_name"`
	Description    null.String         `json:"description" db:"description"`
	Units          int                 `json:"units" db:"units"`
	EducationLevel core.EducationLevel `json:"education_level" db:"education_level"`
	ClassYear      string              `json:"class_year" db:"class_year"`
	TeacherID      null.Int            `json:"teacher_id" db:"teacher_id"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"` // UTC
}

// NewSubject holds the add / edit subject form.
// Units is kept as text so that a malformed value is reported instead of failing the binding.
type NewSubject struct {
	Code           string `form:"subject_code" validate:"required,max=20"`
	Name           string `form:"subject_name" validate:"required,max=150"`
	Description    string `form:"description"`
	Units          string `form:"units" validate:"number"`
	EducationLevel string `form:"education_level" validate:"edulevel"`
	ClassYear      string `form:"class_year" validate:"max=20"`
}

// FromSubject pre-fills the edit form.
func FromSubject(s Subject) NewSubject {
	return NewSubject{
		Code:           s.Code,
		Name:           s.Name,
		Description:    s.Description.String,
		Units:          strconv.Itoa(s.Units),
		EducationLevel: s.EducationLevel.String(),
		ClassYear:      s.ClassYear,
	}
}

func (ns *NewSubject) Clean() {
	ns.Code = core.CleanString(ns.Code)
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	ns.Units = core.CleanString(ns.Units)
	if ns.Units == "" {
		ns.Units = strconv.Itoa(DefaultUnits)
	}
	ns.EducationLevel = string(core.ParseEducationLevel(ns.EducationLevel, core.Secondary))
	ns.ClassYear = core.CleanString(ns.ClassYear)
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// apply copies the form onto s and hands ownership to teacherID.
func (ns NewSubject) apply(s *Subject, teacherID int) {
	units, err := strconv.Atoi(ns.Units)
	if err != nil || units < 0 {
		units = DefaultUnits
	}
	s.Code = ns.Code
	s.Name = ns.Name
	s.Description = null.NewString(ns.Description, ns.Description != "")
	s.Units = units
	s.EducationLevel = core.EducationLevel(ns.EducationLevel)
	s.ClassYear = ns.ClassYear
	s.TeacherID = null.NewInt(teacherID, teacherID > 0)
}
