package core

// EducationLevel classifies students, subjects and teachers; it scopes what a teacher sees.
type EducationLevel string

const (
	Primary   EducationLevel = "Primary"
	Secondary EducationLevel = "Secondary"
	Tertiary  EducationLevel = "Tertiary"
)

var EducationLevels = []EducationLevel{Primary, Secondary, Tertiary}

func (lvl EducationLevel) Valid() bool {
	switch lvl {
	case Primary, Secondary, Tertiary:
		return true
	}
	return false
}

func (lvl EducationLevel) String() string { return string(lvl) }

// ParseEducationLevel returns def when s is blank; unknown values are returned as-is so validation can reject them.
func ParseEducationLevel(s string, def EducationLevel) EducationLevel {
	s = CleanString(s)
	if s == "" {
		return def
	}
	return EducationLevel(s)
}
