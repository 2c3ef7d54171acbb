package student

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
)

// Course is the schooling course of a student.
type Course string

const (
	CourseFull      Course = "全" // full time
	CourseWednesday Course = "水"
	CourseIntensive Course = "集"
)

var courseCodes = map[Course]string{
	CourseFull:      "z",
	CourseWednesday: "w",
	CourseIntensive: "s",
}

// Code is the one letter code used in student ids.
func (c Course) Code() string {
	return courseCodes[c]
}

// ParseCourse accepts a course label (全), code (z) or english name (full).
func ParseCourse(s string) (Course, bool) {
	switch strings.ToLower(core.CleanString(s)) {
	case "全", "z", "full":
		return CourseFull, true
	case "水", "w", "wednesday":
		return CourseWednesday, true
	case "集", "s", "intensive":
		return CourseIntensive, true
	}
	return "", false
}

type Gender string

const (
	Male   Gender = "男"
	Female Gender = "女"
)

// ParseGender accepts 男/女 or male/female.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(core.CleanString(s)) {
	case "男", "male":
		return Male, true
	case "女", "female":
		return Female, true
	}
	return "", false
}

// AttendNo is a seat (attendance) number. Older documents store it as a number.
type AttendNo string

func (n *AttendNo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = AttendNo(s)
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return err
		}
		*n = AttendNo(num.String())
	}
	return nil
}

// Int returns the seat number, false when it is not numeric.
func (n AttendNo) Int() (int, bool) {
	i, err := strconv.Atoi(string(n))
	return i, err == nil
}

// Profile holds the personal and contact fields of a student.
type Profile struct {
	BirthDate          string `json:"birth_date"`
	AdmissionDate      string `json:"admission_date"`
	JuniorHigh         string `json:"junior_high"`
	JuniorHighGradDate string `json:"junior_high_grad_date"`
	PostalCode         string `json:"postal_code"`
	Address1           string `json:"address1"`
	Address2           string `json:"address2"`
	Phone              string `json:"phone"`
	PhoneLabel         string `json:"phone_label"`
	Guardian1          string `json:"guardian1"`
	Guardian1Kana      string `json:"guardian1_kana"`
	GuardianAddress    string `json:"guardian_address"`
	Emergency1         string `json:"emergency1"`
	Emergency2         string `json:"emergency2"`
	Emergency1Label    string `json:"emergency1label"`
	Emergency2Label    string `json:"emergency2label"`
	ContactTime        string `json:"contact_time"`
	Note1              string `json:"note1"`
	Note2              string `json:"note2"`
	Commute            string `json:"commute"`
}

func (p *Profile) fields() []*string {
	return []*string{
		&p.BirthDate, &p.AdmissionDate, &p.JuniorHigh, &p.JuniorHighGradDate, &p.PostalCode,
		&p.Address1, &p.Address2, &p.Phone, &p.PhoneLabel, &p.Guardian1, &p.Guardian1Kana,
		&p.GuardianAddress, &p.Emergency1, &p.Emergency2, &p.Emergency1Label, &p.Emergency2Label,
		&p.ContactTime, &p.Note1, &p.Note2, &p.Commute,
	}
}

func (p *Profile) clean() {
	for _, f := range p.fields() {
		*f = core.CleanString(*f)
	}
}

// merge keeps the fields of orig that p leaves empty.
func (p *Profile) merge(orig Profile) {
	origFields := orig.fields()
	for i, f := range p.fields() {
		if *f == "" {
			*f = *origFields[i]
		}
	}
}

// Suspension is a 休学 interval. End is empty while the student is still suspended.
type Suspension struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason,omitempty"`
}

// overlaps reports whether the suspension overlaps the school year sy.
func (s Suspension) overlaps(sy int) bool {
	yearStart, yearEnd := core.SchoolYearBounds(sy)
	start, err := core.ParseDate(s.Start)
	if err != nil {
		return false
	}
	end := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	if s.End != "" {
		if end, err = core.ParseDate(s.End); err != nil {
			return false
		}
	}
	return !start.After(yearEnd) && !end.Before(yearStart)
}

// Outcome is how a school year ended for a student.
type Outcome string

const (
	OutcomePromoted  Outcome = "promoted"
	OutcomeGraduated Outcome = "graduated"
	OutcomeRepeated  Outcome = "repeated"
	OutcomeSuspended Outcome = "suspended"
)

// YearRecord archives one school year of a student, with the attendance frozen at the end of it.
// Key is "1st_year", "2nd_year", "3rd_year" suffixed by the attempt, e.g. "2nd_year(2)".
type YearRecord struct {
	Key        string              `json:"key"`
	Grade      string              `json:"grade"`
	SchoolYear int                 `json:"school_year"`
	Nendo      string              `json:"nendo"`
	Attempt    string              `json:"attempt"`
	Outcome    Outcome             `json:"outcome"`
	ClassName  string              `json:"class_name"`
	AttendNo   AttendNo            `json:"attend_no"`
	Teachers   []string            `json:"teachers"`
	Attendance attendance.Counters `json:"attendance"`
}

type Student struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kana      string   `json:"kana"`
	Gender    Gender   `json:"gender"`
	Course    Course   `json:"course"`
	Grade     string   `json:"grade"`
	ClassName string   `json:"class_name"`
	AttendNo  AttendNo `json:"attend_no"`
	Profile

	Status            Status       `json:"status"`
	SuspensionHistory []Suspension `json:"suspension_history"`
	History           []YearRecord `json:"history"`
	GraduatedYear     string       `json:"graduated_year,omitempty"`
}

// Class returns the homeroom class of the student.
func (s Student) Class() core.ClassRef {
	return core.NewClassRef(string(s.Course), s.Grade, s.ClassName)
}

// withDefaults fills the fields older documents may lack.
func (s Student) withDefaults() Student {
	if s.Status == "" {
		s.Status = StatusEnrolled
	}
	if s.SuspensionHistory == nil {
		s.SuspensionHistory = []Suspension{}
	}
	if s.History == nil {
		s.History = []YearRecord{}
	}
	return s
}

// suspendedDuring reports whether any suspension of the student overlaps the school year sy.
func (s Student) suspendedDuring(sy int) bool {
	for _, susp := range s.SuspensionHistory {
		if susp.overlaps(sy) {
			return true
		}
	}
	return false
}

var yearPrefixes = map[string]string{"1": "1st_year", "2": "2nd_year", "3": "3rd_year"}

// attempt returns the suffix of the next history entry of grade: "" the first time, then "(2)", "(3)"...
func (s Student) attempt(grade string) string {
	var n int
	for _, rec := range s.History {
		if rec.Grade == grade {
			n++
		}
	}
	if n == 0 {
		return ""
	}
	return "(" + strconv.Itoa(n+1) + ")"
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name      string   `json:"name" validate:"required"`
	Kana      string   `json:"kana" validate:"required"`
	Gender    Gender   `json:"gender" validate:"omitempty,gender"`
	Year      string   `json:"year" validate:"required,numeric,len=4"` // admission year, first part of the id
	Course    Course   `json:"course" validate:"required,course"`
	Grade     string   `json:"grade" validate:"omitempty,oneof=1 2 3"`
	ClassName string   `json:"class_name"`
	AttendNo  AttendNo `json:"attend_no"`
	Profile
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Kana = core.CleanString(ns.Kana)
	ns.Year = core.CleanString(ns.Year)
	ns.Grade = core.CleanString(ns.Grade)
	ns.ClassName = core.CleanString(ns.ClassName)
	if ns.Grade == "" {
		ns.Grade = "1"
	}
	ns.Profile.clean()
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	Name      string   `json:"name"`
	Kana      string   `json:"kana"`
	Gender    Gender   `json:"gender" validate:"omitempty,gender"`
	Course    Course   `json:"course" validate:"omitempty,course"`
	Grade     string   `json:"grade" validate:"omitempty,oneof=1 2 3"`
	ClassName string   `json:"class_name"`
	AttendNo  AttendNo `json:"attend_no"`
	Profile
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Kana = core.CleanString(us.Kana)
	us.Grade = core.CleanString(us.Grade)
	us.ClassName = core.CleanString(us.ClassName)
	us.Profile.clean()
	return validate.Struct(us)
}

// apply merges the non empty fields into s.
func (us UpdateStudent) apply(s *Student) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.Name, us.Name)
	set(&s.Kana, us.Kana)
	set(&s.Grade, us.Grade)
	set(&s.ClassName, us.ClassName)
	if us.Gender != "" {
		s.Gender = us.Gender
	}
	if us.Course != "" {
		s.Course = us.Course
	}
	if us.AttendNo != "" {
		s.AttendNo = us.AttendNo
	}
	p := us.Profile
	p.merge(s.Profile)
	s.Profile = p
}

// QueryFilter selects students of a grade. Course and gender accept any form understood by
// ParseCourse and ParseGender.
type QueryFilter struct {
	Grade     string `query:"grade" validate:"required,oneof=1 2 3"`
	Course    string `query:"course"`
	Gender    string `query:"gender"`
	ClassName string `query:"class_name"`
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.Grade = core.CleanString(qf.Grade)
	qf.ClassName = core.CleanString(qf.ClassName)
	if err := validate.Struct(qf); err != nil {
		return err
	}
	var flds []core.FieldError
	if qf.Course != "" {
		if _, ok := ParseCourse(qf.Course); !ok {
			flds = append(flds, core.FieldError{Field: "course", Error: "unknown course"})
		}
	}
	if qf.Gender != "" {
		if _, ok := ParseGender(qf.Gender); !ok {
			flds = append(flds, core.FieldError{Field: "gender", Error: "unknown gender"})
		}
	}
	if flds != nil {
		return core.NewValidationError(errInvalidFilter, flds...)
	}
	return nil
}

func (qf QueryFilter) match(s Student) bool {
	if s.Grade != qf.Grade {
		return false
	}
	if c, ok := ParseCourse(qf.Course); ok && s.Course != c {
		return false
	}
	if g, ok := ParseGender(qf.Gender); ok && s.Gender != g {
		return false
	}
	return qf.ClassName == "" || s.ClassName == qf.ClassName
}
