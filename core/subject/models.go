package subject

import (
	"github.com/go-playground/validator/v10"

	"github.com/gakuseki/gakuseki/core"
)

// Type tells required (必須) subjects from optional ones.
type Type string

const (
	TypeRequired Type = "required"
	TypeOptional Type = "optional"
)

const (
	defaultCourse        = "全"
	defaultExamFrequency = 1
)

type Subject struct {
	ID                 string `json:"id"`
	SubjectGroup       string `json:"subject_group"`
	Name               string `json:"name"`
	Credits            int    `json:"credits"`
	RequiredAttendance int    `json:"required_attendance"`
	RequiredReports    int    `json:"required_reports"`
	Type               Type   `json:"type"`
	Grade              int    `json:"grade"`
	TeacherIDs         []int  `json:"teacher_ids"`
	Course             string `json:"course"`
	ExamFrequency      int    `json:"exam_frequency"`
}

// withDefaults fills the fields older documents may lack.
func (s Subject) withDefaults() Subject {
	if s.Course == "" {
		s.Course = defaultCourse
	}
	if s.ExamFrequency == 0 {
		s.ExamFrequency = defaultExamFrequency
	}
	if s.TeacherIDs == nil {
		s.TeacherIDs = []int{}
	}
	return s
}

// Input contains the information needed to create or replace a Subject.
type Input struct {
	SubjectGroup       string `json:"subject_group"`
	Name               string `json:"name" validate:"required"`
	Credits            int    `json:"credits" validate:"min=0"`
	RequiredAttendance int    `json:"required_attendance" validate:"min=0"`
	RequiredReports    int    `json:"required_reports" validate:"min=0"`
	Type               Type   `json:"type" validate:"required,oneof=required optional"`
	Grade              int    `json:"grade" validate:"required,min=1,max=3"`
	TeacherIDs         []int  `json:"teacher_ids"`
	Course             string `json:"course" validate:"omitempty,course"`
	ExamFrequency      int    `json:"exam_frequency" validate:"omitempty,oneof=1 4"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.SubjectGroup = core.CleanString(in.SubjectGroup)
	in.Name = core.CleanString(in.Name)
	in.Course = core.CleanString(in.Course)
	return validate.Struct(in)
}

func (in Input) subject(id string) Subject {
	return Subject{
		ID:                 id,
		SubjectGroup:       in.SubjectGroup,
		Name:               in.Name,
		Credits:            in.Credits,
		RequiredAttendance: in.RequiredAttendance,
		RequiredReports:    in.RequiredReports,
		Type:               in.Type,
		Grade:              in.Grade,
		TeacherIDs:         in.TeacherIDs,
		Course:             in.Course,
		ExamFrequency:      in.ExamFrequency,
	}.withDefaults()
}
