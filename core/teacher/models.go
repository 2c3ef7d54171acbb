package teacher

import (
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/gakuseki/gakuseki/core"
)

// Homeroom is a class a teacher is in charge of.
type Homeroom struct {
	Grade     int    `json:"grade" validate:"min=1,max=3"`
	ClassName string `json:"class_name" validate:"required"`
	Course    string `json:"course" validate:"required,course"`
}

// Is reports whether h is the homeroom of class.
func (h Homeroom) Is(class core.ClassRef) bool {
	return strconv.Itoa(h.Grade) == class.Grade && h.ClassName == class.ClassName && h.Course == class.Course
}

type Teacher struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Subjects  []string   `json:"subjects"`
	Homerooms []Homeroom `json:"homerooms"`
}

// Input contains the information needed to create or replace a Teacher.
type Input struct {
	Name      string     `json:"name" validate:"required"`
	Subjects  []string   `json:"subjects"`
	Homerooms []Homeroom `json:"homerooms" validate:"dive"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	for i := range in.Homerooms {
		in.Homerooms[i].ClassName = core.CleanString(in.Homerooms[i].ClassName)
		in.Homerooms[i].Course = core.CleanString(in.Homerooms[i].Course)
	}
	return validate.Struct(in)
}

func (in Input) teacher(id int) Teacher {
	t := Teacher{ID: id, Name: in.Name, Subjects: in.Subjects, Homerooms: in.Homerooms}
	if t.Subjects == nil {
		t.Subjects = []string{}
	}
	if t.Homerooms == nil {
		t.Homerooms = []Homeroom{}
	}
	return t
}
