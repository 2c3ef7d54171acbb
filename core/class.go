package core

import "fmt"

// ClassRef identifies a homeroom class: course label, grade ("1".."3") and class name ("1組").
type ClassRef struct {
	Course    string `json:"course" query:"course" validate:"required,course"`
	Grade     string `json:"grade" query:"grade" validate:"required,oneof=1 2 3"`
	ClassName string `json:"class_name" query:"class_name" validate:"required"`
}

func NewClassRef(course, grade, className string) ClassRef {
	return ClassRef{Course: CleanString(course), Grade: CleanString(grade), ClassName: CleanString(className)}
}

// ID renders the class as "全-1-1組".
func (c ClassRef) ID() string {
	return fmt.Sprintf("%s-%s-%s", c.Course, c.Grade, c.ClassName)
}

func (c ClassRef) String() string {
	return c.ID()
}
