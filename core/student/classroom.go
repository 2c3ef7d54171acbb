package student

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

var ErrNoStudents = core.NewNotFoundError("no student matches")

type (
	Renumber struct {
		Grade     string `json:"grade" validate:"required,oneof=1 2 3"`
		ClassName string `json:"class_name" validate:"required"`
	}

	Preview struct {
		Grade     string   `json:"grade"`
		Course    string   `json:"course"`
		ClassName string   `json:"class_name" validate:"required"`
		IDs       []string `json:"student_ids" validate:"required,min=1"`
	}

	PreviewResult struct {
		ClassName string    `json:"class_name"`
		Students  []Student `json:"students"`
		Male      int       `json:"male"`
		Female    int       `json:"female"`
		Total     int       `json:"total"`
	}

	Seat struct {
		ID       string   `json:"id" validate:"required"`
		AttendNo AttendNo `json:"attend_no" validate:"required"`
	}

	Commit struct {
		ClassName string `json:"class_name" validate:"required"`
		Students  []Seat `json:"students" validate:"required,min=1,dive"`
	}

	SingleClass struct {
		Grade  string `json:"grade" validate:"required,oneof=1 2 3"`
		Course Course `json:"course" validate:"required,course"`
	}

	Seating struct {
		core.ClassRef
		PreferredLayout json.RawMessage `json:"preferred_layout"`
	}
)

func (r *Renumber) Validate(validate *validator.Validate) error {
	r.Grade = core.CleanString(r.Grade)
	r.ClassName = core.CleanString(r.ClassName)
	return validate.Struct(r)
}

func (p *Preview) Validate(validate *validator.Validate) error {
	p.ClassName = core.CleanString(p.ClassName)
	return validate.Struct(p)
}

func (c *Commit) Validate(validate *validator.Validate) error {
	c.ClassName = core.CleanString(c.ClassName)
	return validate.Struct(c)
}

func (sc *SingleClass) Validate(validate *validator.Validate) error {
	sc.Grade = core.CleanString(sc.Grade)
	return validate.Struct(sc)
}

func (s *Seating) Validate(validate *validator.Validate) error {
	return validate.Struct(s)
}

func byKana(students []Student) {
	sort.SliceStable(students, func(i, j int) bool { return students[i].Kana < students[j].Kana })
}

// Renumber gives the students of a class seat numbers 1..n in kana order.
func (svc *Service) Renumber(ctx context.Context, req Renumber) ([]Student, error) {
	var renumbered []Student
	err := svc.update(ctx, func(r *roster) error {
		idx := make([]int, 0)
		for i, s := range r.students {
			if s.Grade == req.Grade && s.ClassName == req.ClassName {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			return ErrNoStudents
		}
		sort.SliceStable(idx, func(a, b int) bool { return r.students[idx[a]].Kana < r.students[idx[b]].Kana })
		for n, i := range idx {
			r.students[i].AttendNo = AttendNo(strconv.Itoa(n + 1))
			renumbered = append(renumbered, r.students[i])
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "renumbering class")
	}
	return renumbered, nil
}

// Preview shows the students as they would be seated in a new class. Nothing is saved.
func (svc *Service) Preview(ctx context.Context, req Preview) (PreviewResult, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return PreviewResult{}, err
	}
	ids := newIDSet(req.IDs)
	selected := make([]Student, 0, len(req.IDs))
	for _, s := range students {
		if ids.has(s.ID) {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return PreviewResult{}, ErrNoStudents
	}

	byKana(selected)
	res := PreviewResult{ClassName: req.ClassName, Students: selected, Total: len(selected)}
	for i := range selected {
		selected[i].AttendNo = AttendNo(strconv.Itoa(i + 1))
		switch selected[i].Gender {
		case Male:
			res.Male++
		case Female:
			res.Female++
		}
	}
	return res, nil
}

// Commit saves the class and seat number of every listed student. Nothing is saved if one is missing.
func (svc *Service) Commit(ctx context.Context, req Commit) (int, error) {
	err := svc.update(ctx, func(r *roster) error {
		for _, seat := range req.Students {
			if indexOf(r.students, seat.ID) < 0 {
				return core.NewNotFoundError("student " + seat.ID + " not found")
			}
		}
		for _, seat := range req.Students {
			s := &r.students[indexOf(r.students, seat.ID)]
			s.ClassName = req.ClassName
			s.AttendNo = seat.AttendNo
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "committing class")
	}
	return len(req.Students), nil
}

// AssignSingle seats every student of a grade in a single class course into 1組, in kana order.
func (svc *Service) AssignSingle(ctx context.Context, req SingleClass) ([]Seat, error) {
	var seats []Seat
	err := svc.update(ctx, func(r *roster) error {
		idx := make([]int, 0)
		for i, s := range r.students {
			if s.Grade == req.Grade && s.Course == req.Course {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			return ErrNoStudents
		}
		sort.SliceStable(idx, func(a, b int) bool { return r.students[idx[a]].Kana < r.students[idx[b]].Kana })
		for n, i := range idx {
			s := &r.students[i]
			s.ClassName = "1組"
			s.AttendNo = AttendNo(strconv.Itoa(n + 1))
			seats = append(seats, Seat{ID: s.ID, AttendNo: s.AttendNo})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "assigning class")
	}
	return seats, nil
}

// Grades lists the grades having students.
func (svc *Service) Grades(ctx context.Context) ([]string, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return nil, err
	}
	return distinct(students, func(s Student) string { return s.Grade }), nil
}

// Classes lists the class names of grade. It is empty until students are split into classes.
func (svc *Service) Classes(ctx context.Context, grade string) ([]string, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return nil, err
	}
	grade = core.CleanString(grade)
	return distinct(students, func(s Student) string {
		if s.Grade != grade {
			return ""
		}
		return s.ClassName
	}), nil
}

// ClassList lists every homeroom class having students.
func (svc *Service) ClassList(ctx context.Context) ([]core.ClassRef, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	classes := make([]core.ClassRef, 0)
	for _, s := range students {
		if s.ClassName == "" {
			continue
		}
		class := s.Class()
		if !seen[class.ID()] {
			seen[class.ID()] = true
			classes = append(classes, class)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID() < classes[j].ID() })
	return classes, nil
}

// ByClass lists the students of class in seat number order.
func (svc *Service) ByClass(ctx context.Context, class core.ClassRef) ([]Student, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return nil, err
	}
	found := make([]Student, 0)
	for _, s := range students {
		if s.Class() == class {
			found = append(found, s)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		a, aok := found[i].AttendNo.Int()
		b, bok := found[j].AttendNo.Int()
		if aok != bok {
			return aok
		}
		return a < b
	})
	return found, nil
}

func distinct(students []Student, field func(Student) string) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, s := range students {
		if v := field(s); v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

// GetSeating returns the seating layout saved for class, nil when none was.
func (svc *Service) GetSeating(ctx context.Context, class core.ClassRef) (json.RawMessage, error) {
	prefs := make(map[string]json.RawMessage)
	if err := core.Load(ctx, svc.store, SeatingKey, &prefs); err != nil {
		return nil, errors.Wrap(err, "loading seating preferences")
	}
	return prefs[class.ID()], nil
}

func (svc *Service) SaveSeating(ctx context.Context, req Seating) error {
	prefs := make(map[string]json.RawMessage)
	err := core.Update(ctx, svc.store, SeatingKey, &prefs, func() error {
		prefs[req.ClassRef.ID()] = req.PreferredLayout
		return nil
	})
	return errors.Wrap(err, "saving seating preferences")
}
