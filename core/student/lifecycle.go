package student

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

var exitKeys = map[Status]string{
	StatusWithdrawn:   "exit/taigaku",
	StatusTransferred: "exit/tengaku",
	StatusStruckOff:   "exit/joseki",
}

// ExitKey is the store key of the exit events of kind (退学, 転学 or 除籍).
func ExitKey(kind Status) string {
	return exitKeys[kind]
}

type (
	Suspend struct {
		Start  string `json:"start" validate:"required,isodate"`
		Reason string `json:"reason"`
	}

	Resume struct {
		End string `json:"end" validate:"required,isodate"`
	}

	// Exit removes a student from the school.
	Exit struct {
		Kind              Status `json:"kind" validate:"required,oneof=退学 転学 除籍"`
		Date              string `json:"date" validate:"required,isodate"`
		DestinationSchool string `json:"destination_school" validate:"required_if=Kind 転学"`
	}

	ExitEvent struct {
		Event             Status    `json:"event"`
		EventDate         string    `json:"event_date"`
		DestinationSchool string    `json:"destination_school,omitempty"`
		SchoolYear        int       `json:"school_year"`
		Timestamp         time.Time `json:"timestamp"`
		Student           Student   `json:"student"`
	}

	ExitSummary struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Kana   string `json:"kana"`
		Gender Gender `json:"gender"`
	}

	ExitListEntry struct {
		Type    Status      `json:"type"`
		Date    string      `json:"date"`
		Student ExitSummary `json:"student"`
	}

	CourseChange struct {
		Course string `json:"new_course" validate:"required,oneof=z w s"`
	}

	CourseChangeResult struct {
		Status    string   `json:"status"` // "ok" or "no_change"
		Course    Course   `json:"course"`
		ClassName string   `json:"class_name"`
		AttendNo  AttendNo `json:"attend_no"`
	}
)

func (s *Suspend) Validate(validate *validator.Validate) error {
	s.Start = core.CleanString(s.Start)
	s.Reason = core.CleanString(s.Reason)
	return validate.Struct(s)
}

func (r *Resume) Validate(validate *validator.Validate) error {
	r.End = core.CleanString(r.End)
	return validate.Struct(r)
}

func (e *Exit) Validate(validate *validator.Validate) error {
	e.Date = core.CleanString(e.Date)
	e.DestinationSchool = core.CleanString(e.DestinationSchool)
	return validate.Struct(e)
}

func (cc *CourseChange) Validate(validate *validator.Validate) error {
	cc.Course = core.CleanString(cc.Course, true /* lower */)
	return validate.Struct(cc)
}

// Suspend puts an enrolled student on leave (休学).
func (svc *Service) Suspend(ctx context.Context, id string, req Suspend) (Student, error) {
	var s Student
	err := svc.update(ctx, func(r *roster) error {
		i := indexOf(r.students, id)
		if i < 0 {
			return ErrNotFound
		}
		st := &r.students[i]
		if err := st.Status.transition(StatusSuspended); err != nil {
			return err
		}
		st.Status = StatusSuspended
		st.SuspensionHistory = append(st.SuspensionHistory, Suspension{Start: req.Start, Reason: req.Reason})
		s = *st
		return nil
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "suspending student")
	}
	return s, nil
}

// Resume ends the current suspension of a student.
func (svc *Service) Resume(ctx context.Context, id string, req Resume) (Student, error) {
	var s Student
	err := svc.update(ctx, func(r *roster) error {
		i := indexOf(r.students, id)
		if i < 0 {
			return ErrNotFound
		}
		st := &r.students[i]
		if err := st.Status.transition(StatusEnrolled); err != nil {
			return err
		}
		st.Status = StatusEnrolled
		for j := len(st.SuspensionHistory) - 1; j >= 0; j-- {
			if st.SuspensionHistory[j].End == "" {
				st.SuspensionHistory[j].End = req.End
				break
			}
		}
		s = *st
		return nil
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "resuming student")
	}
	return s, nil
}

// Exit removes a student from the current students and appends the event to the exit list of its kind.
func (svc *Service) Exit(ctx context.Context, id string, req Exit) (ExitEvent, error) {
	key := ExitKey(req.Kind)
	if key == "" {
		return ExitEvent{}, core.NewValidationError(errors.New("invalid exit kind"), core.FieldError{Field: "kind", Error: "kind must be one of 退学, 転学, 除籍"})
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return ExitEvent{}, errors.Wrap(err, "parsing exit date")
	}

	var event ExitEvent
	err = svc.update(ctx, func(r *roster) error {
		i := indexOf(r.students, id)
		if i < 0 {
			return ErrNotFound
		}
		s := r.students[i]
		if err := s.Status.transition(req.Kind); err != nil {
			return err
		}
		s.Status = req.Kind

		event = ExitEvent{
			Event:             req.Kind,
			EventDate:         date.Format(core.DateLayout),
			DestinationSchool: req.DestinationSchool,
			SchoolYear:        core.SchoolYear(date),
			Timestamp:         nowFunc().UTC(),
			Student:           s,
		}
		var events []ExitEvent
		if err := core.Load(ctx, svc.store, key, &events); err != nil {
			return errors.Wrap(err, "loading exit events")
		}
		events = append(events, event)
		if err := svc.store.Put(ctx, key, events); err != nil {
			return errors.Wrap(err, "saving exit events")
		}

		r.students = append(r.students[:i], r.students[i+1:]...)
		return nil
	}, key)
	if err != nil {
		return ExitEvent{}, errors.Wrap(err, "removing student")
	}
	return event, nil
}

// ExitList groups every exit event by school year, sorted by date.
func (svc *Service) ExitList(ctx context.Context) (map[string][]ExitListEntry, error) {
	list := make(map[string][]ExitListEntry)
	for _, kind := range []Status{StatusWithdrawn, StatusTransferred, StatusStruckOff} {
		var events []ExitEvent
		if err := core.Load(ctx, svc.store, ExitKey(kind), &events); err != nil {
			return nil, errors.Wrap(err, "loading exit events")
		}
		for _, e := range events {
			year := strconv.Itoa(e.SchoolYear)
			list[year] = append(list[year], ExitListEntry{
				Type: kind,
				Date: e.EventDate,
				Student: ExitSummary{
					ID:     e.Student.ID,
					Name:   e.Student.Name,
					Kana:   e.Student.Kana,
					Gender: e.Student.Gender,
				},
			})
		}
	}
	for _, entries := range list {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	}
	return list, nil
}

// ChangeCourse moves a student to another course. Moving to the full time course clears the class;
// the single class courses put the student in 1組 with the next seat number of its grade.
func (svc *Service) ChangeCourse(ctx context.Context, id string, req CourseChange) (CourseChangeResult, error) {
	course, _ := ParseCourse(req.Course)

	var res CourseChangeResult
	err := svc.update(ctx, func(r *roster) error {
		i := indexOf(r.students, id)
		if i < 0 {
			return ErrNotFound
		}
		s := &r.students[i]
		if s.Course == course {
			res = CourseChangeResult{Status: "no_change", Course: s.Course, ClassName: s.ClassName, AttendNo: s.AttendNo}
			return nil
		}

		s.Course = course
		if course == CourseFull {
			s.ClassName = ""
			s.AttendNo = ""
		} else {
			s.ClassName = "1組"
			s.AttendNo = AttendNo(strconv.Itoa(nextAttendNo(r.students, s.Grade, course, s.ID)))
		}
		res = CourseChangeResult{Status: "ok", Course: s.Course, ClassName: s.ClassName, AttendNo: s.AttendNo}
		return nil
	})
	if err != nil {
		return CourseChangeResult{}, errors.Wrap(err, "changing course")
	}
	return res, nil
}

// nextAttendNo returns the next seat number among the students of grade in course, but the excluded one.
func nextAttendNo(students []Student, grade string, course Course, excludeID string) int {
	var max int
	for _, s := range students {
		if s.Grade != grade || s.Course != course || s.ID == excludeID {
			continue
		}
		if n, ok := s.AttendNo.Int(); ok && n > max {
			max = n
		}
	}
	return max + 1
}
