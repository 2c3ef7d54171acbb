package student

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

// Promotion asks to close the school year of a grade.
type Promotion struct {
	Grade      string   `json:"grade" validate:"required,oneof=1 2 3"`
	IDs        []string `json:"promote_ids"`
	SchoolYear int      `json:"school_year" validate:"omitempty,min=2000,max=2999"`
}

func (p *Promotion) Validate(validate *validator.Validate) error {
	p.Grade = core.CleanString(p.Grade)
	if p.SchoolYear == 0 {
		p.SchoolYear = core.SchoolYear(nowFunc())
	}
	return validate.Struct(p)
}

type PromotionResult struct {
	Promoted  int `json:"promoted"`
	Stayed    int `json:"stayed"`
	Graduated int `json:"graduated"`
	Suspended int `json:"suspended"`
}

// archive builds the history entry closing school year sy for s, with its attendance frozen.
func (svc *Service) archive(ctx context.Context, s Student, sy int, outcome Outcome) (YearRecord, error) {
	class := s.Class()
	counters, err := svc.attendance.StudentYear(ctx, class, sy, s.ID)
	if err != nil {
		return YearRecord{}, errors.Wrapf(err, "freezing attendance of %s", s.ID)
	}
	teachers, err := svc.teachers.HomeroomTeachers(ctx, class)
	if err != nil {
		return YearRecord{}, errors.Wrapf(err, "finding homeroom teachers of %s", class)
	}
	attempt := s.attempt(s.Grade)
	return YearRecord{
		Key:        yearPrefixes[s.Grade] + attempt,
		Grade:      s.Grade,
		SchoolYear: sy,
		Nendo:      core.NendoLabel(sy),
		Attempt:    attempt,
		Outcome:    outcome,
		ClassName:  s.ClassName,
		AttendNo:   s.AttendNo,
		Teachers:   teachers,
		Attendance: counters.Total,
	}, nil
}

// graduate moves s out of the current students with the given graduation label.
func graduate(s *Student, label string) error {
	if err := s.Status.transition(StatusGraduated); err != nil {
		return err
	}
	s.Status = StatusGraduated
	s.GraduatedYear = label
	s.ClassName = ""
	s.AttendNo = ""
	return nil
}

// Promote closes the school year of every student of a grade:
//   - a student suspended at some point of the year stays in place;
//   - a listed student moves up a grade, or graduates in March from the last grade;
//   - any other student repeats the grade.
//
// Every student gets a history entry with the attendance of the year.
func (svc *Service) Promote(ctx context.Context, p Promotion) (PromotionResult, error) {
	var res PromotionResult
	promote := newIDSet(p.IDs)

	err := svc.update(ctx, func(r *roster) error {
		kept := make([]Student, 0, len(r.students))
		for _, s := range r.students {
			if s.Grade != p.Grade {
				kept = append(kept, s)
				continue
			}

			var outcome Outcome
			switch {
			case s.suspendedDuring(p.SchoolYear):
				outcome = OutcomeSuspended
			case !promote.has(s.ID):
				outcome = OutcomeRepeated
			case s.Grade == "3":
				outcome = OutcomeGraduated
			default:
				outcome = OutcomePromoted
			}

			rec, err := svc.archive(ctx, s, p.SchoolYear, outcome)
			if err != nil {
				return err
			}
			s.History = append(s.History, rec)

			switch outcome {
			case OutcomeSuspended:
				res.Suspended++
			case OutcomeRepeated:
				res.Stayed++
			case OutcomeGraduated:
				if err := graduate(&s, core.NendoLabel(p.SchoolYear)+"3月卒業"); err != nil {
					return errors.Wrap(err, s.ID)
				}
				r.graduates = append(r.graduates, s)
				res.Graduated++
				continue
			case OutcomePromoted:
				g, _ := strconv.Atoi(s.Grade)
				s.Grade = strconv.Itoa(g + 1)
				s.ClassName = ""
				s.AttendNo = ""
				res.Promoted++
			}
			kept = append(kept, s)
		}
		r.students = kept
		return nil
	})
	if err != nil {
		return PromotionResult{}, errors.Wrap(err, "promoting students")
	}
	return res, nil
}

// GraduateInSeptember graduates the listed students of a grade at the end of the first semester.
func (svc *Service) GraduateInSeptember(ctx context.Context, p Promotion) (int, error) {
	var graduated int
	ids := newIDSet(p.IDs)

	err := svc.update(ctx, func(r *roster) error {
		kept := make([]Student, 0, len(r.students))
		for _, s := range r.students {
			if s.Grade != p.Grade || !ids.has(s.ID) {
				kept = append(kept, s)
				continue
			}
			rec, err := svc.archive(ctx, s, p.SchoolYear, OutcomeGraduated)
			if err != nil {
				return err
			}
			s.History = append(s.History, rec)
			if err := graduate(&s, core.NendoLabel(p.SchoolYear)+"9月卒業"); err != nil {
				return errors.Wrap(err, s.ID)
			}
			r.graduates = append(r.graduates, s)
			graduated++
		}
		r.students = kept
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "graduating students")
	}
	return graduated, nil
}

// Demote moves the listed students down a grade (never below the first) and clears their seat number.
func (svc *Service) Demote(ctx context.Context, ids []string) (int, error) {
	var demoted int
	set := newIDSet(ids)
	err := svc.update(ctx, func(r *roster) error {
		for i := range r.students {
			s := &r.students[i]
			if !set.has(s.ID) {
				continue
			}
			g, _ := strconv.Atoi(s.Grade)
			if g--; g < 1 {
				g = 1
			}
			s.Grade = strconv.Itoa(g)
			s.AttendNo = ""
			demoted++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "demoting students")
	}
	return demoted, nil
}

// Restore brings the listed graduates back as current third grade students.
func (svc *Service) Restore(ctx context.Context, ids []string) (int, error) {
	var restored int
	set := newIDSet(ids)
	err := svc.update(ctx, func(r *roster) error {
		kept := make([]Student, 0, len(r.graduates))
		for _, g := range r.graduates {
			if !set.has(g.ID) {
				kept = append(kept, g)
				continue
			}
			if err := g.Status.transition(StatusEnrolled); err != nil {
				return errors.Wrap(err, g.ID)
			}
			g.Status = StatusEnrolled
			g.Grade = "3"
			g.ClassName = ""
			g.AttendNo = ""
			g.GraduatedYear = ""
			r.students = append(r.students, g)
			restored++
		}
		r.graduates = kept
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "restoring graduates")
	}
	return restored, nil
}
