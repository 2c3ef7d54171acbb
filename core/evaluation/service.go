package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/subject"
)

const unknownSubject = "不明科目"

var nowFunc = time.Now

// HyokaKey is the store key of the saved evaluations of a class for school year sy.
func HyokaKey(sy int, grade, className string) string {
	return fmt.Sprintf("hyoka/%d年_%s_%s", sy, grade, className)
}

type (
	SubjectFinder interface {
		GetByID(ctx context.Context, id string) (subject.Subject, error)
	}

	ClassRoster interface {
		ByClass(ctx context.Context, class core.ClassRef) ([]student.Student, error)
	}

	PeriodSource interface {
		PeriodBook(ctx context.Context, class core.ClassRef, sy int) (attendance.PeriodBook, error)
	}

	Service struct {
		store      core.Store
		subjects   SubjectFinder
		students   ClassRoster
		attendance PeriodSource
	}

	// Query selects the evaluation of a class in a subject.
	Query struct {
		core.ClassRef
		Subject    string `json:"subject" query:"subject" validate:"required"`
		SchoolYear int    `json:"school_year" query:"school_year" validate:"omitempty,min=2000"`
	}

	Confirm struct {
		Query
		Semester int `json:"semester" query:"semester" validate:"required"`
	}

	// StudentRef selects one student of an evaluation.
	StudentRef struct {
		Query
		StudentID string `json:"student_id" query:"student_id" validate:"required"`
	}

	ManualGrade struct {
		StudentRef
		Grade int `json:"manual_final_grade" validate:"required,min=1,max=5"`
	}

	// Percentages are the raw axis values a Result is graded from.
	Percentages struct {
		Exam     float64            `json:"exam"`
		Tasks    float64            `json:"tasks"`
		Autonomy float64            `json:"autonomy"`
		Numbers  attendance.Numbers `json:"attendance"`
	}

	StudentEvaluation struct {
		Name        string           `json:"name"`
		AttendNo    student.AttendNo `json:"attend_no"`
		Percentages Percentages      `json:"percentages"`
		Continuous  Result           `json:"continuous"`
		Zenki       *Result          `json:"zenki_snapshot"`
		Final       *Result          `json:"final_snapshot"`
		FinalGrade  *int             `json:"final_grade"`
	}

	// ClassEvaluation is the evaluation of every student of a class in a subject.
	ClassEvaluation struct {
		Subject  subject.Subject               `json:"subject"`
		Order    []string                      `json:"order"`
		Students map[string]*StudentEvaluation `json:"students"`
	}

	SavedEvaluation struct {
		SubjectName string `json:"subject_name"`
		Evaluation  int    `json:"evaluation" validate:"min=1,max=5"`
		Kanten      string `json:"kanten" validate:"len=3"`
	}

	// SaveAll stores the grades of a class in a subject.
	SaveAll struct {
		Query
		Evaluations map[string]SavedEvaluation `json:"evaluations" validate:"required,dive"`
	}
)

func NewService(store core.Store, subjects SubjectFinder, students ClassRoster, att PeriodSource) *Service {
	return &Service{store: store, subjects: subjects, students: students, attendance: att}
}

func (q *Query) Validate(validate *validator.Validate) error {
	q.Course = core.CleanString(q.Course)
	q.Grade = core.CleanString(q.Grade)
	q.ClassName = core.CleanString(q.ClassName)
	q.Subject = core.CleanString(q.Subject)
	if q.SchoolYear == 0 {
		q.SchoolYear = core.SchoolYear(nowFunc())
	}
	return validate.Struct(q)
}

func (cs *Confirm) Validate(validate *validator.Validate) error {
	if err := cs.Query.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(cs)
}

func (sr *StudentRef) Validate(validate *validator.Validate) error {
	sr.StudentID = core.CleanString(sr.StudentID)
	if err := sr.Query.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(sr)
}

func (mg *ManualGrade) Validate(validate *validator.Validate) error {
	if err := mg.StudentRef.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(mg)
}

func (sa *SaveAll) Validate(validate *validator.Validate) error {
	if err := sa.Query.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(sa)
}

func (svc *Service) snapshots(ctx context.Context, q Query) (Snapshots, error) {
	ss := make(Snapshots)
	if err := core.Load(ctx, svc.store, SnapshotKey(q.ClassRef, q.Subject, q.SchoolYear), &ss); err != nil {
		return nil, errors.Wrap(err, "loading snapshots")
	}
	return ss, nil
}

// Class computes the continuous evaluation of every student of the class and joins the saved snapshots.
func (svc *Service) Class(ctx context.Context, q Query) (ClassEvaluation, error) {
	subj, err := svc.subjects.GetByID(ctx, q.Subject)
	if err != nil {
		return ClassEvaluation{}, errors.Wrap(err, "fetching subject")
	}
	students, err := svc.students.ByClass(ctx, q.ClassRef)
	if err != nil {
		return ClassEvaluation{}, errors.Wrap(err, "fetching students")
	}
	periods, err := svc.attendance.PeriodBook(ctx, q.ClassRef, q.SchoolYear)
	if err != nil {
		return ClassEvaluation{}, err
	}
	var first, second TaskBook
	if err := core.Load(ctx, svc.store, TaskKey(q.ClassRef, q.SchoolYear, FirstHalf), &first); err != nil {
		return ClassEvaluation{}, errors.Wrap(err, "loading tasks")
	}
	if err := core.Load(ctx, svc.store, TaskKey(q.ClassRef, q.SchoolYear, SecondHalf), &second); err != nil {
		return ClassEvaluation{}, errors.Wrap(err, "loading tasks")
	}
	exams := make(ExamBook)
	if err := core.Load(ctx, svc.store, ExamBookKey(q.ClassRef, q.SchoolYear), &exams); err != nil {
		return ClassEvaluation{}, errors.Wrap(err, "loading exams")
	}
	ss, err := svc.snapshots(ctx, q)
	if err != nil {
		return ClassEvaluation{}, err
	}

	ce := ClassEvaluation{
		Subject:  subj,
		Order:    make([]string, 0, len(students)),
		Students: make(map[string]*StudentEvaluation, len(students)),
	}
	for _, s := range students {
		n := attendance.PeriodNumbers(periods, s.ID, subj.ID, subj.Name)
		p := Percentages{
			Exam:     exams.ExamPercent(subj.ID, subj.ExamFrequency, s.ID),
			Tasks:    TaskPercent(first, second, subj.ID, s.ID),
			Autonomy: ComputeAutonomy(n.Present, n.Total, n.Negative),
			Numbers:  n,
		}
		snap := ss[s.ID]
		se := &StudentEvaluation{
			Name:        s.Name,
			AttendNo:    s.AttendNo,
			Percentages: p,
			Continuous:  Evaluate(p.Exam, p.Tasks, p.Autonomy),
			FinalGrade:  snap.FinalGrade(),
		}
		if snap != nil {
			se.Zenki, se.Final = snap.Zenki, snap.Final
		}
		ce.Order = append(ce.Order, s.ID)
		ce.Students[s.ID] = se
	}
	return ce, nil
}

// freeze stores the continuous evaluation of every student through apply.
func (svc *Service) freeze(ctx context.Context, q Query, apply func(s *Snapshot, r Result) error) (int, error) {
	ce, err := svc.Class(ctx, q)
	if err != nil {
		return 0, err
	}
	ss := make(Snapshots)
	err = core.Update(ctx, svc.store, SnapshotKey(q.ClassRef, q.Subject, q.SchoolYear), &ss, func() error {
		for _, id := range ce.Order {
			if err := apply(ss.get(id), ce.Students[id].Continuous); err != nil {
				return errors.Wrapf(err, "student %s", id)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ce.Order), nil
}

// ConfirmSemester freezes the current evaluations as the first semester snapshot.
func (svc *Service) ConfirmSemester(ctx context.Context, cs Confirm) (int, error) {
	if cs.Semester != 1 {
		return 0, ErrInvalidSemester
	}
	n, err := svc.freeze(ctx, cs.Query, func(s *Snapshot, r Result) error {
		return s.ConfirmSemester(r)
	})
	return n, errors.Wrap(err, "confirming semester")
}

// Finalize freezes the current evaluations as the final snapshot.
func (svc *Service) Finalize(ctx context.Context, q Query) (int, error) {
	n, err := svc.freeze(ctx, q, func(s *Snapshot, r Result) error {
		s.Finalize(r)
		return nil
	})
	return n, errors.Wrap(err, "finalizing evaluation")
}

func (svc *Service) SetManualGrade(ctx context.Context, mg ManualGrade) (*int, error) {
	var grade *int
	ss := make(Snapshots)
	err := core.Update(ctx, svc.store, SnapshotKey(mg.ClassRef, mg.Subject, mg.SchoolYear), &ss, func() error {
		s := ss.get(mg.StudentID)
		if err := s.SetManual(mg.Grade); err != nil {
			return err
		}
		grade = s.FinalGrade()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "setting manual grade")
	}
	return grade, nil
}

// ClearManualGrade removes the manual grade and returns the final grade left, if any.
func (svc *Service) ClearManualGrade(ctx context.Context, sr StudentRef) (*int, error) {
	var grade *int
	ss := make(Snapshots)
	err := core.Mutate(ctx, svc.store, SnapshotKey(sr.ClassRef, sr.Subject, sr.SchoolYear), &ss, func() (bool, error) {
		if s := ss[sr.StudentID]; s != nil {
			s.ClearManual()
			grade = s.FinalGrade()
		}
		return len(ss) > 0, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "clearing manual grade")
	}
	return grade, nil
}

// SaveAll merges the grades of a subject into the saved evaluations of the class.
func (svc *Service) SaveAll(ctx context.Context, sa SaveAll) (int, error) {
	name := unknownSubject
	subj, err := svc.subjects.GetByID(ctx, sa.Subject)
	switch {
	case err == nil:
		name = subj.Name
	case errors.Cause(err) != subject.ErrNotFound:
		return 0, errors.Wrap(err, "fetching subject")
	}

	saved := make(map[string]map[string]SavedEvaluation)
	err = core.Update(ctx, svc.store, HyokaKey(sa.SchoolYear, sa.Grade, sa.ClassName), &saved, func() error {
		for id, ev := range sa.Evaluations {
			if saved[id] == nil {
				saved[id] = make(map[string]SavedEvaluation)
			}
			ev.SubjectName = name
			saved[id][sa.Subject] = ev
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "saving evaluations")
	}
	return len(sa.Evaluations), nil
}

// Saved returns the saved evaluations of a class: {student_id: {subject_id: evaluation}}.
func (svc *Service) Saved(ctx context.Context, sy int, grade, className string) (map[string]map[string]SavedEvaluation, error) {
	saved := make(map[string]map[string]SavedEvaluation)
	if err := core.Load(ctx, svc.store, HyokaKey(sy, grade, className), &saved); err != nil {
		return nil, errors.Wrap(err, "loading saved evaluations")
	}
	return saved, nil
}
