package evaluation

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

type (
	// TaskQuery selects the tasks of a subject for one half of the year.
	TaskQuery struct {
		core.ClassRef
		SchoolYear int    `json:"school_year" query:"school_year" validate:"omitempty,min=2000"`
		Half       Half   `json:"half" query:"half" validate:"required,oneof=1st 2nd"`
		Subject    string `json:"subject" query:"subject" validate:"required"`
	}

	NewTask struct {
		TaskQuery
		Date  string `json:"date" validate:"required,isodate"`
		Label string `json:"label" validate:"required"`
	}

	ToggleTask struct {
		TaskQuery
		Index     int    `json:"index" validate:"min=0"`
		StudentID string `json:"student_id" validate:"required"`
	}

	EditTask struct {
		TaskQuery
		Index int    `json:"index" query:"index" validate:"min=0"`
		Label string `json:"label"`
	}

	RequiredTasks struct {
		TaskQuery
		Required int `json:"required" validate:"min=0"`
	}

	ExamQuery struct {
		core.ClassRef
		SchoolYear int `json:"school_year" query:"school_year" validate:"omitempty,min=2000"`
	}

	// ExamScore sets the score of a student. A null score removes it.
	ExamScore struct {
		ExamQuery
		Subject   string  `json:"subject" validate:"required"`
		Exam      ExamKey `json:"exam_key" validate:"required,oneof=single_exam zenki_chukan zenki_kimatsu koki_chukan koki_kimatsu"`
		StudentID string  `json:"student_id" validate:"required"`
		Score     *int    `json:"score" validate:"omitempty,min=0,max=100"`
	}
)

func (q *TaskQuery) Validate(validate *validator.Validate) error {
	q.Course = core.CleanString(q.Course)
	q.Grade = core.CleanString(q.Grade)
	q.ClassName = core.CleanString(q.ClassName)
	q.Subject = core.CleanString(q.Subject)
	if q.SchoolYear == 0 {
		q.SchoolYear = core.SchoolYear(nowFunc())
	}
	return validate.Struct(q)
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Date = core.CleanString(nt.Date)
	nt.Label = core.CleanString(nt.Label)
	if err := nt.TaskQuery.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(nt)
}

func (tt *ToggleTask) Validate(validate *validator.Validate) error {
	tt.StudentID = core.CleanString(tt.StudentID)
	if err := tt.TaskQuery.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(tt)
}

func (et *EditTask) Validate(validate *validator.Validate) error {
	et.Label = core.CleanString(et.Label)
	if err := et.TaskQuery.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(et)
}

func (rt *RequiredTasks) Validate(validate *validator.Validate) error {
	if err := rt.TaskQuery.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(rt)
}

func (q *ExamQuery) Validate(validate *validator.Validate) error {
	q.Course = core.CleanString(q.Course)
	q.Grade = core.CleanString(q.Grade)
	q.ClassName = core.CleanString(q.ClassName)
	if q.SchoolYear == 0 {
		q.SchoolYear = core.SchoolYear(nowFunc())
	}
	return validate.Struct(q)
}

func (es *ExamScore) Validate(validate *validator.Validate) error {
	es.Subject = core.CleanString(es.Subject)
	es.StudentID = core.CleanString(es.StudentID)
	if err := es.ExamQuery.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(es)
}

func (svc *Service) updateTasks(ctx context.Context, q TaskQuery, fn func(b *TaskBook) error) (SubjectTasks, error) {
	var book TaskBook
	err := core.Update(ctx, svc.store, TaskKey(q.ClassRef, q.SchoolYear, q.Half), &book, func() error {
		return fn(&book)
	})
	if err != nil {
		return SubjectTasks{}, errors.Wrap(err, "updating tasks")
	}
	return *book.subject(q.Subject), nil
}

// Tasks returns the tasks of a subject, empty when none was created.
func (svc *Service) Tasks(ctx context.Context, q TaskQuery) (SubjectTasks, error) {
	var book TaskBook
	if err := core.Load(ctx, svc.store, TaskKey(q.ClassRef, q.SchoolYear, q.Half), &book); err != nil {
		return SubjectTasks{}, errors.Wrap(err, "loading tasks")
	}
	return *book.subject(q.Subject), nil
}

func (svc *Service) AddTask(ctx context.Context, nt NewTask) (SubjectTasks, error) {
	return svc.updateTasks(ctx, nt.TaskQuery, func(b *TaskBook) error {
		b.AddTask(nt.Subject, nt.Date, nt.Label)
		return nil
	})
}

func (svc *Service) ToggleTask(ctx context.Context, tt ToggleTask) (SubjectTasks, error) {
	return svc.updateTasks(ctx, tt.TaskQuery, func(b *TaskBook) error {
		return b.Toggle(tt.Subject, tt.Index, tt.StudentID)
	})
}

func (svc *Service) EditTaskLabel(ctx context.Context, et EditTask) (SubjectTasks, error) {
	return svc.updateTasks(ctx, et.TaskQuery, func(b *TaskBook) error {
		return b.EditLabel(et.Subject, et.Index, et.Label)
	})
}

func (svc *Service) DeleteTask(ctx context.Context, et EditTask) (SubjectTasks, error) {
	return svc.updateTasks(ctx, et.TaskQuery, func(b *TaskBook) error {
		return b.DeleteTask(et.Subject, et.Index)
	})
}

func (svc *Service) SetRequiredTasks(ctx context.Context, rt RequiredTasks) (SubjectTasks, error) {
	return svc.updateTasks(ctx, rt.TaskQuery, func(b *TaskBook) error {
		b.SetRequired(rt.Subject, rt.Required)
		return nil
	})
}

// Exams returns the exam book of a class.
func (svc *Service) Exams(ctx context.Context, q ExamQuery) (ExamBook, error) {
	book := make(ExamBook)
	if err := core.Load(ctx, svc.store, ExamBookKey(q.ClassRef, q.SchoolYear), &book); err != nil {
		return nil, errors.Wrap(err, "loading exams")
	}
	return book, nil
}

func (svc *Service) SaveScore(ctx context.Context, es ExamScore) error {
	book := make(ExamBook)
	err := core.Update(ctx, svc.store, ExamBookKey(es.ClassRef, es.SchoolYear), &book, func() error {
		book.SetScore(es.Subject, es.Exam, es.StudentID, es.Score)
		return nil
	})
	return errors.Wrap(err, "saving exam score")
}
