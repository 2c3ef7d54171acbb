package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/subject"
	"github.com/gakuseki/gakuseki/core/teacher"
	inmemdb "github.com/gakuseki/gakuseki/storage/database/inmem"
)

var class11 = core.NewClassRef("全", "1", "1組")

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

// newTestService seeds a class of two students taking 数学 in school year 2025:
// a is always there and hands everything in, b comes late and does half as well.
func newTestService(t *testing.T) (*Service, *inmemdb.Store) {
	t.Helper()
	ctx := context.Background()
	store := inmemdb.Open()

	require.NoError(t, store.Put(ctx, subject.Key, []subject.Subject{
		{ID: "math", Name: "数学", Type: subject.TypeRequired, Grade: 1},
	}))
	require.NoError(t, store.Put(ctx, student.StudentsKey, []student.Student{
		{ID: "a", Name: "A", Course: student.CourseFull, Grade: "1", ClassName: "1組", AttendNo: "1"},
		{ID: "b", Name: "B", Course: student.CourseFull, Grade: "1", ClassName: "1組", AttendNo: "2"},
		{ID: "c", Name: "C", Course: student.CourseFull, Grade: "1", ClassName: "2組", AttendNo: "1"},
	}))

	att := attendance.NewService(store)
	students := student.NewService(store, teacher.NewService(store), att)
	svc := NewService(store, subject.NewService(store), students, att)

	require.NoError(t, att.SavePeriod(ctx, attendance.SavePeriod{
		ClassRef: class11, Date: "2025-05-01", Period: "1", Subject: "数学",
		Students: map[string]string{"a": "出席", "b": "遅刻"},
	}))
	require.NoError(t, att.SavePeriod(ctx, attendance.SavePeriod{
		ClassRef: class11, Date: "2025-11-06", Period: "2", Subject: "math",
		Students: map[string]string{"a": "出席", "b": "遅刻"},
	}))
	require.NoError(t, att.SavePeriod(ctx, attendance.SavePeriod{
		ClassRef: class11, Date: "2025-11-06", Period: "3", Subject: "英語",
		Students: map[string]string{"a": "欠席", "b": "欠席"},
	}))

	tq := TaskQuery{ClassRef: class11, SchoolYear: 2025, Half: FirstHalf, Subject: "math"}
	_, err := svc.AddTask(ctx, NewTask{TaskQuery: tq, Date: "2025-05-01", Label: "プリント"})
	require.NoError(t, err)
	_, err = svc.ToggleTask(ctx, ToggleTask{TaskQuery: tq, Index: 0, StudentID: "a"})
	require.NoError(t, err)

	eq := ExamQuery{ClassRef: class11, SchoolYear: 2025}
	require.NoError(t, svc.SaveScore(ctx, ExamScore{ExamQuery: eq, Subject: "math", Exam: SingleExam, StudentID: "a", Score: intPtr(100)}))
	require.NoError(t, svc.SaveScore(ctx, ExamScore{ExamQuery: eq, Subject: "math", Exam: SingleExam, StudentID: "b", Score: intPtr(50)}))

	return svc, store
}

func TestService_Class(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	ce, err := svc.Class(ctx, Query{ClassRef: class11, Subject: "math", SchoolYear: 2025})
	require.NoError(t, err)
	assert.Equal(t, "数学", ce.Subject.Name)
	assert.Equal(t, []string{"a", "b"}, ce.Order)

	a := ce.Students["a"]
	assert.Equal(t, attendance.Numbers{Present: 2, Total: 2}, a.Percentages.Numbers)
	assert.Equal(t, Result{FiveScale: 5, Kanten: "AAA", Exam: LetterA, Tasks: LetterA, Autonomy: LetterA}, a.Continuous)
	assert.Nil(t, a.Zenki)
	assert.Nil(t, a.FinalGrade)

	b := ce.Students["b"]
	assert.Equal(t, attendance.Numbers{Present: 2, Total: 2, Negative: 2}, b.Percentages.Numbers)
	assert.InDelta(t, 20, b.Percentages.Exam, 1e-9)
	assert.InDelta(t, 25, b.Percentages.Autonomy, 1e-9)
	assert.Equal(t, "BCB", b.Continuous.Kanten)
	assert.Equal(t, 2, b.Continuous.FiveScale)

	_, err = svc.Class(ctx, Query{ClassRef: class11, Subject: "art", SchoolYear: 2025})
	assert.Equal(t, subject.ErrNotFound, errors.Cause(err))
}

func TestService_snapshots(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	q := Query{ClassRef: class11, Subject: "math", SchoolYear: 2025}

	_, err := svc.ConfirmSemester(ctx, Confirm{Query: q, Semester: 2})
	assert.Equal(t, ErrInvalidSemester, errors.Cause(err))

	n, err := svc.ConfirmSemester(ctx, Confirm{Query: q, Semester: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ce, err := svc.Class(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, ce.Students["a"].Zenki)
	assert.Equal(t, "AAA", ce.Students["a"].Zenki.Kanten)
	assert.Nil(t, ce.Students["a"].FinalGrade)

	_, err = svc.Finalize(ctx, q)
	require.NoError(t, err)

	grade, err := svc.SetManualGrade(ctx, ManualGrade{StudentRef: StudentRef{Query: q, StudentID: "b"}, Grade: 4})
	require.NoError(t, err)
	assert.Equal(t, intPtr(4), grade)

	_, err = svc.SetManualGrade(ctx, ManualGrade{StudentRef: StudentRef{Query: q, StudentID: "b"}})
	assert.Equal(t, ErrInvalidGrade, errors.Cause(err))

	ce, err = svc.Class(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, intPtr(5), ce.Students["a"].FinalGrade)
	assert.Equal(t, intPtr(4), ce.Students["b"].FinalGrade)
	assert.Equal(t, 2, ce.Students["b"].Final.FiveScale)

	_, err = svc.ConfirmSemester(ctx, Confirm{Query: q, Semester: 1})
	assert.IsType(t, &core.ConflictError{}, errors.Cause(err))

	grade, err = svc.ClearManualGrade(ctx, StudentRef{Query: q, StudentID: "b"})
	require.NoError(t, err)
	assert.Equal(t, intPtr(2), grade)

	var ss Snapshots
	require.NoError(t, store.Get(ctx, SnapshotKey(class11, "math", 2025), &ss))
	assert.Nil(t, ss["b"].Manual)
	assert.Equal(t, FinalTaken, ss["b"].State())
}

func TestService_SaveAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	n, err := svc.SaveAll(ctx, SaveAll{
		Query:       Query{ClassRef: class11, Subject: "math", SchoolYear: 2025},
		Evaluations: map[string]SavedEvaluation{"a": {Evaluation: 5, Kanten: "AAA"}, "b": {Evaluation: 2, Kanten: "BCB"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.SaveAll(ctx, SaveAll{
		Query:       Query{ClassRef: class11, Subject: "gone", SchoolYear: 2025},
		Evaluations: map[string]SavedEvaluation{"a": {Evaluation: 3, Kanten: "BBB"}},
	})
	require.NoError(t, err)

	saved, err := svc.Saved(ctx, 2025, "1", "1組")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]SavedEvaluation{
		"a": {
			"math": {SubjectName: "数学", Evaluation: 5, Kanten: "AAA"},
			"gone": {SubjectName: "不明科目", Evaluation: 3, Kanten: "BBB"},
		},
		"b": {"math": {SubjectName: "数学", Evaluation: 2, Kanten: "BCB"}},
	}, saved)
	assert.Equal(t, "hyoka/2025年_1_1組", HyokaKey(2025, "1", "1組"))
}

func TestService_tasksAndExams(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	tq := TaskQuery{ClassRef: class11, SchoolYear: 2025, Half: FirstHalf, Subject: "math"}

	tasks, err := svc.EditTaskLabel(ctx, EditTask{TaskQuery: tq, Index: 0, Label: "プリント1"})
	require.NoError(t, err)
	assert.Equal(t, "プリント1", tasks.Tasks[0].Label)

	tasks, err = svc.SetRequiredTasks(ctx, RequiredTasks{TaskQuery: tq, Required: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, tasks.Required)

	_, err = svc.DeleteTask(ctx, EditTask{TaskQuery: tq, Index: 4})
	assert.Equal(t, ErrTaskIndex, errors.Cause(err))

	_, err = svc.DeleteTask(ctx, EditTask{TaskQuery: tq, Index: 0})
	require.NoError(t, err)
	tasks, err = svc.Tasks(ctx, tq)
	require.NoError(t, err)
	assert.Empty(t, tasks.Tasks)

	second := tq
	second.Half = SecondHalf
	tasks, err = svc.Tasks(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, SubjectTasks{Tasks: []Task{}}, tasks)

	eq := ExamQuery{ClassRef: class11, SchoolYear: 2025}
	require.NoError(t, svc.SaveScore(ctx, ExamScore{ExamQuery: eq, Subject: "math", Exam: SingleExam, StudentID: "a"}))
	book, err := svc.Exams(ctx, eq)
	require.NoError(t, err)
	assert.Equal(t, Scores{"b": 50}, book["math"][SingleExam])
}

func TestRequests_Validate(t *testing.T) {
	validate := newValidator()
	nowFunc = func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	q := Query{ClassRef: core.ClassRef{Course: " 全", Grade: "1", ClassName: "1組"}, Subject: " math "}
	require.NoError(t, q.Validate(validate))
	assert.Equal(t, 2025, q.SchoolYear)
	assert.Equal(t, "math", q.Subject)

	studentA := StudentRef{Query: Query{ClassRef: class11, Subject: "math"}, StudentID: "a"}
	tests := []struct {
		name string
		req  interface {
			Validate(*validator.Validate) error
		}
		wantErr bool
	}{
		{name: "score", req: &ExamScore{ExamQuery: ExamQuery{ClassRef: class11}, Subject: "math", Exam: KokiChukan, StudentID: "a", Score: intPtr(100)}},
		{name: "score removal", req: &ExamScore{ExamQuery: ExamQuery{ClassRef: class11}, Subject: "math", Exam: KokiChukan, StudentID: "a"}},
		{name: "score above 100", req: &ExamScore{ExamQuery: ExamQuery{ClassRef: class11}, Subject: "math", Exam: KokiChukan, StudentID: "a", Score: intPtr(101)}, wantErr: true},
		{name: "negative score", req: &ExamScore{ExamQuery: ExamQuery{ClassRef: class11}, Subject: "math", Exam: KokiChukan, StudentID: "a", Score: intPtr(-1)}, wantErr: true},
		{name: "unknown exam", req: &ExamScore{ExamQuery: ExamQuery{ClassRef: class11}, Subject: "math", Exam: "midterm", StudentID: "a"}, wantErr: true},
		{name: "task", req: &NewTask{TaskQuery: TaskQuery{ClassRef: class11, Half: SecondHalf, Subject: "math"}, Date: "2025-10-01", Label: "レポート"}},
		{name: "task without half", req: &NewTask{TaskQuery: TaskQuery{ClassRef: class11, Subject: "math"}, Date: "2025-10-01", Label: "レポート"}, wantErr: true},
		{name: "task without label", req: &NewTask{TaskQuery: TaskQuery{ClassRef: class11, Half: FirstHalf, Subject: "math"}, Date: "2025-10-01", Label: " "}, wantErr: true},
		{name: "manual grade", req: &ManualGrade{StudentRef: studentA, Grade: 3}},
		{name: "manual grade out of range", req: &ManualGrade{StudentRef: studentA, Grade: 6}, wantErr: true},
		{name: "manual grade missing", req: &ManualGrade{StudentRef: studentA}, wantErr: true},
		{name: "manual grade removal", req: &StudentRef{Query: Query{ClassRef: class11, Subject: "math"}, StudentID: "a"}},
		{name: "saved evaluations", req: &SaveAll{Query: Query{ClassRef: class11, Subject: "math"},
			Evaluations: map[string]SavedEvaluation{"a": {Evaluation: 5, Kanten: "AAA"}}}},
		{name: "saved evaluation out of range", req: &SaveAll{Query: Query{ClassRef: class11, Subject: "math"},
			Evaluations: map[string]SavedEvaluation{"a": {Evaluation: 6, Kanten: "AAA"}}}, wantErr: true},
		{name: "saved evaluation without grade", req: &SaveAll{Query: Query{ClassRef: class11, Subject: "math"},
			Evaluations: map[string]SavedEvaluation{"a": {Kanten: "AAA"}}}, wantErr: true},
		{name: "saved evaluation short kanten", req: &SaveAll{Query: Query{ClassRef: class11, Subject: "math"},
			Evaluations: map[string]SavedEvaluation{"a": {Evaluation: 3, Kanten: "AB"}}}, wantErr: true},
		{name: "unknown course", req: &Query{ClassRef: core.ClassRef{Course: "夜", Grade: "1", ClassName: "1組"}, Subject: "math"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
