package student

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/teacher"
	"github.com/gakuseki/gakuseki/storage/database/inmem"
)

type fixture struct {
	store      *inmemdb.Store
	svc        *Service
	teachers   *teacher.Service
	attendance *attendance.Service
}

func newFixture(t *testing.T, students ...Student) *fixture {
	t.Helper()
	store := inmemdb.Open()
	f := &fixture{store: store, teachers: teacher.NewService(store), attendance: attendance.NewService(store)}
	f.svc = NewService(store, f.teachers, f.attendance)
	if students != nil {
		require.NoError(t, store.Put(context.Background(), StudentsKey, students))
	}
	return f
}

func (f *fixture) students(t *testing.T) []Student {
	t.Helper()
	students, err := f.svc.load(context.Background(), StudentsKey)
	require.NoError(t, err)
	return students
}

func (f *fixture) graduates(t *testing.T) []Student {
	t.Helper()
	grads, err := f.svc.load(context.Background(), GraduatesKey)
	require.NoError(t, err)
	return grads
}

func find(students []Student, id string) *Student {
	if i := indexOf(students, id); i >= 0 {
		return &students[i]
	}
	return nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}
