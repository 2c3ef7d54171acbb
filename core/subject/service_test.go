package subject

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/inmem"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func TestInput_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{name: "ok", in: Input{Name: " 数学Ⅰ ", Type: TypeRequired, Grade: 1}},
		{name: "no name", in: Input{Name: "  ", Type: TypeRequired, Grade: 1}, wantErr: true},
		{name: "bad type", in: Input{Name: "数学Ⅰ", Type: "elective", Grade: 1}, wantErr: true},
		{name: "bad grade", in: Input{Name: "数学Ⅰ", Type: TypeOptional, Grade: 4}, wantErr: true},
		{name: "negative credits", in: Input{Name: "数学Ⅰ", Type: TypeOptional, Grade: 1, Credits: -1}, wantErr: true},
		{name: "bad course", in: Input{Name: "数学Ⅰ", Type: TypeOptional, Grade: 1, Course: "夜"}, wantErr: true},
		{name: "bad exam frequency", in: Input{Name: "数学Ⅰ", Type: TypeOptional, Grade: 1, ExamFrequency: 2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(inmemdb.Open())

	math, err := svc.Create(ctx, Input{Name: "数学Ⅰ", Type: TypeRequired, Grade: 1, TeacherIDs: []int{1}})
	require.NoError(t, err)
	assert.NotEmpty(t, math.ID)
	assert.Equal(t, "全", math.Course)
	assert.Equal(t, 1, math.ExamFrequency)

	art, err := svc.Create(ctx, Input{Name: "美術", Type: TypeOptional, Grade: 2, ExamFrequency: 4, Course: "水"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, math.ID)
	require.NoError(t, err)
	assert.Equal(t, math, got)

	_, err = svc.GetByID(ctx, "nope")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	required, err := svc.QueryByType(ctx, TypeRequired)
	require.NoError(t, err)
	assert.Equal(t, []Subject{math}, required)

	optional, err := svc.QueryByType(ctx, TypeOptional)
	require.NoError(t, err)
	assert.Equal(t, []Subject{art}, optional)

	updated, err := svc.Update(ctx, art.ID, Input{Name: "美術Ⅱ", Type: TypeOptional, Grade: 2})
	require.NoError(t, err)
	assert.Equal(t, art.ID, updated.ID)
	assert.Equal(t, "美術Ⅱ", updated.Name)
	assert.Equal(t, 1, updated.ExamFrequency)

	_, err = svc.Update(ctx, "nope", Input{Name: "x", Type: TypeOptional, Grade: 1})
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	err = svc.Delete(ctx, math.ID)
	assert.Equal(t, ErrRequiredSubject, errors.Cause(err))
	assert.IsType(t, &core.ForbiddenError{}, errors.Cause(err))

	require.NoError(t, svc.Delete(ctx, art.ID))
	all, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Subject{math}, all)

	err = svc.Delete(ctx, art.ID)
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}
