package teacher

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/inmem"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(inmemdb.Open())

	all, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	sato, err := svc.Create(ctx, Input{Name: "佐藤", Homerooms: []Homeroom{{Grade: 1, ClassName: "1組", Course: "全"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, sato.ID)
	assert.Equal(t, []string{}, sato.Subjects)

	suzuki, err := svc.Create(ctx, Input{Name: "鈴木", Homerooms: []Homeroom{
		{Grade: 2, ClassName: "1組", Course: "全"},
		{Grade: 1, ClassName: "1組", Course: "全"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, suzuki.ID)

	tests := []struct {
		class core.ClassRef
		want  []string
	}{
		{class: core.NewClassRef("全", "1", "1組"), want: []string{"佐藤", "鈴木"}},
		{class: core.NewClassRef("全", "2", "1組"), want: []string{"鈴木"}},
		{class: core.NewClassRef("水", "1", "1組"), want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.class.ID(), func(t *testing.T) {
			got, err := svc.HomeroomTeachers(ctx, tt.class)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	updated, err := svc.Update(ctx, sato.ID, Input{Name: "佐藤 一郎", Subjects: []string{"math"}})
	require.NoError(t, err)
	assert.Equal(t, []Homeroom{}, updated.Homerooms)

	got, err := svc.GetByID(ctx, sato.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, svc.Delete(ctx, suzuki.ID))
	_, err = svc.GetByID(ctx, suzuki.ID)
	assert.Equal(t, ErrNotFound, errors.Cause(err))
	assert.Equal(t, ErrNotFound, errors.Cause(svc.Delete(ctx, suzuki.ID)))

	// next id is max + 1
	again, err := svc.Create(ctx, Input{Name: "高橋"})
	require.NoError(t, err)
	assert.Equal(t, 2, again.ID)
}
