package teacher

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

// Key is the store key of the teacher list.
const Key = "teachers"

var ErrNotFound = core.NewNotFoundError("teacher not found")

type Service struct {
	store core.Store
}

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Teacher, error) {
	teachers := make([]Teacher, 0)
	if err := core.Load(ctx, svc.store, Key, &teachers); err != nil {
		return nil, errors.Wrap(err, "loading teachers")
	}
	return teachers, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Teacher, error) {
	teachers, err := svc.QueryAll(ctx)
	if err != nil {
		return Teacher{}, err
	}
	for _, t := range teachers {
		if t.ID == id {
			return t, nil
		}
	}
	return Teacher{}, ErrNotFound
}

// HomeroomTeachers returns the names of the teachers in charge of class.
func (svc *Service) HomeroomTeachers(ctx context.Context, class core.ClassRef) ([]string, error) {
	teachers, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for _, t := range teachers {
		for _, h := range t.Homerooms {
			if h.Is(class) {
				names = append(names, t.Name)
				break
			}
		}
	}
	return names, nil
}

// Create saves a new teacher with the next free id.
func (svc *Service) Create(ctx context.Context, in Input) (Teacher, error) {
	var (
		teachers []Teacher
		t        Teacher
	)
	err := core.Update(ctx, svc.store, Key, &teachers, func() error {
		var max int
		for _, other := range teachers {
			if other.ID > max {
				max = other.ID
			}
		}
		t = in.teacher(max + 1)
		teachers = append(teachers, t)
		return nil
	})
	if err != nil {
		return Teacher{}, errors.Wrap(err, "saving teachers")
	}
	return t, nil
}

func (svc *Service) Update(ctx context.Context, id int, in Input) (Teacher, error) {
	t := in.teacher(id)
	var teachers []Teacher
	err := core.Update(ctx, svc.store, Key, &teachers, func() error {
		for i := range teachers {
			if teachers[i].ID == id {
				teachers[i] = t
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return t, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	var teachers []Teacher
	err := core.Update(ctx, svc.store, Key, &teachers, func() error {
		for i, t := range teachers {
			if t.ID == id {
				teachers = append(teachers[:i], teachers[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	return errors.Wrap(err, "deleting teacher")
}
