package subject

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

// Key is the store key of the subject list.
const Key = "subjects"

var (
	ErrNotFound        = core.NewNotFoundError("subject not found")
	ErrRequiredSubject = core.NewForbiddenError("required subjects cannot be deleted")
)

type Service struct {
	store core.Store
}

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Subject, error) {
	var subjects []Subject
	if err := core.Load(ctx, svc.store, Key, &subjects); err != nil {
		return nil, errors.Wrap(err, "loading subjects")
	}
	all := make([]Subject, 0, len(subjects))
	for _, s := range subjects {
		all = append(all, s.withDefaults())
	}
	return all, nil
}

// QueryByType lists the required or optional subjects.
func (svc *Service) QueryByType(ctx context.Context, typ Type) ([]Subject, error) {
	all, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	subjects := make([]Subject, 0)
	for _, s := range all {
		if s.Type == typ {
			subjects = append(subjects, s)
		}
	}
	return subjects, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Subject, error) {
	all, err := svc.QueryAll(ctx)
	if err != nil {
		return Subject{}, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return Subject{}, ErrNotFound
}

func (svc *Service) Create(ctx context.Context, in Input) (Subject, error) {
	subj := in.subject(uuid.New().String())
	var subjects []Subject
	err := core.Update(ctx, svc.store, Key, &subjects, func() error {
		subjects = append(subjects, subj)
		return nil
	})
	if err != nil {
		return Subject{}, errors.Wrap(err, "saving subjects")
	}
	return subj, nil
}

// Update replaces every field of the subject but its id.
func (svc *Service) Update(ctx context.Context, id string, in Input) (Subject, error) {
	subj := in.subject(id)
	var subjects []Subject
	err := core.Update(ctx, svc.store, Key, &subjects, func() error {
		for i := range subjects {
			if subjects[i].ID == id {
				subjects[i] = subj
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return Subject{}, errors.Wrap(err, "updating subject")
	}
	return subj, nil
}

// Delete removes an optional subject. Required subjects cannot be deleted.
func (svc *Service) Delete(ctx context.Context, id string) error {
	var subjects []Subject
	err := core.Update(ctx, svc.store, Key, &subjects, func() error {
		for i, s := range subjects {
			if s.ID != id {
				continue
			}
			if s.Type == TypeRequired {
				return ErrRequiredSubject
			}
			subjects = append(subjects[:i], subjects[i+1:]...)
			return nil
		}
		return ErrNotFound
	})
	return errors.Wrap(err, "deleting subject")
}
