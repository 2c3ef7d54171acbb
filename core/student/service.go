package student

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
)

// store keys
const (
	StudentsKey  = "students"
	GraduatesKey = "graduates"
	SeatingKey   = "seating_preferences"
)

var (
	ErrNotFound         = core.NewNotFoundError("student not found")
	ErrGraduateNotFound = core.NewNotFoundError("graduate not found")
	errInvalidFilter    = errors.New("invalid student filter")

	nowFunc = time.Now
)

type (
	// HomeroomFinder finds the homeroom teachers of a class.
	HomeroomFinder interface {
		HomeroomTeachers(ctx context.Context, class core.ClassRef) ([]string, error)
	}

	// AttendanceSource computes the attendance of a student over a school year.
	AttendanceSource interface {
		StudentYear(ctx context.Context, class core.ClassRef, sy int, studentID string) (attendance.TermCounters, error)
	}

	Service struct {
		store      core.Store
		teachers   HomeroomFinder
		attendance AttendanceSource
	}

	// roster holds both student lists, loaded together so that records can move between them.
	roster struct {
		students  []Student
		graduates []Student
	}
)

func NewService(store core.Store, teachers HomeroomFinder, att AttendanceSource) *Service {
	return &Service{store: store, teachers: teachers, attendance: att}
}

func (svc *Service) load(ctx context.Context, key string) ([]Student, error) {
	var students []Student
	if err := core.Load(ctx, svc.store, key, &students); err != nil {
		return nil, errors.Wrapf(err, "loading %s", key)
	}
	all := make([]Student, 0, len(students))
	for _, s := range students {
		if key == GraduatesKey && s.Status == "" {
			s.Status = StatusGraduated
		}
		all = append(all, s.withDefaults())
	}
	return all, nil
}

// lock takes the locks of keys in order: students, graduates, then the other documents.
func (svc *Service) lock(keys ...string) func() {
	l, ok := svc.store.(core.Locker)
	if !ok {
		return func() {}
	}
	unlocks := make([]func(), 0, len(keys))
	for _, key := range keys {
		unlocks = append(unlocks, l.Lock(key))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// update runs fn over both student lists then saves them, holding the locks of the lists
// and of the extra keys fn writes to.
func (svc *Service) update(ctx context.Context, fn func(r *roster) error, extraKeys ...string) error {
	unlock := svc.lock(append([]string{StudentsKey, GraduatesKey}, extraKeys...)...)
	defer unlock()

	var (
		r   roster
		err error
	)
	if r.students, err = svc.load(ctx, StudentsKey); err != nil {
		return err
	}
	if r.graduates, err = svc.load(ctx, GraduatesKey); err != nil {
		return err
	}
	if err := fn(&r); err != nil {
		return err
	}
	if err := svc.store.Put(ctx, StudentsKey, r.students); err != nil {
		return errors.Wrap(err, "saving students")
	}
	return errors.Wrap(svc.store.Put(ctx, GraduatesKey, r.graduates), "saving graduates")
}

func indexOf(students []Student, id string) int {
	id = strings.ToLower(core.CleanString(id))
	for i, s := range students {
		if strings.ToLower(s.ID) == id {
			return i
		}
	}
	return -1
}

type idSet map[string]bool

func newIDSet(ids []string) idSet {
	set := make(idSet, len(ids))
	for _, id := range ids {
		set[strings.ToLower(core.CleanString(id))] = true
	}
	return set
}

func (set idSet) has(id string) bool {
	return set[strings.ToLower(id)]
}

// QueryAll lists the current students, of grade only unless grade is empty.
func (svc *Service) QueryAll(ctx context.Context, grade string) ([]Student, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return nil, err
	}
	grade = core.CleanString(grade)
	if grade == "" {
		return students, nil
	}
	filtered := make([]Student, 0)
	for _, s := range students {
		if s.Grade == grade {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func (svc *Service) Filter(ctx context.Context, qf QueryFilter) ([]Student, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return nil, err
	}
	filtered := make([]Student, 0)
	for _, s := range students {
		if qf.match(s) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Search looks for keyword in the name, kana, id and phone numbers of current students.
func (svc *Service) Search(ctx context.Context, keyword string) ([]Student, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return nil, err
	}
	return search(students, keyword), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	students, err := svc.load(ctx, StudentsKey)
	if err != nil {
		return Student{}, err
	}
	if i := indexOf(students, id); i >= 0 {
		return students[i], nil
	}
	return Student{}, ErrNotFound
}

// Create saves a new student with the next free id of its admission year and course.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	var s Student
	err := svc.update(ctx, func(r *roster) error {
		s = Student{
			ID:        nextID(ns.Year, ns.Course, r.students, r.graduates),
			Name:      ns.Name,
			Kana:      ns.Kana,
			Gender:    ns.Gender,
			Course:    ns.Course,
			Grade:     ns.Grade,
			ClassName: ns.ClassName,
			AttendNo:  ns.AttendNo,
			Profile:   ns.Profile,
		}.withDefaults()
		r.students = append(r.students, s)
		return nil
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	var s Student
	err := svc.update(ctx, func(r *roster) error {
		i := indexOf(r.students, id)
		if i < 0 {
			return ErrNotFound
		}
		us.apply(&r.students[i])
		s = r.students[i]
		return nil
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	err := svc.update(ctx, func(r *roster) error {
		i := indexOf(r.students, id)
		if i < 0 {
			return ErrNotFound
		}
		r.students = append(r.students[:i], r.students[i+1:]...)
		return nil
	})
	return errors.Wrap(err, "deleting student")
}

// Graduates lists the graduates sorted by id, of the school year year only unless year is 0.
func (svc *Service) Graduates(ctx context.Context, year int) ([]Student, error) {
	grads, err := svc.load(ctx, GraduatesKey)
	if err != nil {
		return nil, err
	}
	filtered := make([]Student, 0, len(grads))
	for _, g := range grads {
		if year == 0 || strings.HasPrefix(g.GraduatedYear, core.NendoLabel(year)) {
			filtered = append(filtered, g)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })
	return filtered, nil
}

func (svc *Service) SearchGraduates(ctx context.Context, keyword string) ([]Student, error) {
	grads, err := svc.load(ctx, GraduatesKey)
	if err != nil {
		return nil, err
	}
	return search(grads, keyword), nil
}

func (svc *Service) GetGraduate(ctx context.Context, id string) (Student, error) {
	grads, err := svc.load(ctx, GraduatesKey)
	if err != nil {
		return Student{}, err
	}
	if i := indexOf(grads, id); i >= 0 {
		return grads[i], nil
	}
	return Student{}, ErrGraduateNotFound
}
