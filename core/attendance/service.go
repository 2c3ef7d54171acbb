package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
)

// DailyKey is the store key of the daily book of class for school year sy.
func DailyKey(class core.ClassRef, sy int) string {
	return fmt.Sprintf("attendance/%s-%d", class.ID(), sy)
}

// PeriodKey is the store key of the per-period book of class for school year sy.
func PeriodKey(class core.ClassRef, sy int) string {
	return fmt.Sprintf("attendance_sub/%s-%d", class.ID(), sy)
}

type (
	Service struct {
		store core.Store
	}

	// SaveDay replaces the marks of a class for one day.
	SaveDay struct {
		core.ClassRef
		Date     string            `json:"date" validate:"required,isodate"`
		Students map[string]string `json:"students" validate:"required"`
	}

	// SavePeriod replaces the marks of a class for one period of a day.
	SavePeriod struct {
		core.ClassRef
		Date     string            `json:"date" validate:"required,isodate"`
		Period   string            `json:"period" validate:"required"`
		Subject  string            `json:"subject" validate:"required"`
		Students map[string]string `json:"students" validate:"required"`
	}

	ClassStats struct {
		Stats
		Daily map[string]map[Mark]int `json:"daily_attendance"`
	}

	SpecialStats struct {
		Applicable bool                        `json:"applicable"`
		Reason     string                      `json:"reason,omitempty"`
		Students   map[string]*SpecialCounters `json:"students,omitempty"`
	}
)

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

func (sd *SaveDay) Validate(validate *validator.Validate) error {
	sd.Date = core.CleanString(sd.Date)
	if err := validate.Struct(sd); err != nil {
		return err
	}
	return cleanMarks(sd.Students, false)
}

func (sp *SavePeriod) Validate(validate *validator.Validate) error {
	sp.Date = core.CleanString(sp.Date)
	sp.Period = core.CleanString(sp.Period)
	sp.Subject = core.CleanString(sp.Subject)
	if err := validate.Struct(sp); err != nil {
		return err
	}
	return cleanMarks(sp.Students, true)
}

// cleanMarks trims every status and rejects unknown marks.
func cleanMarks(students map[string]string, allowBehavior bool) error {
	var flds []core.FieldError
	for id, status := range students {
		m, ok := ParseMark(status)
		if !ok || (m.IsBehavior() && !allowBehavior) {
			flds = append(flds, core.FieldError{Field: "students." + id, Error: fmt.Sprintf("unknown attendance mark %q", status)})
			continue
		}
		students[id] = string(m)
	}
	if flds != nil {
		sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
		return core.NewValidationError(errors.New("invalid attendance marks"), flds...)
	}
	return nil
}

// allUnrecorded reports whether no student got an actual mark.
func allUnrecorded(students map[string]string) bool {
	for _, status := range students {
		if Mark(status) != MarkUnrecorded {
			return false
		}
	}
	return true
}

func (svc *Service) DailyBook(ctx context.Context, class core.ClassRef, sy int) (DailyBook, error) {
	book := make(DailyBook)
	if err := core.Load(ctx, svc.store, DailyKey(class, sy), &book); err != nil {
		return nil, errors.Wrap(err, "loading daily attendance")
	}
	return book, nil
}

func (svc *Service) PeriodBook(ctx context.Context, class core.ClassRef, sy int) (PeriodBook, error) {
	book := make(PeriodBook)
	if err := core.Load(ctx, svc.store, PeriodKey(class, sy), &book); err != nil {
		return nil, errors.Wrap(err, "loading period attendance")
	}
	return book, nil
}

// GetDay returns the marks of class on date, empty when nothing was recorded.
func (svc *Service) GetDay(ctx context.Context, class core.ClassRef, date string) (map[string]string, error) {
	t, err := core.ParseDate(date)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
	}
	book, err := svc.DailyBook(ctx, class, core.SchoolYear(t))
	if err != nil {
		return nil, err
	}
	if rec := book[t.Format(core.DateLayout)]; rec != nil {
		return rec.Students, nil
	}
	return map[string]string{}, nil
}

// SaveDay stores the marks of a day. A day left with only 未記録 marks is removed,
// and so is the book once it has no day left. Other days are written back untouched,
// malformed ones included.
func (svc *Service) SaveDay(ctx context.Context, sd SaveDay) error {
	t, err := core.ParseDate(sd.Date)
	if err != nil {
		return errors.Wrap(err, "parsing date")
	}
	date := t.Format(core.DateLayout)

	days := make(map[string]json.RawMessage)
	err = core.Mutate(ctx, svc.store, DailyKey(sd.ClassRef, core.SchoolYear(t)), &days, func() (bool, error) {
		if allUnrecorded(sd.Students) {
			delete(days, date)
			return len(days) > 0, nil
		}
		rec, err := json.Marshal(DailyRecord{Students: sd.Students})
		if err != nil {
			return false, err
		}
		days[date] = rec
		return true, nil
	})
	return errors.Wrap(err, "saving daily attendance")
}

// GetPeriods returns the period records of class on date.
func (svc *Service) GetPeriods(ctx context.Context, class core.ClassRef, date string) (map[string]*PeriodRecord, error) {
	t, err := core.ParseDate(date)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})
	}
	book, err := svc.PeriodBook(ctx, class, core.SchoolYear(t))
	if err != nil {
		return nil, err
	}
	periods := make(map[string]*PeriodRecord)
	for period, rec := range book[t.Format(core.DateLayout)] {
		if rec != nil {
			periods[period] = rec
		}
	}
	return periods, nil
}

// SavePeriod stores the marks of a period, with the same clean up rules as SaveDay.
func (svc *Service) SavePeriod(ctx context.Context, sp SavePeriod) error {
	t, err := core.ParseDate(sp.Date)
	if err != nil {
		return errors.Wrap(err, "parsing date")
	}
	date := t.Format(core.DateLayout)

	days := make(map[string]json.RawMessage)
	err = core.Mutate(ctx, svc.store, PeriodKey(sp.ClassRef, core.SchoolYear(t)), &days, func() (bool, error) {
		// a malformed day is replaced as a whole
		periods := make(map[string]json.RawMessage)
		if raw, ok := days[date]; ok {
			if err := json.Unmarshal(raw, &periods); err != nil || periods == nil {
				periods = make(map[string]json.RawMessage)
			}
		}
		if allUnrecorded(sp.Students) {
			delete(periods, sp.Period)
		} else {
			rec, err := json.Marshal(PeriodRecord{Subject: sp.Subject, Students: sp.Students})
			if err != nil {
				return false, err
			}
			periods[sp.Period] = rec
		}

		if len(periods) == 0 {
			delete(days, date)
			return len(days) > 0, nil
		}
		day, err := json.Marshal(periods)
		if err != nil {
			return false, err
		}
		days[date] = day
		return true, nil
	})
	return errors.Wrap(err, "saving period attendance")
}

// Stats aggregates the daily book of class for school year sy.
func (svc *Service) Stats(ctx context.Context, class core.ClassRef, sy int) (ClassStats, error) {
	book, err := svc.DailyBook(ctx, class, sy)
	if err != nil {
		return ClassStats{}, err
	}
	return ClassStats{Stats: AggregateDaily(book), Daily: DailyBreakdown(book)}, nil
}

// SubjectStats aggregates the periods of subject (id or name) for class during school year sy.
func (svc *Service) SubjectStats(ctx context.Context, class core.ClassRef, sy int, subjects ...string) (Stats, error) {
	book, err := svc.PeriodBook(ctx, class, sy)
	if err != nil {
		return Stats{}, err
	}
	return AggregatePeriods(book, subjects...), nil
}

// SpecialStats aggregates the daily book of class into the special program buckets.
func (svc *Service) SpecialStats(ctx context.Context, class core.ClassRef, sy int) (SpecialStats, error) {
	book, err := svc.DailyBook(ctx, class, sy)
	if err != nil {
		return SpecialStats{}, err
	}
	students, err := AggregateSpecial(book, sy, class.Grade)
	if err != nil {
		if errors.Cause(err) == ErrRuleNotApplicable {
			return SpecialStats{Reason: err.Error()}, nil
		}
		return SpecialStats{}, err
	}
	return SpecialStats{Applicable: true, Students: students}, nil
}

// StudentYear returns the counters of a student over the school year sy.
func (svc *Service) StudentYear(ctx context.Context, class core.ClassRef, sy int, studentID string) (TermCounters, error) {
	book, err := svc.DailyBook(ctx, class, sy)
	if err != nil {
		return TermCounters{}, err
	}
	return StudentCounters(book, strings.TrimSpace(studentID)), nil
}
