package attendance

import (
	"math"

	"github.com/pkg/errors"
)

type (
	// Counters are the attendance totals of a student (or a whole class) over a term.
	Counters struct {
		Attendance             int      `json:"attendance"`
		Absence                int      `json:"absence"`
		Late                   int      `json:"late"`
		Early                  int      `json:"early"`
		Mourn                  int      `json:"mourn"`
		Stopped                int      `json:"stopped"`
		Justified              int      `json:"justified"`
		SchoolDays             int      `json:"school_days"`
		RequiredAttendanceDays int      `json:"required_attendance_days"`
		AttendanceRate         *float64 `json:"attendance_rate"` // nil when nothing is required
	}

	TermCounters struct {
		FirstTerm  Counters `json:"first_term"`
		SecondTerm Counters `json:"second_term"`
		Total      Counters `json:"total"`
	}

	// TermDays counts the distinct days (or periods) holding at least one recorded mark.
	TermDays struct {
		FirstTerm  int `json:"first_term"`
		SecondTerm int `json:"second_term"`
		Total      int `json:"total"`
	}

	// Stats is the aggregation of a whole attendance book.
	// Class counters sum the student counters but take their school days from Days.
	Stats struct {
		Days     TermDays                 `json:"days"`
		Class    TermCounters             `json:"class_stats"`
		Students map[string]*TermCounters `json:"students"`
	}

	SpecialCounters struct {
		SenmonZenki Counters `json:"senmon_zenki"`
		KoukouZenki Counters `json:"koukou_zenki"`
		SenmonKoki  Counters `json:"senmon_koki"`
		KoukouKoki  Counters `json:"koukou_koki"`
	}
)

// add counts one recorded day (or period).
func (c *Counters) add(d Delta) {
	c.Attendance += d.Attendance
	c.Absence += d.Absence
	c.Late += d.Late
	c.Early += d.Early
	c.Mourn += d.Mourn
	c.Stopped += d.Stopped
	c.Justified += d.Justified
	c.SchoolDays++
}

// finish computes the required attendance days and the attendance rate.
func (c *Counters) finish() {
	c.RequiredAttendanceDays = c.SchoolDays - c.Mourn - c.Stopped - c.Justified
	if c.RequiredAttendanceDays < 0 {
		c.RequiredAttendanceDays = 0
	}
	c.AttendanceRate = nil
	if c.RequiredAttendanceDays > 0 {
		rate := roundRate(float64(c.Attendance) / float64(c.RequiredAttendanceDays) * 100)
		c.AttendanceRate = &rate
	}
}

// roundRate rounds a percentage to one decimal.
func roundRate(v float64) float64 {
	return math.Round(v*10) / 10
}

func (tc *TermCounters) term(t Term) *Counters {
	if t == FirstTerm {
		return &tc.FirstTerm
	}
	return &tc.SecondTerm
}

func (tc *TermCounters) add(t Term, d Delta) {
	tc.term(t).add(d)
	tc.Total.add(d)
}

func (tc *TermCounters) finish() {
	tc.FirstTerm.finish()
	tc.SecondTerm.finish()
	tc.Total.finish()
}

func (td *TermDays) add(t Term) {
	if t == FirstTerm {
		td.FirstTerm++
	} else {
		td.SecondTerm++
	}
	td.Total++
}

func (sc *SpecialCounters) term(t Term) *Counters {
	switch t {
	case SenmonZenki:
		return &sc.SenmonZenki
	case KoukouZenki:
		return &sc.KoukouZenki
	case SenmonKoki:
		return &sc.SenmonKoki
	default:
		return &sc.KoukouKoki
	}
}

func (sc *SpecialCounters) finish() {
	sc.SenmonZenki.finish()
	sc.KoukouZenki.finish()
	sc.SenmonKoki.finish()
	sc.KoukouKoki.finish()
}

type aggregator struct {
	stats Stats
}

func newAggregator() *aggregator {
	return &aggregator{stats: Stats{Students: make(map[string]*TermCounters)}}
}

// record folds one day (or period) of statuses into the stats.
func (a *aggregator) record(date string, students map[string]string) {
	t, ok := parseEntryDate(date)
	if !ok {
		return
	}
	term := StandardTerm(t)

	var recorded bool
	for sid, status := range students {
		d, ok := Classify(status)
		if !ok {
			continue
		}
		recorded = true
		tc, ok := a.stats.Students[sid]
		if !ok {
			tc = new(TermCounters)
			a.stats.Students[sid] = tc
		}
		tc.add(term, d)
		a.stats.Class.add(term, d)
	}
	if recorded {
		a.stats.Days.add(term)
	}
}

func (a *aggregator) finish() Stats {
	class, days := &a.stats.Class, a.stats.Days
	class.FirstTerm.SchoolDays = days.FirstTerm
	class.SecondTerm.SchoolDays = days.SecondTerm
	class.Total.SchoolDays = days.Total
	class.finish()
	for _, tc := range a.stats.Students {
		tc.finish()
	}
	return a.stats
}

// AggregateDaily folds a daily attendance book into per-term counters.
func AggregateDaily(book DailyBook) Stats {
	return AggregateDailyEntries(book.Entries())
}

// AggregateDailyEntries folds daily entries into per-term counters.
// The result does not depend on the order of entries.
func AggregateDailyEntries(entries []DailyEntry) Stats {
	agg := newAggregator()
	for _, e := range entries {
		if e.Record == nil {
			continue
		}
		agg.record(e.Date, e.Record.Students)
	}
	return agg.finish()
}

// AggregatePeriods folds a per-period book into per-term counters, one school day per period.
// Only the periods taught for subject are counted unless subject is empty.
func AggregatePeriods(book PeriodBook, subject ...string) Stats {
	return AggregatePeriodEntries(book.Entries(), subject...)
}

// AggregatePeriodEntries folds period entries into per-term counters.
func AggregatePeriodEntries(entries []PeriodEntry, subject ...string) Stats {
	match := SubjectMatcher(subject...)
	agg := newAggregator()
	for _, e := range entries {
		if e.Record == nil || !match(e.Record.Subject) {
			continue
		}
		agg.record(e.Date, e.Record.Students)
	}
	return agg.finish()
}

// StudentCounters returns the counters of one student, zero counters if the student has no recorded day.
func StudentCounters(book DailyBook, studentID string) TermCounters {
	agg := newAggregator()
	for _, e := range book.Entries() {
		if e.Record == nil {
			continue
		}
		if status, ok := e.Record.Students[studentID]; ok {
			agg.record(e.Date, map[string]string{studentID: status})
		}
	}
	stats := agg.finish()
	if tc, ok := stats.Students[studentID]; ok {
		return *tc
	}
	var tc TermCounters
	tc.finish()
	return tc
}

// AggregateSpecial folds a daily book into the special program buckets of grade.
// It returns ErrRuleNotApplicable when the grouping does not apply to sy and grade.
func AggregateSpecial(book DailyBook, sy int, grade string) (map[string]*SpecialCounters, error) {
	if !IsSpecialTarget(sy, grade) {
		return nil, errors.Wrapf(ErrRuleNotApplicable, "school year %d, grade %s", sy, grade)
	}

	result := make(map[string]*SpecialCounters)
	for _, e := range book.Entries() {
		if e.Record == nil {
			continue
		}
		t, ok := parseEntryDate(e.Date)
		if !ok {
			continue
		}
		term, ok := SpecialTerm(grade, t.Month())
		if !ok {
			continue
		}
		for sid, status := range e.Record.Students {
			d, ok := Classify(status)
			if !ok {
				continue
			}
			sc, ok := result[sid]
			if !ok {
				sc = new(SpecialCounters)
				result[sid] = sc
			}
			sc.term(term).add(d)
		}
	}
	for _, sc := range result {
		sc.finish()
	}
	return result, nil
}

// DailyBreakdown counts, for each valid date, how many students got each mark.
func DailyBreakdown(book DailyBook) map[string]map[Mark]int {
	breakdown := make(map[string]map[Mark]int, len(book))
	for date, rec := range book {
		if rec == nil {
			continue
		}
		if _, ok := parseEntryDate(date); !ok {
			continue
		}
		counts := make(map[Mark]int)
		for _, status := range rec.Students {
			if m, ok := ParseMark(status); ok && m != MarkUnrecorded {
				counts[m]++
			}
		}
		breakdown[date] = counts
	}
	return breakdown
}
