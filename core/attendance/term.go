package attendance

import (
	"errors"
	"time"
)

// Term is a school-year bucket.
type Term string

const (
	FirstTerm  Term = "first_term"  // April - September
	SecondTerm Term = "second_term" // October - March
	Total      Term = "total"

	// special program buckets (専門 / 高校 split of grades 2 and 3)
	SenmonZenki Term = "senmon_zenki"
	KoukouZenki Term = "koukou_zenki"
	SenmonKoki  Term = "senmon_koki"
	KoukouKoki  Term = "koukou_koki"
)

// ErrRuleNotApplicable is returned when the special program grouping does not apply
// to a school year and grade.
var ErrRuleNotApplicable = errors.New("special attendance grouping not applicable")

// StandardTerm returns the half-year of t.
func StandardTerm(t time.Time) Term {
	if t.Month() >= time.April && t.Month() <= time.September {
		return FirstTerm
	}
	return SecondTerm
}

var specialTerms = map[string]map[time.Month]Term{
	"2": {
		time.April: SenmonZenki, time.May: SenmonZenki, time.July: SenmonZenki,
		time.August: SenmonZenki, time.September: SenmonZenki,
		time.June:     KoukouZenki,
		time.November: SenmonKoki, time.December: SenmonKoki, time.January: SenmonKoki, time.March: SenmonKoki,
		time.October: KoukouKoki, time.February: KoukouKoki,
	},
	"3": {
		time.April: SenmonZenki, time.May: SenmonZenki, time.July: SenmonZenki,
		time.August: SenmonZenki, time.September: SenmonZenki,
		time.June:     KoukouZenki,
		time.November: SenmonKoki, time.December: SenmonKoki, time.February: SenmonKoki, time.March: SenmonKoki,
		time.October: KoukouKoki, time.January: KoukouKoki,
	},
}

// SpecialTerm returns the special program bucket of month for grade.
// ok is false when the grade has no special grouping.
func SpecialTerm(grade string, month time.Month) (term Term, ok bool) {
	term, ok = specialTerms[grade][month]
	return term, ok
}

var specialTargets = map[int][]string{
	2025: {"2", "3"},
	2026: {"2", "3"},
	2027: {"3"},
}

// IsSpecialTarget reports whether the special grouping applies to grade during school year sy.
func IsSpecialTarget(sy int, grade string) bool {
	for _, g := range specialTargets[sy] {
		if g == grade {
			return true
		}
	}
	return false
}
