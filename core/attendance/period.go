package attendance

import "strings"

// Numbers feed the autonomy axis of an evaluation.
type Numbers struct {
	Present  int `json:"present"`
	Total    int `json:"total"`
	Negative int `json:"negative"`
}

// SubjectMatcher matches period subjects against any of names (subject id or name).
// Without names every period matches.
func SubjectMatcher(names ...string) func(string) bool {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			wanted[n] = true
		}
	}
	return func(subject string) bool {
		return len(wanted) == 0 || wanted[strings.TrimSpace(subject)]
	}
}

var (
	presentMarks  = map[Mark]bool{MarkPresent: true, MarkLate: true, MarkTruancy: true, MarkForgotten: true}
	negativeMarks = map[Mark]bool{MarkLate: true, MarkTruancy: true, MarkForgotten: true}
)

// PeriodNumbers counts the periods matched by subjects (total), the ones the
// student sat through (present) and the ones marked late or for behaviour
// (negative). Every matched period counts toward total, marked or not.
func PeriodNumbers(book PeriodBook, studentID string, subjects ...string) Numbers {
	match := SubjectMatcher(subjects...)

	var n Numbers
	for _, e := range book.Entries() {
		if e.Record == nil || !match(e.Record.Subject) {
			continue
		}
		if _, ok := parseEntryDate(e.Date); !ok {
			continue
		}
		n.Total++

		m, ok := ParseMark(e.Record.Students[studentID])
		if !ok {
			continue
		}
		if presentMarks[m] {
			n.Present++
		}
		if negativeMarks[m] {
			n.Negative++
		}
	}
	return n
}
