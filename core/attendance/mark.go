package attendance

import "strings"

// Mark is an attendance status recorded for a student on a day or a period.
type Mark string

const (
	MarkPresent      Mark = "出席"
	MarkAbsent       Mark = "欠席"
	MarkLate         Mark = "遅刻"
	MarkEarlyLeave   Mark = "早退"
	MarkLateAndEarly Mark = "遅刻と早退"
	MarkMourning     Mark = "忌引き"
	MarkStopped      Mark = "出席停止"
	MarkJustified    Mark = "公欠"
	MarkUnrecorded   Mark = "未記録"

	// behaviour marks, only found in per-period books
	MarkForgotten Mark = "忘れ物"
	MarkTruancy   Mark = "怠学・居眠り"
)

// Marks lists every known mark.
var Marks = []Mark{
	MarkPresent, MarkAbsent, MarkLate, MarkEarlyLeave, MarkLateAndEarly,
	MarkMourning, MarkStopped, MarkJustified, MarkUnrecorded,
	MarkForgotten, MarkTruancy,
}

// Delta is the counter increment contributed by one mark.
type Delta struct {
	Attendance int
	Absence    int
	Late       int
	Early      int
	Mourn      int
	Stopped    int
	Justified  int
}

var deltas = map[Mark]Delta{
	MarkPresent:      {Attendance: 1},
	MarkAbsent:       {Absence: 1},
	MarkLate:         {Attendance: 1, Late: 1},
	MarkEarlyLeave:   {Attendance: 1, Early: 1},
	MarkLateAndEarly: {Attendance: 1, Late: 1, Early: 1},
	MarkMourning:     {Mourn: 1},
	MarkStopped:      {Stopped: 1},
	MarkJustified:    {Justified: 1},
}

// ParseMark trims s and reports whether it is a known mark.
func ParseMark(s string) (Mark, bool) {
	m := Mark(strings.TrimSpace(s))
	return m, m.Valid()
}

func (m Mark) Valid() bool {
	switch m {
	case MarkPresent, MarkAbsent, MarkLate, MarkEarlyLeave, MarkLateAndEarly,
		MarkMourning, MarkStopped, MarkJustified, MarkUnrecorded,
		MarkForgotten, MarkTruancy:
		return true
	}
	return false
}

// IsBehavior reports whether m is a per-period behaviour mark.
func (m Mark) IsBehavior() bool {
	return m == MarkForgotten || m == MarkTruancy
}

// Classify decodes a raw status into its counter delta.
// ok is false for 未記録, behaviour marks and unknown strings: they add nothing
// and the day (or period) is not a school day for that student.
func Classify(status string) (d Delta, ok bool) {
	d, ok = deltas[Mark(strings.TrimSpace(status))]
	return d, ok
}
