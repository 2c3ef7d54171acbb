package student

import (
	"fmt"

	"github.com/gakuseki/gakuseki/core"
)

// Status is the enrolment state of a student.
type Status string

const (
	StatusEnrolled    Status = "在籍"
	StatusSuspended   Status = "休学"
	StatusWithdrawn   Status = "退学"
	StatusTransferred Status = "転学"
	StatusStruckOff   Status = "除籍"
	StatusGraduated   Status = "卒業"
)

var transitions = map[Status][]Status{
	StatusEnrolled:  {StatusSuspended, StatusWithdrawn, StatusTransferred, StatusStruckOff, StatusGraduated},
	StatusSuspended: {StatusEnrolled, StatusWithdrawn, StatusTransferred, StatusStruckOff},
	StatusGraduated: {StatusEnrolled},
}

// CanTransition reports whether a student may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsExit reports whether s removes the student from the school (退学, 転学, 除籍).
func (s Status) IsExit() bool {
	return s == StatusWithdrawn || s == StatusTransferred || s == StatusStruckOff
}

func (s Status) transition(next Status) error {
	if !s.CanTransition(next) {
		return core.NewConflictError(fmt.Sprintf("a student cannot go from %s to %s", s, next))
	}
	return nil
}
