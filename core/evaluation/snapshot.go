package evaluation

import (
	"fmt"

	"github.com/gakuseki/gakuseki/core"
)

// State is the snapshot lifecycle of a student evaluation. It only moves forward.
type State string

const (
	NoSnapshot State = "no_snapshot"
	ZenkiTaken State = "zenki_taken"
	FinalTaken State = "final_taken"
)

var (
	ErrSnapshotFinalized = core.NewConflictError("the final evaluation has already been taken")
	ErrInvalidSemester   = core.NewForbiddenError("only the first semester can be confirmed")
	ErrInvalidGrade      = core.NewForbiddenError("grade must be between 1 and 5")
)

// Snapshot is the persisted evaluation of one student.
// A manual grade wins over the final snapshot without replacing it.
type Snapshot struct {
	Zenki  *Result `json:"zenki_snapshot,omitempty"`
	Final  *Result `json:"final_snapshot,omitempty"`
	Manual *int    `json:"manual_final_grade,omitempty"`
}

// Snapshots are the evaluations of a class in a subject, keyed by student id.
type Snapshots map[string]*Snapshot

// SnapshotKey is the store key of the snapshots of class in subject for school year sy.
func SnapshotKey(class core.ClassRef, subject string, sy int) string {
	return fmt.Sprintf("evaluation/%s-%s-%d", class.ID(), subject, sy)
}

func (s *Snapshot) State() State {
	switch {
	case s == nil:
		return NoSnapshot
	case s.Final != nil:
		return FinalTaken
	case s.Zenki != nil:
		return ZenkiTaken
	default:
		return NoSnapshot
	}
}

// ConfirmSemester freezes r as the first semester evaluation.
func (s *Snapshot) ConfirmSemester(r Result) error {
	if s.State() == FinalTaken {
		return ErrSnapshotFinalized
	}
	s.Zenki = &r
	return nil
}

// Finalize freezes r as the final evaluation. Finalizing again refreshes it.
func (s *Snapshot) Finalize(r Result) {
	s.Final = &r
}

func (s *Snapshot) SetManual(grade int) error {
	if grade < 1 || grade > 5 {
		return ErrInvalidGrade
	}
	s.Manual = &grade
	return nil
}

func (s *Snapshot) ClearManual() {
	s.Manual = nil
}

// FinalGrade returns the manual grade if any, else the grade of the final snapshot.
func (s *Snapshot) FinalGrade() *int {
	if s == nil {
		return nil
	}
	if s.Manual != nil {
		g := *s.Manual
		return &g
	}
	if s.Final != nil {
		g := s.Final.FiveScale
		return &g
	}
	return nil
}

// get returns the snapshot of student, creating it when missing.
func (ss Snapshots) get(student string) *Snapshot {
	s := ss[student]
	if s == nil {
		s = new(Snapshot)
		ss[student] = s
	}
	return s
}
