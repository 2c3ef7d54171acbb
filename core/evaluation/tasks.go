package evaluation

import (
	"fmt"

	"github.com/gakuseki/gakuseki/core"
)

// Half is a half of the school year a task book belongs to.
type Half string

const (
	FirstHalf  Half = "1st"
	SecondHalf Half = "2nd"
)

func (h Half) Valid() bool {
	return h == FirstHalf || h == SecondHalf
}

// ErrTaskIndex is returned when a task index is out of range.
var ErrTaskIndex = core.NewNotFoundError("task index out of range")

type (
	// TaskBook holds the tasks of a class for one half: {"subjects": {subject_id: {...}}}.
	TaskBook struct {
		Subjects map[string]*SubjectTasks `json:"subjects"`
	}

	SubjectTasks struct {
		Required int    `json:"required"`
		Tasks    []Task `json:"tasks"`
	}

	Task struct {
		Date      string   `json:"date"`
		Label     string   `json:"label"`
		Submitted []string `json:"submitted"`
	}
)

// TaskKey is the store key of the task book of class for half of school year sy.
func TaskKey(class core.ClassRef, sy int, half Half) string {
	return fmt.Sprintf("reports/%d-%s-%s", sy, class.ID(), half)
}

// Count returns how many tasks of subject student submitted, out of how many tasks.
func (b TaskBook) Count(subject, student string) (submitted, total int) {
	st := b.Subjects[subject]
	if st == nil {
		return 0, 0
	}
	for _, task := range st.Tasks {
		if task.HasSubmitted(student) {
			submitted++
		}
	}
	return submitted, len(st.Tasks)
}

// TaskPercent returns the task percentage (0-20) of student in subject over both halves.
func TaskPercent(first, second TaskBook, subject, student string) float64 {
	sub1, total1 := first.Count(subject, student)
	sub2, total2 := second.Count(subject, student)
	if total1+total2 == 0 {
		return 0
	}
	return float64(sub1+sub2) / float64(total1+total2) * MaxTasks
}

func (t Task) HasSubmitted(student string) bool {
	for _, id := range t.Submitted {
		if id == student {
			return true
		}
	}
	return false
}

// subject returns the tasks of subject, creating them when missing.
func (b *TaskBook) subject(id string) *SubjectTasks {
	if b.Subjects == nil {
		b.Subjects = make(map[string]*SubjectTasks)
	}
	st := b.Subjects[id]
	if st == nil {
		st = &SubjectTasks{Tasks: []Task{}}
		b.Subjects[id] = st
	}
	return st
}

// Tasks returns the tasks of subject, never nil.
func (b TaskBook) Tasks(subject string) []Task {
	if st := b.Subjects[subject]; st != nil && st.Tasks != nil {
		return st.Tasks
	}
	return []Task{}
}

func (b *TaskBook) AddTask(subject, date, label string) {
	st := b.subject(subject)
	st.Tasks = append(st.Tasks, Task{Date: date, Label: label, Submitted: []string{}})
}

// Toggle flips the submission of student for the task at index.
func (b *TaskBook) Toggle(subject string, index int, student string) error {
	st := b.subject(subject)
	if index < 0 || index >= len(st.Tasks) {
		return ErrTaskIndex
	}
	task := &st.Tasks[index]
	for i, id := range task.Submitted {
		if id == student {
			task.Submitted = append(task.Submitted[:i], task.Submitted[i+1:]...)
			return nil
		}
	}
	task.Submitted = append(task.Submitted, student)
	return nil
}

func (b *TaskBook) EditLabel(subject string, index int, label string) error {
	st := b.subject(subject)
	if index < 0 || index >= len(st.Tasks) {
		return ErrTaskIndex
	}
	st.Tasks[index].Label = label
	return nil
}

func (b *TaskBook) DeleteTask(subject string, index int) error {
	st := b.subject(subject)
	if index < 0 || index >= len(st.Tasks) {
		return ErrTaskIndex
	}
	st.Tasks = append(st.Tasks[:index], st.Tasks[index+1:]...)
	return nil
}

func (b *TaskBook) SetRequired(subject string, required int) {
	b.subject(subject).Required = required
}
