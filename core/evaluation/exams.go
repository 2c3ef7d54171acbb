package evaluation

import (
	"fmt"

	"github.com/gakuseki/gakuseki/core"
)

// ExamKey names one exam of a subject.
type ExamKey string

const (
	SingleExam   ExamKey = "single_exam"
	ZenkiChukan  ExamKey = "zenki_chukan"
	ZenkiKimatsu ExamKey = "zenki_kimatsu"
	KokiChukan   ExamKey = "koki_chukan"
	KokiKimatsu  ExamKey = "koki_kimatsu"
)

// PeriodicExams are the exams of subjects examined four times a year.
var PeriodicExams = []ExamKey{ZenkiChukan, ZenkiKimatsu, KokiChukan, KokiKimatsu}

func (k ExamKey) Valid() bool {
	if k == SingleExam {
		return true
	}
	for _, pk := range PeriodicExams {
		if k == pk {
			return true
		}
	}
	return false
}

// Scores maps student ids to a 0-100 score.
type Scores map[string]int

// ExamBook holds the exam scores of a class: {subject_id: {exam_key: {student_id: score}}}.
type ExamBook map[string]map[ExamKey]Scores

// ExamBookKey is the store key of the exam book of class for school year sy.
func ExamBookKey(class core.ClassRef, sy int) string {
	return fmt.Sprintf("exams/%d-%s", sy, class.ID())
}

// ExamPercent returns the exam percentage (0-40) of student in subject.
// frequency is the number of exams of the subject a year; only 1 and 4 are graded.
func (b ExamBook) ExamPercent(subject string, frequency int, student string) float64 {
	var keys []ExamKey
	switch frequency {
	case 1:
		keys = []ExamKey{SingleExam}
	case 4:
		keys = PeriodicExams
	default:
		return 0
	}

	var sum, count int
	exams := b[subject]
	for _, key := range keys {
		if score, ok := exams[key][student]; ok {
			sum += score
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count*100) * MaxExam
}

// SetScore stores a score, or removes it when score is nil.
func (b ExamBook) SetScore(subject string, key ExamKey, student string, score *int) {
	if score == nil {
		if scores := b[subject][key]; scores != nil {
			delete(scores, student)
		}
		return
	}
	exams := b[subject]
	if exams == nil {
		exams = make(map[ExamKey]Scores)
		b[subject] = exams
	}
	if exams[key] == nil {
		exams[key] = make(Scores)
	}
	exams[key][student] = *score
}
