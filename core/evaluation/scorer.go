package evaluation

// Letter is the grade of one evaluation axis.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
)

// axis maxima
const (
	MaxExam     = 40.0
	MaxTasks    = 20.0
	MaxAutonomy = 40.0
)

// Points maps C, B, A to 1, 2, 3.
func (l Letter) Points() int {
	switch l {
	case LetterA:
		return 3
	case LetterB:
		return 2
	default:
		return 1
	}
}

// Result is the evaluation of a student in a subject.
type Result struct {
	FiveScale int    `json:"five_scale"`
	Kanten    string `json:"kanten"`
	Exam      Letter `json:"exam"`
	Tasks     Letter `json:"tasks"`
	Autonomy  Letter `json:"autonomy"`
}

func examLetter(percent float64) Letter {
	switch {
	case percent < 14.4:
		return LetterC
	case percent < 34.4:
		return LetterB
	default:
		return LetterA
	}
}

func taskLetter(percent float64) Letter {
	switch {
	case percent < 7.2:
		return LetterC
	case percent < 17.2:
		return LetterB
	default:
		return LetterA
	}
}

// autonomy shares the exam cutoffs: both axes are out of 40.
func autonomyLetter(percent float64) Letter {
	return examLetter(percent)
}

// FiveScale folds the axis letters into the 1-5 grade.
// The weighted average exam*0.4 + tasks*0.2 + autonomy*0.4 is compared tenfold, in integers.
func FiveScale(exam, tasks, autonomy Letter) int {
	score := 4*exam.Points() + 2*tasks.Points() + 4*autonomy.Points()
	switch {
	case score <= 15:
		return 1
	case score <= 19:
		return 2
	case score <= 23:
		return 3
	case score <= 27:
		return 4
	default:
		return 5
	}
}

// Evaluate grades the exam (0-40), task (0-20) and autonomy (0-40) percentages.
func Evaluate(examPercent, taskPercent, autonomyPercent float64) Result {
	e, t, a := examLetter(examPercent), taskLetter(taskPercent), autonomyLetter(autonomyPercent)
	return Result{
		FiveScale: FiveScale(e, t, a),
		Kanten:    string(e) + string(t) + string(a),
		Exam:      e,
		Tasks:     t,
		Autonomy:  a,
	}
}

// ComputeAutonomy returns the autonomy percentage (0-40): 25 for attendance and 15 for behaviour.
// A student never present gets no behaviour points at all.
func ComputeAutonomy(present, total, negative int) float64 {
	if total <= 0 {
		return 0
	}
	attendance := float64(present) / float64(total) * 25
	if present == 0 {
		return attendance
	}
	good := total - negative
	if good < 0 {
		good = 0
	}
	return attendance + float64(good)/float64(total)*15
}
