package evaluation

import (
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name                  string
		exam, tasks, autonomy float64
		wantKanten            string
		wantFiveScale         int
	}{
		{name: "nothing", wantKanten: "CCC", wantFiveScale: 1},
		{name: "everything", exam: 40, tasks: 20, autonomy: 40, wantKanten: "AAA", wantFiveScale: 5},
		{name: "middle", exam: 20, tasks: 10, autonomy: 20, wantKanten: "BBB", wantFiveScale: 3},
		{name: "cutoffs are inclusive", exam: 14.4, tasks: 7.2, autonomy: 34.4, wantKanten: "BBA", wantFiveScale: 4},
		{name: "just below cutoffs", exam: 34.39, tasks: 17.19, autonomy: 14.39, wantKanten: "BBC", wantFiveScale: 2},
		{name: "ABA", exam: 40, tasks: 10, autonomy: 40, wantKanten: "ABA", wantFiveScale: 5},
		{name: "AAB", exam: 40, tasks: 20, autonomy: 20, wantKanten: "AAB", wantFiveScale: 4},
		{name: "ACA", exam: 40, autonomy: 40, wantKanten: "ACA", wantFiveScale: 4},
		{name: "CAC", tasks: 20, wantKanten: "CAC", wantFiveScale: 1},
		{name: "BCB", exam: 20, autonomy: 20, wantKanten: "BCB", wantFiveScale: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.exam, tt.tasks, tt.autonomy)
			if got.Kanten != tt.wantKanten {
				t.Errorf("Evaluate().Kanten = %v, want %v", got.Kanten, tt.wantKanten)
			}
			if got.FiveScale != tt.wantFiveScale {
				t.Errorf("Evaluate().FiveScale = %v, want %v", got.FiveScale, tt.wantFiveScale)
			}
			if kanten := string(got.Exam) + string(got.Tasks) + string(got.Autonomy); kanten != got.Kanten {
				t.Errorf("Evaluate() letters = %v, want %v", kanten, got.Kanten)
			}
		})
	}
}

func TestComputeAutonomy(t *testing.T) {
	tests := []struct {
		name                     string
		present, total, negative int
		want                     float64
	}{
		{name: "no period", want: 0},
		{name: "never present", total: 10, negative: 5, want: 0},
		{name: "always present", present: 10, total: 10, want: 40},
		{name: "partly present", present: 5, total: 10, negative: 2, want: 24.5},
		{name: "more negative than total", present: 10, total: 10, negative: 12, want: 25},
		{name: "half present no negative", present: 4, total: 8, want: 27.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeAutonomy(tt.present, tt.total, tt.negative); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComputeAutonomy() = %v, want %v", got, tt.want)
			}
		})
	}
}
