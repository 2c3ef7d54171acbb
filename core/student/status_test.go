package student

import "testing"

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusEnrolled, StatusSuspended, true},
		{StatusSuspended, StatusEnrolled, true},
		{StatusEnrolled, StatusWithdrawn, true},
		{StatusSuspended, StatusTransferred, true},
		{StatusSuspended, StatusStruckOff, true},
		{StatusEnrolled, StatusGraduated, true},
		{StatusGraduated, StatusEnrolled, true},
		{StatusSuspended, StatusGraduated, false},
		{StatusSuspended, StatusSuspended, false},
		{StatusWithdrawn, StatusEnrolled, false},
		{StatusGraduated, StatusWithdrawn, false},
		{StatusStruckOff, StatusSuspended, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"→"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}
