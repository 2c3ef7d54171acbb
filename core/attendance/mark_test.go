package attendance

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		status string
		want   Delta
		wantOk bool
	}{
		{status: "出席", want: Delta{Attendance: 1}, wantOk: true},
		{status: "欠席", want: Delta{Absence: 1}, wantOk: true},
		{status: "遅刻", want: Delta{Attendance: 1, Late: 1}, wantOk: true},
		{status: "早退", want: Delta{Attendance: 1, Early: 1}, wantOk: true},
		{status: "遅刻と早退", want: Delta{Attendance: 1, Late: 1, Early: 1}, wantOk: true},
		{status: "忌引き", want: Delta{Mourn: 1}, wantOk: true},
		{status: "出席停止", want: Delta{Stopped: 1}, wantOk: true},
		{status: "公欠", want: Delta{Justified: 1}, wantOk: true},
		{status: " 出席 ", want: Delta{Attendance: 1}, wantOk: true},
		{status: "未記録"},
		{status: "忘れ物"},
		{status: "怠学・居眠り"},
		{status: ""},
		{status: "出 席"},
		{status: "present"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got, ok := Classify(tt.status)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("Classify(%q) = %+v, %v; want %+v, %v", tt.status, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestClassify_neverCountsAttendanceForAbsences(t *testing.T) {
	for _, m := range Marks {
		d, ok := Classify(string(m))
		if !ok {
			continue
		}
		if (d.Absence+d.Mourn+d.Stopped+d.Justified) > 0 && d.Attendance != 0 {
			t.Errorf("Classify(%q) counts attendance for a non attended day: %+v", m, d)
		}
		if (d.Late+d.Early) > 0 && d.Attendance != 1 {
			t.Errorf("Classify(%q) late/early without attendance: %+v", m, d)
		}
	}
}

func TestMark_Valid(t *testing.T) {
	for _, m := range Marks {
		if !m.Valid() {
			t.Errorf("%q.Valid() = false, want true", m)
		}
	}
	if Mark("出席する").Valid() {
		t.Errorf(`"出席する".Valid() = true, want false`)
	}
	if _, ok := ParseMark(" 公欠\n"); !ok {
		t.Errorf("ParseMark() did not trim its input")
	}
}
