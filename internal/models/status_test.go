package models

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to LessonStatus
		want     bool
	}{
		{LessonScheduled, LessonCompleted, true},
		{LessonScheduled, LessonCancelled, true},
		{LessonScheduled, LessonMissed, true},
		{LessonScheduled, LessonScheduled, false},
		{LessonCompleted, LessonCancelled, false},
		{LessonCompleted, LessonScheduled, false},
		{LessonCancelled, LessonMissed, false},
		{LessonMissed, LessonCompleted, false},
		{LessonStatus("bogus"), LessonCompleted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestValidLessonStatus(t *testing.T) {
	for _, s := range []LessonStatus{LessonScheduled, LessonCompleted, LessonCancelled, LessonMissed} {
		if !ValidLessonStatus(s) {
			t.Errorf("ValidLessonStatus(%s) = false", s)
		}
	}
	if ValidLessonStatus(LessonStatus("done")) {
		t.Error("unknown status accepted")
	}
}

func TestValidAttendanceStatus(t *testing.T) {
	for _, s := range []AttendanceStatus{AttendanceScheduled, AttendanceAttended, AttendanceMissed, AttendanceCancelled} {
		if !ValidAttendanceStatus(s) {
			t.Errorf("ValidAttendanceStatus(%s) = false", s)
		}
	}
	if ValidAttendanceStatus(AttendanceStatus("present")) {
		t.Error("unknown attendance status accepted")
	}
}
