package models

// lessonTransitions enumerates the legal status moves. Completed, cancelled
// and missed are all terminal.
var lessonTransitions = map[LessonStatus][]LessonStatus{
	LessonScheduled: {LessonCompleted, LessonCancelled, LessonMissed},
	LessonCompleted: {},
	LessonCancelled: {},
	LessonMissed:    {},
}

func ValidLessonStatus(s LessonStatus) bool {
	_, ok := lessonTransitions[s]
	return ok
}

// CanTransition reports whether a lesson may move from one status to another.
// A no-op transition (from == to) is not allowed.
func CanTransition(from, to LessonStatus) bool {
	for _, allowed := range lessonTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendanceScheduled, AttendanceAttended, AttendanceMissed, AttendanceCancelled:
		return true
	}
	return false
}
