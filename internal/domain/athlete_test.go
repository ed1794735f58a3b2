package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttendanceScore(t *testing.T) {
	testCases := []struct {
		name     string
		history  []Attendance
		expected float64
	}{
		{name: "empty", history: nil, expected: 0},
		{name: "all present", history: []Attendance{AttendancePresent, AttendancePresent}, expected: 1},
		{name: "mixed", history: []Attendance{AttendancePresent, AttendanceAbsent, AttendancePresent, AttendanceAbsent}, expected: 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Athlete{AttendanceHistory: tc.history}
			require.InDelta(t, tc.expected, a.AttendanceScore(), 1e-9)
		})
	}
}

func TestFitnessScore(t *testing.T) {
	a := &Athlete{ErgScore: 420, AttendanceHistory: []Attendance{AttendanceAbsent, AttendancePresent}}
	require.Equal(t, 420.0, a.FitnessScore(5))

	// 只看最近一次出勤
	a.AttendanceHistory = append(a.AttendanceHistory, AttendanceAbsent)
	require.Equal(t, 420.0+AbsencePenalty, a.FitnessScore(5))

	a.DaysSinceBoated = 3
	require.Equal(t, 420.0+AbsencePenalty-15, a.FitnessScore(5))
	require.Equal(t, 420.0+AbsencePenalty, a.FitnessScore(0))
}

func TestConvert6kTo2k(t *testing.T) {
	// 6k 22:00 的配速为 1:50，换算后 2k 为 6:40
	require.InDelta(t, 400.0, Convert6kTo2k(1320), 1e-9)
}

func TestUpdateDaysSinceBoated(t *testing.T) {
	athletes := []*Athlete{
		{Name: "a", DaysSinceBoated: 4},
		{Name: "b", DaysSinceBoated: 0},
		{Name: "c", DaysSinceBoated: 2},
	}

	UpdateDaysSinceBoated(athletes, map[string]bool{"a": true})

	require.Equal(t, int32(0), athletes[0].DaysSinceBoated)
	require.Equal(t, int32(1), athletes[1].DaysSinceBoated)
	require.Equal(t, int32(3), athletes[2].DaysSinceBoated)
}
