package domain

import "time"

type Side string

const (
	SidePort      Side = "port"
	SideStarboard Side = "starboard"
	SideBoth      Side = "both"
)

type Experience string

const (
	ExperienceNovice  Experience = "novice"
	ExperienceVarsity Experience = "varsity"
)

// Attendance 为一次训练的出勤记录，取值为 "yes" 或 "no"
type Attendance string

const (
	AttendancePresent Attendance = "yes"
	AttendanceAbsent  Attendance = "no"
)

// 最近一次训练缺勤时附加在体能分数上的惩罚（秒）
const AbsencePenalty = 500.0

type Athlete struct {
	ID                int64        `json:"id"`
	Name              string       `json:"name"`
	Email             string       `json:"email"`
	ErgScore          float64      `json:"ergScore"` // 2k 测功仪成绩，单位为秒
	SidePreference    Side         `json:"sidePreference"`
	Experience        Experience   `json:"experience"`
	AttendanceHistory []Attendance `json:"attendanceHistory"` // 最近的记录在最后
	DaysSinceBoated   int32        `json:"daysSinceBoated"`
	CreatedAt         time.Time    `json:"createdAt"`
	Version           int32        `json:"-"`
}

// AttendanceScore 返回出勤率，越高越好
func (a *Athlete) AttendanceScore() float64 {
	if len(a.AttendanceHistory) == 0 {
		return 0
	}

	present := 0
	for _, record := range a.AttendanceHistory {
		if record == AttendancePresent {
			present++
		}
	}

	return float64(present) / float64(len(a.AttendanceHistory))
}

// FitnessScore 返回体能分数（越低越好）
// daysBonus 为每等待一天所减去的秒数
func (a *Athlete) FitnessScore(daysBonus float64) float64 {
	score := a.ErgScore

	if n := len(a.AttendanceHistory); n > 0 && a.AttendanceHistory[n-1] == AttendanceAbsent {
		score += AbsencePenalty
	}

	score -= float64(a.DaysSinceBoated) * daysBonus

	return score
}

// Convert6kTo2k 将 6k 成绩粗略换算为 2k 成绩：6k 的 500m 配速减去 10 秒后乘以 4
func Convert6kTo2k(time6k float64) float64 {
	split6k := time6k / 12
	return (split6k - 10) * 4
}

// UpdateDaysSinceBoated 在一次排艇之后更新等待天数：上艇的运动员清零，其余的加一
func UpdateDaysSinceBoated(athletes []*Athlete, boated map[string]bool) {
	for _, a := range athletes {
		if boated[a.Name] {
			a.DaysSinceBoated = 0
		} else {
			a.DaysSinceBoated++
		}
	}
}
