package optimizer

import (
	"fmt"
	"strings"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

// BoatSummary 为报告中单条艇的统计数据
type BoatSummary struct {
	AverageErg        float64 `json:"averageErg"`
	AverageAttendance float64 `json:"averageAttendance"`
	Varsity           int     `json:"varsity"`
	Novice            int     `json:"novice"`
	SideMatches       int     `json:"sideMatches"`
	Seats             int     `json:"seats"`
}

func Summarize(lineup []*domain.Athlete) BoatSummary {
	s := BoatSummary{Seats: len(lineup)}
	if len(lineup) == 0 {
		return s
	}

	for i, a := range lineup {
		s.AverageErg += a.ErgScore
		s.AverageAttendance += a.AttendanceScore()
		if a.Experience == domain.ExperienceVarsity {
			s.Varsity++
		} else {
			s.Novice++
		}
		if a.SidePreference == domain.SideBoth || a.SidePreference == domain.SeatSide(i+1) {
			s.SideMatches++
		}
	}
	s.AverageErg /= float64(len(lineup))
	s.AverageAttendance /= float64(len(lineup))

	return s
}

// FormatErg 将秒数格式化为 m:ss.ss
func FormatErg(seconds float64) string {
	minutes := int(seconds / 60)
	return fmt.Sprintf("%d:%05.2f", minutes, seconds-float64(minutes*60))
}

// remainder 返回名单中没有上艇的运动员，保持名单原有顺序
func remainder(athletes []*domain.Athlete, boats [][]*domain.Athlete) []*domain.Athlete {
	boated := make(map[*domain.Athlete]bool)
	for _, boat := range boats {
		for _, a := range boat {
			boated[a] = true
		}
	}

	rest := make([]*domain.Athlete, 0)
	for _, a := range athletes {
		if !boated[a] {
			rest = append(rest, a)
		}
	}
	return rest
}

// RenderReport 渲染阵容的文字报告，multi 为 true 时逐艇输出并列出未上艇的运动员
func RenderReport(res *Result, multi bool) string {
	if res == nil {
		return "尚未运行优化\n"
	}

	line := strings.Repeat("=", 60)
	var sb strings.Builder

	sb.WriteString("\n" + line + "\n")
	if multi {
		fmt.Fprintf(&sb, "OPTIMAL MULTI-BOAT LINEUPS (Total Cost: %.2f)\n", res.Cost)
	} else {
		fmt.Fprintf(&sb, "OPTIMAL LINEUP (Cost: %.2f)\n", res.Cost)
	}
	sb.WriteString(line + "\n")

	for i, lineup := range res.Boats {
		boat, err := domain.NewBoatWithLineup(lineup)
		if err != nil {
			fmt.Fprintf(&sb, "无法渲染第 %d 条艇: %v\n", i+1, err)
			continue
		}

		indent := ""
		if multi {
			fmt.Fprintf(&sb, "\n--- BOAT %d ---\n", i+1)
			indent = "  "
		}
		sb.WriteString(boat.String() + "\n")

		s := Summarize(lineup)
		if !multi {
			sb.WriteString(strings.Repeat("-", 60) + "\nLINEUP STATISTICS\n" + strings.Repeat("-", 60) + "\n")
		}
		fmt.Fprintf(&sb, "%sAverage Erg Score: %s\n", indent, FormatErg(s.AverageErg))
		fmt.Fprintf(&sb, "%sAverage Attendance Score: %.1f%%\n", indent, s.AverageAttendance*100)
		fmt.Fprintf(&sb, "%sExperience: %d Varsity, %d Novice\n", indent, s.Varsity, s.Novice)
		fmt.Fprintf(&sb, "%sSide Preference Matches: %d/%d\n", indent, s.SideMatches, s.Seats)
	}

	if multi && len(res.Unassigned) > 0 {
		names := make([]string, len(res.Unassigned))
		for i, a := range res.Unassigned {
			names[i] = a.Name
		}
		fmt.Fprintf(&sb, "\nUnassigned: %s\n", strings.Join(names, ", "))
	}

	sb.WriteString(line + "\n")
	return sb.String()
}
