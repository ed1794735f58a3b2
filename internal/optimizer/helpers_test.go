package optimizer

import (
	"fmt"
	"math/rand"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

func newAthlete(name string, erg float64, side domain.Side, exp domain.Experience) *domain.Athlete {
	return &domain.Athlete{
		Name:              name,
		ErgScore:          erg,
		SidePreference:    side,
		Experience:        exp,
		AttendanceHistory: []domain.Attendance{domain.AttendancePresent},
	}
}

// randomRoster 生成 n 个属性随机的运动员
func randomRoster(n int, seed int64) []*domain.Athlete {
	rng := rand.New(rand.NewSource(seed))
	sides := []domain.Side{domain.SidePort, domain.SideStarboard, domain.SideBoth}
	exps := []domain.Experience{domain.ExperienceNovice, domain.ExperienceVarsity}

	roster := make([]*domain.Athlete, n)
	for i := range roster {
		roster[i] = &domain.Athlete{
			Name:              fmt.Sprintf("athlete-%02d", i),
			ErgScore:          400 + rng.Float64()*80,
			SidePreference:    sides[rng.Intn(len(sides))],
			Experience:        exps[rng.Intn(len(exps))],
			AttendanceHistory: []domain.Attendance{domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendancePresent},
			DaysSinceBoated:   int32(rng.Intn(4)),
		}
	}
	return roster
}

func fastParameters() Parameters {
	return Parameters{
		InitialTemp:       100,
		CoolingRate:       0.9,
		MinTemp:           1,
		IterationsPerTemp: 50,
		CoolingSchedule:   CoolingExponential,
	}
}

func names(lineup []*domain.Athlete) []string {
	out := make([]string, len(lineup))
	for i, a := range lineup {
		out[i] = a.Name
	}
	return out
}
