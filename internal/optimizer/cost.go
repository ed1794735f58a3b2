package optimizer

import (
	"math"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

// CostBreakdown 为单条艇的各项代价
type CostBreakdown struct {
	Fitness          float64 `json:"fitness"`
	SideMismatch     float64 `json:"sideMismatch"`
	ExperienceMixing float64 `json:"experienceMixing"`
	PowerVariance    float64 `json:"powerVariance"`
	SternLoading     float64 `json:"sternLoading"`
}

func (c CostBreakdown) Total() float64 {
	return c.Fitness + c.SideMismatch + c.ExperienceMixing + c.PowerVariance + c.SternLoading
}

// fitnessScores 预先计算阵容中每个人的体能分数
func fitnessScores(lineup []*domain.Athlete, daysBonus float64) []float64 {
	scores := make([]float64, len(lineup))
	for i, a := range lineup {
		scores[i] = a.FitnessScore(daysBonus)
	}
	return scores
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationVariance 计算总体方差
func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	avg := mean(values)
	variance := 0.0
	for _, v := range values {
		variance += math.Pow(v-avg, 2)
	}
	return variance / float64(len(values))
}

// sideMismatches 统计坐在非偏好舷侧的人数，座位的舷侧由位置决定
func sideMismatches(lineup []*domain.Athlete) int {
	mismatches := 0
	for i, a := range lineup {
		if a.SidePreference != domain.SideBoth && a.SidePreference != domain.SeatSide(i+1) {
			mismatches++
		}
	}
	return mismatches
}

func experienceCounts(lineup []*domain.Athlete) (varsity, novice int) {
	for _, a := range lineup {
		if a.Experience == domain.ExperienceVarsity {
			varsity++
		} else {
			novice++
		}
	}
	return varsity, novice
}

// sternLoading 艇尾方向的人应该更强：若靠近艇首的人分数更低（更强），按差值计罚，相等不计
func sternLoading(scores []float64) float64 {
	penalty := 0.0
	for i := 0; i+1 < len(scores); i++ {
		if scores[i] < scores[i+1] {
			penalty += scores[i+1] - scores[i]
		}
	}
	return penalty
}

// SingleBoatBreakdown 计算单艇阵容的各项代价
func SingleBoatBreakdown(lineup []*domain.Athlete, w SingleBoatWeights) CostBreakdown {
	scores := fitnessScores(lineup, w.DaysSinceBoatedPenalty)
	varsity, novice := experienceCounts(lineup)

	total := 0.0
	for _, s := range scores {
		total += s
	}

	return CostBreakdown{
		Fitness:          total,
		SideMismatch:     float64(sideMismatches(lineup)) * w.SidePreferencePenalty,
		ExperienceMixing: float64(varsity*novice) * w.ExperienceMixingPenalty,
		PowerVariance:    populationVariance(scores) * w.PowerVariancePenalty,
		SternLoading:     sternLoading(scores) * w.SternLoadingPenalty,
	}
}

// SingleBoatCost 计算单艇阵容的代价（越低越好），阵容长度与艇型不符时返回 +Inf
func SingleBoatCost(lineup []*domain.Athlete, boatSize int, w SingleBoatWeights) float64 {
	if len(lineup) != boatSize {
		return math.Inf(1)
	}
	return SingleBoatBreakdown(lineup, w).Total()
}

// BoatBreakdown 计算多艇优化中单条艇的代价，不含体能总分，经验混合只计一次
func BoatBreakdown(lineup []*domain.Athlete, w MultiBoatWeights) CostBreakdown {
	scores := fitnessScores(lineup, w.DaysSinceBoatedPenalty)
	varsity, novice := experienceCounts(lineup)

	mixing := 0.0
	if varsity > 0 && novice > 0 {
		mixing = w.ExperienceMixingPenalty
	}

	return CostBreakdown{
		SideMismatch:     float64(sideMismatches(lineup)) * w.SidePreferencePenalty,
		ExperienceMixing: mixing,
		PowerVariance:    populationVariance(scores) * w.PowerVariancePenalty,
		SternLoading:     sternLoading(scores) * w.SternLoadingPenalty,
	}
}

// InterBoatVariance 计算各艇平均体能分数的总体方差，少于两条艇时为 0
func InterBoatVariance(boats [][]*domain.Athlete, daysBonus float64) float64 {
	averages := make([]float64, 0, len(boats))
	for _, boat := range boats {
		if len(boat) == 0 {
			continue
		}
		averages = append(averages, mean(fitnessScores(boat, daysBonus)))
	}

	if len(averages) < 2 {
		return 0
	}
	return populationVariance(averages)
}

// MultiBoatCost 计算多艇划分的代价：各艇代价之和加上艇间实力差异惩罚
func MultiBoatCost(boats [][]*domain.Athlete, boatSize int, w MultiBoatWeights) float64 {
	cost := 0.0
	for _, boat := range boats {
		if len(boat) != boatSize {
			return math.Inf(1)
		}
		cost += BoatBreakdown(boat, w).Total()
	}

	return cost + InterBoatVariance(boats, w.DaysSinceBoatedPenalty)*w.InterBoatVariancePenalty
}
