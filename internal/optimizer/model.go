package optimizer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

var (
	ErrNotEnoughAthletes = errors.New("运动员人数不足")
	ErrInvalidParameters = errors.New("退火参数不合法")
	ErrInvalidWeight     = errors.New("评分权重不合法")
)

type CoolingSchedule string

const (
	CoolingExponential CoolingSchedule = "exponential"
	CoolingLinear      CoolingSchedule = "linear"
	CoolingLogarithmic CoolingSchedule = "logarithmic"
)

// 模拟退火参数
type Parameters struct {
	InitialTemp       float64         `json:"initialTemp"`       // 初始温度
	CoolingRate       float64         `json:"coolingRate"`       // 降温系数
	MinTemp           float64         `json:"minTemp"`           // 温度降到该值及以下时停止
	IterationsPerTemp int             `json:"iterationsPerTemp"` // 每个温度下的迭代次数
	CoolingSchedule   CoolingSchedule `json:"coolingSchedule"`   // 降温方式
}

func DefaultParameters() Parameters {
	return Parameters{
		InitialTemp:       1000.0,
		CoolingRate:       0.95,
		MinTemp:           1.0,
		IterationsPerTemp: 100,
		CoolingSchedule:   CoolingExponential,
	}
}

// maxTemperatureLevels 为一次退火允许的最多温度级数，超过时参数被拒绝
const maxTemperatureLevels = 100000

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p Parameters) Validate() error {
	if !finite(p.InitialTemp) || p.InitialTemp <= 0 {
		return fmt.Errorf("%w: initial_temp 必须为有限的正数 (got %f)", ErrInvalidParameters, p.InitialTemp)
	}
	if !finite(p.MinTemp) || p.MinTemp <= 0 {
		return fmt.Errorf("%w: min_temp 必须为有限的正数 (got %f)", ErrInvalidParameters, p.MinTemp)
	}
	if !finite(p.CoolingRate) {
		return fmt.Errorf("%w: cooling_rate 必须为有限数 (got %f)", ErrInvalidParameters, p.CoolingRate)
	}
	if p.IterationsPerTemp < 1 {
		return fmt.Errorf("%w: iterations_per_temp 必须 >= 1 (got %d)", ErrInvalidParameters, p.IterationsPerTemp)
	}

	switch p.CoolingSchedule {
	case CoolingExponential, CoolingLinear:
		// 只有 (0,1) 内的降温系数才能保证温度最终降到 min_temp 以下
		if p.CoolingRate <= 0 || p.CoolingRate >= 1 {
			return fmt.Errorf("%w: cooling_rate 必须在 (0,1) 之间 (got %f)", ErrInvalidParameters, p.CoolingRate)
		}
		if p.InitialTemp > p.MinTemp && math.Log(p.MinTemp/p.InitialTemp)/math.Log(p.CoolingRate) > maxTemperatureLevels {
			return fmt.Errorf("%w: 降温过慢，超过 %d 个温度级别 (cooling_rate=%f)", ErrInvalidParameters, maxTemperatureLevels, p.CoolingRate)
		}
	case CoolingLogarithmic:
		if p.CoolingRate <= 0 {
			return fmt.Errorf("%w: cooling_rate 必须 > 0 (got %f)", ErrInvalidParameters, p.CoolingRate)
		}
		// 对数降温降到 min_temp 需要 exp((T0/Tmin-1)/rate)-1 级，比较指数部分避免溢出
		if minRate := p.minLogarithmicRate(); p.CoolingRate < minRate {
			return fmt.Errorf("%w: 对数降温的 cooling_rate 至少为 %.2f 才能在 %d 个温度级别内降到 min_temp (got %f)",
				ErrInvalidParameters, minRate, maxTemperatureLevels, p.CoolingRate)
		}
	default:
		return fmt.Errorf("%w: 未知的降温方式 %q", ErrInvalidParameters, p.CoolingSchedule)
	}

	return nil
}

// minLogarithmicRate 返回对数降温在 maxTemperatureLevels 级内降到 MinTemp 所需的最小降温系数
func (p Parameters) minLogarithmicRate() float64 {
	if p.InitialTemp <= p.MinTemp {
		return 0
	}
	return (p.InitialTemp/p.MinTemp - 1) / math.Log(1+maxTemperatureLevels)
}

// linearSteps 由降温系数推算线性降温的总级数，即指数降温从 InitialTemp 降到 MinTemp 所需的级数
func (p Parameters) linearSteps() int {
	if p.InitialTemp <= p.MinTemp {
		return 1
	}
	steps := math.Ceil(math.Log(p.MinTemp/p.InitialTemp) / math.Log(p.CoolingRate))
	if steps < 1 || math.IsNaN(steps) || math.IsInf(steps, 0) {
		return 1
	}
	return int(steps)
}

// cool 计算第 level 个温度级别结束后的新温度（level 从 1 开始）
func (p Parameters) cool(temperature float64, level int) float64 {
	switch p.CoolingSchedule {
	case CoolingLinear:
		temperature -= (p.InitialTemp - p.MinTemp) / float64(p.linearSteps())
	case CoolingLogarithmic:
		temperature = p.InitialTemp / (1 + p.CoolingRate*math.Log(1+float64(level)))
	default:
		temperature *= p.CoolingRate
	}

	if temperature < p.MinTemp {
		temperature = p.MinTemp
	}
	return temperature
}

// Stats 记录一次退火过程的统计信息
type Stats struct {
	Evaluations       int           `json:"evaluations"`
	Acceptances       int           `json:"acceptances"`
	Improvements      int           `json:"improvements"`
	TemperatureLevels int           `json:"temperatureLevels"`
	FinalTemp         float64       `json:"finalTemp"`
	Duration          time.Duration `json:"duration"`
}

// Result 为一次优化的结果，单艇优化时 Boats 只有一条
type Result struct {
	Boats      [][]*domain.Athlete `json:"boats"`
	Unassigned []*domain.Athlete   `json:"unassigned"`
	Cost       float64             `json:"cost"`
	Stats      Stats               `json:"stats"`
}

// Lineup 返回第一条艇的阵容，主要用于单艇优化
func (r *Result) Lineup() []*domain.Athlete {
	if r == nil || len(r.Boats) == 0 {
		return nil
	}
	return r.Boats[0]
}

// Event 在每次接受新解时产生
type Event struct {
	Level       int
	Iteration   int
	Temperature float64
	CurrentCost float64
	BestCost    float64
}

type Observer func(Event)
