package optimizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	KeySidePreferencePenalty    = "side_preference_penalty"
	KeyExperienceMixingPenalty  = "experience_mixing_penalty"
	KeyPowerVariancePenalty     = "power_variance_penalty"
	KeySternLoadingPenalty      = "stern_loading_penalty"
	KeyDaysSinceBoatedPenalty   = "days_since_boated_penalty"
	KeyInterBoatVariancePenalty = "inter_boat_variance_penalty"
)

// 单艇评分权重
type SingleBoatWeights struct {
	SidePreferencePenalty   float64 `json:"side_preference_penalty"`
	ExperienceMixingPenalty float64 `json:"experience_mixing_penalty"`
	PowerVariancePenalty    float64 `json:"power_variance_penalty"`
	SternLoadingPenalty     float64 `json:"stern_loading_penalty"`
	DaysSinceBoatedPenalty  float64 `json:"days_since_boated_penalty"` // 每等待一天减去的秒数
}

func DefaultSingleBoatWeights() SingleBoatWeights {
	return SingleBoatWeights{
		SidePreferencePenalty:   100.0,
		ExperienceMixingPenalty: 10.0,
		PowerVariancePenalty:    0.1,
		SternLoadingPenalty:     15.0,
		DaysSinceBoatedPenalty:  5.0,
	}
}

// 多艇评分权重
type MultiBoatWeights struct {
	SidePreferencePenalty    float64 `json:"side_preference_penalty"`
	ExperienceMixingPenalty  float64 `json:"experience_mixing_penalty"` // 只要艇内同时有新手和校队队员就计一次
	PowerVariancePenalty     float64 `json:"power_variance_penalty"`
	SternLoadingPenalty      float64 `json:"stern_loading_penalty"`
	InterBoatVariancePenalty float64 `json:"inter_boat_variance_penalty"`
	DaysSinceBoatedPenalty   float64 `json:"days_since_boated_penalty"`
}

func DefaultMultiBoatWeights() MultiBoatWeights {
	return MultiBoatWeights{
		SidePreferencePenalty:    100.0,
		ExperienceMixingPenalty:  1000.0,
		PowerVariancePenalty:     0.1,
		SternLoadingPenalty:      15.0,
		InterBoatVariancePenalty: 100.0,
		DaysSinceBoatedPenalty:   5.0,
	}
}

// ParseSingleBoatWeights 从键值对中解析单艇权重，缺失的键使用默认值
func ParseSingleBoatWeights(bag map[string]any) (SingleBoatWeights, error) {
	warnIfEmpty(bag)
	return MergeSingleBoatWeights(DefaultSingleBoatWeights(), bag)
}

// MergeSingleBoatWeights 用键值对覆盖 w 中的对应权重，bag 为空时原样返回 w
func MergeSingleBoatWeights(w SingleBoatWeights, bag map[string]any) (SingleBoatWeights, error) {
	if err := applyWeights(bag, map[string]*float64{
		KeySidePreferencePenalty:   &w.SidePreferencePenalty,
		KeyExperienceMixingPenalty: &w.ExperienceMixingPenalty,
		KeyPowerVariancePenalty:    &w.PowerVariancePenalty,
		KeySternLoadingPenalty:     &w.SternLoadingPenalty,
		KeyDaysSinceBoatedPenalty:  &w.DaysSinceBoatedPenalty,
	}); err != nil {
		return SingleBoatWeights{}, err
	}
	return w, nil
}

// ParseMultiBoatWeights 从键值对中解析多艇权重，缺失的键使用默认值
func ParseMultiBoatWeights(bag map[string]any) (MultiBoatWeights, error) {
	warnIfEmpty(bag)
	return MergeMultiBoatWeights(DefaultMultiBoatWeights(), bag)
}

func MergeMultiBoatWeights(w MultiBoatWeights, bag map[string]any) (MultiBoatWeights, error) {
	if err := applyWeights(bag, map[string]*float64{
		KeySidePreferencePenalty:    &w.SidePreferencePenalty,
		KeyExperienceMixingPenalty:  &w.ExperienceMixingPenalty,
		KeyPowerVariancePenalty:     &w.PowerVariancePenalty,
		KeySternLoadingPenalty:      &w.SternLoadingPenalty,
		KeyInterBoatVariancePenalty: &w.InterBoatVariancePenalty,
		KeyDaysSinceBoatedPenalty:   &w.DaysSinceBoatedPenalty,
	}); err != nil {
		return MultiBoatWeights{}, err
	}
	return w, nil
}

func (w SingleBoatWeights) Validate() error {
	return validateWeights(map[string]float64{
		KeySidePreferencePenalty:   w.SidePreferencePenalty,
		KeyExperienceMixingPenalty: w.ExperienceMixingPenalty,
		KeyPowerVariancePenalty:    w.PowerVariancePenalty,
		KeySternLoadingPenalty:     w.SternLoadingPenalty,
		KeyDaysSinceBoatedPenalty:  w.DaysSinceBoatedPenalty,
	})
}

func (w MultiBoatWeights) Validate() error {
	return validateWeights(map[string]float64{
		KeySidePreferencePenalty:    w.SidePreferencePenalty,
		KeyExperienceMixingPenalty:  w.ExperienceMixingPenalty,
		KeyPowerVariancePenalty:     w.PowerVariancePenalty,
		KeySternLoadingPenalty:      w.SternLoadingPenalty,
		KeyInterBoatVariancePenalty: w.InterBoatVariancePenalty,
		KeyDaysSinceBoatedPenalty:   w.DaysSinceBoatedPenalty,
	})
}

func validateWeights(values map[string]float64) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := values[k]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeight, k, v)
		}
	}
	return nil
}

func warnIfEmpty(bag map[string]any) {
	if len(bag) == 0 {
		slog.Warn("未提供评分权重，使用默认权重")
	}
}

func applyWeights(bag map[string]any, fields map[string]*float64) error {

	// 收集全部非法值后一次性返回，方便调用方一次修正
	invalid := make([]string, 0)
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		dst, ok := fields[k]
		if !ok {
			slog.Warn("忽略未知的评分权重", "key", k)
			continue
		}

		v, err := toFloat(bag[k])
		if err != nil || v < 0 || !finite(v) {
			invalid = append(invalid, fmt.Sprintf("%s=%v", k, bag[k]))
			continue
		}
		*dst = v
	}

	if len(invalid) > 0 {
		return fmt.Errorf("%w（必须为非负数）: %s", ErrInvalidWeight, strings.Join(invalid, ", "))
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// ParseParameters 从键值对中解析退火参数，缺失的键使用默认值
func ParseParameters(bag map[string]any) (Parameters, error) {
	return MergeParameters(DefaultParameters(), bag)
}

// MergeParameters 用键值对覆盖 p 中的对应参数，结果需通过校验
func MergeParameters(p Parameters, bag map[string]any) (Parameters, error) {
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := bag[k]
		switch k {
		case "initial_temp", "cooling_rate", "min_temp":
			f, err := toFloat(v)
			if err != nil {
				return Parameters{}, fmt.Errorf("%w: %s=%v", ErrInvalidParameters, k, v)
			}
			switch k {
			case "initial_temp":
				p.InitialTemp = f
			case "cooling_rate":
				p.CoolingRate = f
			case "min_temp":
				p.MinTemp = f
			}
		case "iterations_per_temp":
			f, err := toFloat(v)
			if err != nil || !finite(f) || f != math.Trunc(f) {
				return Parameters{}, fmt.Errorf("%w: %s=%v", ErrInvalidParameters, k, v)
			}
			p.IterationsPerTemp = int(f)
		case "cooling_schedule":
			s, ok := v.(string)
			if !ok {
				return Parameters{}, fmt.Errorf("%w: %s=%v", ErrInvalidParameters, k, v)
			}
			p.CoolingSchedule = CoolingSchedule(strings.ToLower(strings.TrimSpace(s)))
		default:
			slog.Warn("忽略未知的退火参数", "key", k)
		}
	}

	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}
