package optimizer

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// problem 描述一种解的形态：如何计算代价、如何产生邻居
type problem[S any] struct {
	cost     func(S) float64
	neighbor func(S, *rand.Rand) S
}

// accept 为 Metropolis 接受准则
func accept(delta, temperature float64, rng *rand.Rand) bool {
	if delta < 0 {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(-delta/temperature)
}

// anneal 从 initial 出发执行模拟退火，返回过程中找到的最优解
// ctx 在每次迭代前检查，被取消时返回当前最优解和 ctx.Err()
func anneal[S any](ctx context.Context, params Parameters, rng *rand.Rand, initial S, p problem[S], observe Observer) (S, float64, Stats, error) {
	start := time.Now()

	current := initial
	currentCost := p.cost(current)

	best := current
	bestCost := currentCost

	stats := Stats{Evaluations: 1}
	temperature := params.InitialTemp

	for level := 1; temperature > params.MinTemp; level++ {
		for iter := 0; iter < params.IterationsPerTemp; iter++ {
			if err := ctx.Err(); err != nil {
				stats.FinalTemp = temperature
				stats.Duration = time.Since(start)
				return best, bestCost, stats, err
			}

			candidate := p.neighbor(current, rng)
			candidateCost := p.cost(candidate)
			stats.Evaluations++

			if !accept(candidateCost-currentCost, temperature, rng) {
				continue
			}

			// 邻居总是新分配的切片，可以直接作为当前解
			current, currentCost = candidate, candidateCost
			stats.Acceptances++

			if currentCost < bestCost {
				best, bestCost = current, currentCost
				stats.Improvements++
			}

			if observe != nil {
				observe(Event{
					Level:       level,
					Iteration:   iter,
					Temperature: temperature,
					CurrentCost: currentCost,
					BestCost:    bestCost,
				})
			}
		}

		stats.TemperatureLevels = level
		temperature = params.cool(temperature, level)
	}

	stats.FinalTemp = temperature
	stats.Duration = time.Since(start)

	return best, bestCost, stats, nil
}
