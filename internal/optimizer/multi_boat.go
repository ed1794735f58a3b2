package optimizer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

// MultiBoatOptimizer 将名单划分为若干条实力尽量接近的艇
type MultiBoatOptimizer struct {
	base
	weights  MultiBoatWeights
	numBoats int
}

func NewMultiBoat(athletes []*domain.Athlete, boatSize int, params Parameters, weights MultiBoatWeights, rng *rand.Rand) (*MultiBoatOptimizer, error) {
	b, err := newBase(athletes, boatSize, params, rng)
	if err != nil {
		return nil, fmt.Errorf("至少需要一条完整的艇: %w", err)
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return &MultiBoatOptimizer{
		base:     b,
		weights:  weights,
		numBoats: len(athletes) / boatSize,
	}, nil
}

func (o *MultiBoatOptimizer) NumBoats() int {
	return o.numBoats
}

func (o *MultiBoatOptimizer) Cost(boats [][]*domain.Athlete) float64 {
	return MultiBoatCost(boats, o.boatSize, o.weights)
}

// initialBoats 打乱名单的副本后按顺序切分成 numBoats 条艇，多出的人不上艇
func (o *MultiBoatOptimizer) initialBoats() ([][]*domain.Athlete, []*domain.Athlete) {
	shuffled := cloneLineup(o.athletes)
	o.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	boats := make([][]*domain.Athlete, o.numBoats)
	for i := range boats {
		boats[i] = cloneLineup(shuffled[i*o.boatSize : (i+1)*o.boatSize])
	}

	return boats, cloneLineup(shuffled[o.numBoats*o.boatSize:])
}

func (o *MultiBoatOptimizer) Optimize(ctx context.Context) (*Result, error) {
	initial, unassigned := o.initialBoats()

	best, bestCost, stats, err := anneal(ctx, o.params, o.rng, initial, problem[[][]*domain.Athlete]{
		cost:     o.Cost,
		neighbor: crossBoatNeighbor,
	}, o.observer)

	res := &Result{
		Boats:      best,
		Unassigned: unassigned,
		Cost:       bestCost,
		Stats:      stats,
	}
	o.store(res)

	return res, err
}

func (o *MultiBoatOptimizer) Report() string {
	return RenderReport(o.lastResult(), true)
}
