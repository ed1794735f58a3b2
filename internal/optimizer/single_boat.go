package optimizer

import (
	"context"
	"math/rand"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

// SingleBoatOptimizer 从名单中选出一条艇的最优阵容
type SingleBoatOptimizer struct {
	base
	weights SingleBoatWeights
}

func NewSingleBoat(athletes []*domain.Athlete, boatSize int, params Parameters, weights SingleBoatWeights, rng *rand.Rand) (*SingleBoatOptimizer, error) {
	b, err := newBase(athletes, boatSize, params, rng)
	if err != nil {
		return nil, err
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return &SingleBoatOptimizer{base: b, weights: weights}, nil
}

func (o *SingleBoatOptimizer) Cost(lineup []*domain.Athlete) float64 {
	return SingleBoatCost(lineup, o.boatSize, o.weights)
}

// initialLineup 从名单中随机抽取 boatSize 人作为初始阵容
func (o *SingleBoatOptimizer) initialLineup() []*domain.Athlete {
	perm := o.rng.Perm(len(o.athletes))
	lineup := make([]*domain.Athlete, o.boatSize)
	for i := range lineup {
		lineup[i] = o.athletes[perm[i]]
	}
	return lineup
}

func (o *SingleBoatOptimizer) Optimize(ctx context.Context) (*Result, error) {
	best, bestCost, stats, err := anneal(ctx, o.params, o.rng, o.initialLineup(), problem[[]*domain.Athlete]{
		cost:     o.Cost,
		neighbor: swapNeighbor,
	}, o.observer)

	res := &Result{
		Boats:      [][]*domain.Athlete{best},
		Unassigned: remainder(o.athletes, [][]*domain.Athlete{best}),
		Cost:       bestCost,
		Stats:      stats,
	}
	o.store(res)

	return res, err
}

func (o *SingleBoatOptimizer) Report() string {
	return RenderReport(o.lastResult(), false)
}
