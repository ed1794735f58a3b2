package optimizer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccept(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	require.True(t, accept(-1, 0, rng))
	require.False(t, accept(1, 0, rng))
	require.False(t, accept(0, 0, rng))

	// 温度很高时几乎总是接受小的劣化
	accepted := 0
	for i := 0; i < 1000; i++ {
		if accept(1, 1e6, rng) {
			accepted++
		}
	}
	require.Greater(t, accepted, 990)
}

func TestCoolingSchedules(t *testing.T) {
	testCases := []struct {
		name     string
		schedule CoolingSchedule
		rate     float64
		expected []float64
	}{
		{name: "exponential", schedule: CoolingExponential, rate: 0.5, expected: []float64{50, 25, 12.5}},
		// ceil(ln(0.01)/ln(0.5)) = 7 级，每级降低 99/7
		{name: "linear", schedule: CoolingLinear, rate: 0.5, expected: []float64{100 - 99.0/7, 100 - 2*99.0/7, 100 - 3*99.0/7}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Parameters{InitialTemp: 100, CoolingRate: tc.rate, MinTemp: 1, IterationsPerTemp: 1, CoolingSchedule: tc.schedule}
			require.NoError(t, p.Validate())

			temperature := p.InitialTemp
			for i, want := range tc.expected {
				temperature = p.cool(temperature, i+1)
				require.InDelta(t, want, temperature, 1e-9)
			}
		})
	}

	t.Run("logarithmic", func(t *testing.T) {
		p := Parameters{InitialTemp: 100, CoolingRate: 2, MinTemp: 1, IterationsPerTemp: 1, CoolingSchedule: CoolingLogarithmic}
		got := p.cool(100, 1)
		require.InDelta(t, 100/(1+2*0.6931471805599453), got, 1e-9)
		require.Less(t, p.cool(got, 2), got)
	})

	t.Run("temperature is clamped to min temp", func(t *testing.T) {
		p := Parameters{InitialTemp: 100, CoolingRate: 0.01, MinTemp: 5, IterationsPerTemp: 1, CoolingSchedule: CoolingExponential}
		require.Equal(t, 5.0, p.cool(100, 1))
	})
}

func TestAnnealTerminatesForEverySchedule(t *testing.T) {
	for _, schedule := range []CoolingSchedule{CoolingExponential, CoolingLinear, CoolingLogarithmic} {
		t.Run(string(schedule), func(t *testing.T) {
			p := Parameters{InitialTemp: 50, CoolingRate: 0.8, MinTemp: 1, IterationsPerTemp: 5, CoolingSchedule: schedule}
			if schedule == CoolingLogarithmic {
				p.CoolingRate = p.minLogarithmicRate() * 2
			}

			rng := rand.New(rand.NewSource(8))
			best, bestCost, stats, err := anneal(context.Background(), p, rng, 10, problem[int]{
				cost: func(x int) float64 { return float64(x * x) },
				neighbor: func(x int, rng *rand.Rand) int {
					return x + rng.Intn(3) - 1
				},
			}, nil)

			require.NoError(t, err)
			require.Equal(t, float64(best*best), bestCost)
			require.LessOrEqual(t, bestCost, 100.0)
			require.Equal(t, p.MinTemp, stats.FinalTemp)
			require.Equal(t, 1+stats.TemperatureLevels*p.IterationsPerTemp, stats.Evaluations)
		})
	}
}

func TestAnnealBestNeverRegresses(t *testing.T) {
	rng := rand.New(rand.NewSource(9))

	lastBest := 1e18
	events := 0
	_, bestCost, _, err := anneal(context.Background(), fastParameters(), rng, 40, problem[int]{
		cost: func(x int) float64 { return float64(x * x) },
		neighbor: func(x int, rng *rand.Rand) int {
			return x + rng.Intn(5) - 2
		},
	}, func(e Event) {
		events++
		require.LessOrEqual(t, e.BestCost, lastBest)
		require.LessOrEqual(t, e.BestCost, e.CurrentCost)
		lastBest = e.BestCost
	})

	require.NoError(t, err)
	require.Positive(t, events)
	require.Equal(t, lastBest, bestCost)
	require.LessOrEqual(t, bestCost, 1600.0)
}

func TestAnnealStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rng := rand.New(rand.NewSource(10))
	best, bestCost, stats, err := anneal(ctx, fastParameters(), rng, 3, problem[int]{
		cost:     func(x int) float64 { return float64(x) },
		neighbor: func(x int, rng *rand.Rand) int { return x - 1 },
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, best)
	require.Equal(t, 3.0, bestCost)
	require.Equal(t, 1, stats.Evaluations)
}
