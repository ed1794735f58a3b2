package optimizer

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

func requireDistinct(t *testing.T, athletes []*domain.Athlete) {
	t.Helper()
	seen := make(map[*domain.Athlete]bool)
	for _, a := range athletes {
		require.False(t, seen[a], "运动员 %s 重复出现", a.Name)
		seen[a] = true
	}
}

func TestNewOptimizerErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	_, err := NewSingleBoat(randomRoster(8, 1), 5, fastParameters(), DefaultSingleBoatWeights(), rng)
	require.ErrorIs(t, err, domain.ErrInvalidBoatSize)

	_, err = NewSingleBoat(randomRoster(7, 1), 8, fastParameters(), DefaultSingleBoatWeights(), rng)
	require.ErrorIs(t, err, ErrNotEnoughAthletes)

	_, err = NewMultiBoat(randomRoster(3, 1), 4, fastParameters(), DefaultMultiBoatWeights(), rng)
	require.ErrorIs(t, err, ErrNotEnoughAthletes)

	bad := fastParameters()
	bad.CoolingRate = 1.5
	_, err = NewSingleBoat(randomRoster(8, 1), 8, bad, DefaultSingleBoatWeights(), rng)
	require.ErrorIs(t, err, ErrInvalidParameters)

	w := DefaultSingleBoatWeights()
	w.SternLoadingPenalty = -1
	_, err = NewSingleBoat(randomRoster(8, 1), 8, fastParameters(), w, rng)
	require.ErrorIs(t, err, ErrInvalidWeight)

	_, err = NewSingleBoat(randomRoster(8, 1), 8, fastParameters(), DefaultSingleBoatWeights(), nil)
	require.Error(t, err)
}

func TestSingleBoatOptimize(t *testing.T) {
	roster := randomRoster(12, 12)
	before := names(roster)

	opt, err := NewSingleBoat(roster, 8, fastParameters(), DefaultSingleBoatWeights(), rand.New(rand.NewSource(12)))
	require.NoError(t, err)

	res, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	lineup := res.Lineup()
	require.Len(t, lineup, 8)
	requireDistinct(t, lineup)
	require.Len(t, res.Unassigned, 4)
	requireDistinct(t, append(append([]*domain.Athlete(nil), lineup...), res.Unassigned...))
	require.Equal(t, opt.Cost(lineup), res.Cost)
	require.Equal(t, before, names(roster), "名单不应被修改")
}

func TestSingleBoatOptimizeIsReproducible(t *testing.T) {
	roster := randomRoster(10, 13)

	run := func() *Result {
		opt, err := NewSingleBoat(roster, 4, fastParameters(), DefaultSingleBoatWeights(), rand.New(rand.NewSource(13)))
		require.NoError(t, err)
		res, err := opt.Optimize(context.Background())
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()
	require.Equal(t, first.Cost, second.Cost)
	require.Equal(t, names(first.Lineup()), names(second.Lineup()))
}

func TestIdenticalAthletesCostIsOrderIndependent(t *testing.T) {
	roster := make([]*domain.Athlete, 8)
	for i := range roster {
		roster[i] = newAthlete(string(rune('A'+i)), 420, domain.SideBoth, domain.ExperienceNovice)
	}

	w := DefaultSingleBoatWeights()
	expected := SingleBoatCost(roster, 8, w)
	require.InDelta(t, 8*420.0, expected, 1e-9)

	rng := rand.New(rand.NewSource(14))
	for i := 0; i < 20; i++ {
		perm := rng.Perm(8)
		shuffled := make([]*domain.Athlete, 8)
		for k, p := range perm {
			shuffled[k] = roster[p]
		}
		require.Equal(t, expected, SingleBoatCost(shuffled, 8, w))
	}

	opt, err := NewSingleBoat(roster, 8, fastParameters(), w, rng)
	require.NoError(t, err)
	res, err := opt.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, expected, res.Cost)
}

func TestSingleBoatBestCostNeverRegresses(t *testing.T) {
	opt, err := NewSingleBoat(randomRoster(12, 15), 8, fastParameters(), DefaultSingleBoatWeights(), rand.New(rand.NewSource(15)))
	require.NoError(t, err)

	var events []Event
	opt.SetObserver(func(e Event) { events = append(events, e) })

	res, err := opt.Optimize(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, events)

	for i := 1; i < len(events); i++ {
		require.LessOrEqual(t, events[i].BestCost, events[i-1].BestCost)
	}
	require.Equal(t, events[len(events)-1].BestCost, res.Cost)
	require.Equal(t, res.Stats.Acceptances, len(events))
}

func TestMultiBoatOptimize(t *testing.T) {
	testCases := []struct {
		name       string
		rosterSize int
		boatSize   int
		boats      int
		unassigned int
	}{
		{name: "exact fit", rosterSize: 16, boatSize: 8, boats: 2, unassigned: 0},
		{name: "with remainder", rosterSize: 14, boatSize: 4, boats: 3, unassigned: 2},
		{name: "one boat", rosterSize: 5, boatSize: 4, boats: 1, unassigned: 1},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			roster := randomRoster(tc.rosterSize, int64(20+i))
			before := names(roster)

			opt, err := NewMultiBoat(roster, tc.boatSize, fastParameters(), DefaultMultiBoatWeights(), rand.New(rand.NewSource(int64(20+i))))
			require.NoError(t, err)
			require.Equal(t, tc.boats, opt.NumBoats())

			res, err := opt.Optimize(context.Background())
			require.NoError(t, err)
			require.Len(t, res.Boats, tc.boats)
			require.Len(t, res.Unassigned, tc.unassigned)

			all := make([]*domain.Athlete, 0, tc.rosterSize)
			for _, boat := range res.Boats {
				require.Len(t, boat, tc.boatSize)
				all = append(all, boat...)
			}
			all = append(all, res.Unassigned...)
			requireDistinct(t, all)
			require.Len(t, all, tc.rosterSize)

			require.Equal(t, opt.Cost(res.Boats), res.Cost)
			require.Equal(t, before, names(roster), "名单不应被修改")
		})
	}
}

func TestOptimizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt, err := NewMultiBoat(randomRoster(16, 30), 8, DefaultParameters(), DefaultMultiBoatWeights(), rand.New(rand.NewSource(30)))
	require.NoError(t, err)

	res, err := opt.Optimize(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	require.Len(t, res.Boats, 2)
}

func TestRunBest(t *testing.T) {
	roster := randomRoster(12, 31)

	costs := make(chan float64, 4)
	factory := func(seed int64) (Optimizer, error) {
		return NewSingleBoat(roster, 8, fastParameters(), DefaultSingleBoatWeights(), rand.New(rand.NewSource(seed)))
	}

	for seed := int64(100); seed < 104; seed++ {
		opt, err := factory(seed)
		require.NoError(t, err)
		res, err := opt.Optimize(context.Background())
		require.NoError(t, err)
		costs <- res.Cost
	}
	close(costs)

	lowest := 1e18
	for c := range costs {
		lowest = min(lowest, c)
	}

	best, opt, err := RunBest(context.Background(), 4, 100, factory)
	require.NoError(t, err)
	require.Equal(t, lowest, best.Cost)
	require.Contains(t, opt.Report(), "OPTIMAL LINEUP")
}

func TestRunBestKeepsPartialResults(t *testing.T) {
	roster := randomRoster(10, 32)

	// 足够慢，保证在截止时间前跑不完
	slow := Parameters{InitialTemp: 1000, CoolingRate: 0.999, MinTemp: 1, IterationsPerTemp: 10000, CoolingSchedule: CoolingExponential}
	factory := func(seed int64) (Optimizer, error) {
		return NewSingleBoat(roster, 8, slow, DefaultSingleBoatWeights(), rand.New(rand.NewSource(seed)))
	}

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		res, opt, err := RunBest(ctx, 2, 7, factory)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotNil(t, res)
		require.NotNil(t, opt)
		require.Len(t, res.Lineup(), 8)
		require.False(t, math.IsInf(res.Cost, 0))
		require.Equal(t, opt.(*SingleBoatOptimizer).Cost(res.Lineup()), res.Cost)
		require.Contains(t, opt.Report(), "OPTIMAL LINEUP")
	})

	t.Run("already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, _, err := RunBest(ctx, 3, 7, factory)
		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, res)
		require.Len(t, res.Unassigned, 2)
	})

	t.Run("factory errors are not masked", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		res, _, err := RunBest(ctx, 2, 7, func(seed int64) (Optimizer, error) {
			return NewSingleBoat(roster[:3], 8, fastParameters(), DefaultSingleBoatWeights(), rand.New(rand.NewSource(seed)))
		})
		require.ErrorIs(t, err, ErrNotEnoughAthletes)
		require.Nil(t, res)
	})
}

func TestReport(t *testing.T) {
	roster := []*domain.Athlete{
		newAthlete("Alice", 400, domain.SideStarboard, domain.ExperienceVarsity),
		newAthlete("Bob", 410, domain.SidePort, domain.ExperienceVarsity),
		newAthlete("Carol", 420, domain.SideBoth, domain.ExperienceNovice),
		newAthlete("Dave", 430, domain.SidePort, domain.ExperienceNovice),
		newAthlete("Eve", 440, domain.SideBoth, domain.ExperienceNovice),
	}

	single, err := NewSingleBoat(roster, 4, fastParameters(), DefaultSingleBoatWeights(), rand.New(rand.NewSource(32)))
	require.NoError(t, err)
	require.Equal(t, "尚未运行优化\n", single.Report())

	_, err = single.Optimize(context.Background())
	require.NoError(t, err)
	report := single.Report()
	require.Contains(t, report, "OPTIMAL LINEUP (Cost:")
	require.Contains(t, report, "Seat 1 (starboard):")
	require.Contains(t, report, "Average Erg Score:")
	require.Contains(t, report, "Average Attendance Score: 100.0%")
	require.Contains(t, report, "Side Preference Matches:")

	multi, err := NewMultiBoat(roster, 4, fastParameters(), DefaultMultiBoatWeights(), rand.New(rand.NewSource(33)))
	require.NoError(t, err)
	res, err := multi.Optimize(context.Background())
	require.NoError(t, err)
	report = multi.Report()
	require.Contains(t, report, "OPTIMAL MULTI-BOAT LINEUPS")
	require.Contains(t, report, "--- BOAT 1 ---")
	require.Contains(t, report, "Unassigned: "+res.Unassigned[0].Name)
}

func TestSummarizeAndFormatErg(t *testing.T) {
	lineup := []*domain.Athlete{
		newAthlete("a", 400, domain.SideStarboard, domain.ExperienceVarsity),
		newAthlete("b", 410, domain.SideStarboard, domain.ExperienceNovice),
	}
	lineup[1].AttendanceHistory = []domain.Attendance{domain.AttendanceAbsent, domain.AttendancePresent}

	s := Summarize(lineup)
	require.Equal(t, 405.0, s.AverageErg)
	require.InDelta(t, 0.75, s.AverageAttendance, 1e-9)
	require.Equal(t, 1, s.Varsity)
	require.Equal(t, 1, s.Novice)
	require.Equal(t, 1, s.SideMatches)

	require.Equal(t, "6:45.00", FormatErg(405))
	require.Equal(t, "7:05.50", FormatErg(425.5))
}
