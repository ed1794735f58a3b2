package optimizer

import (
	"math/rand"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

// twoDistinct 随机选出两个不同的下标，n 必须 >= 2
func twoDistinct(n int, rng *rand.Rand) (int, int) {
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

func cloneLineup(lineup []*domain.Athlete) []*domain.Athlete {
	return append([]*domain.Athlete(nil), lineup...)
}

func cloneBoats(boats [][]*domain.Athlete) [][]*domain.Athlete {
	cloned := make([][]*domain.Athlete, len(boats))
	for i, boat := range boats {
		cloned[i] = cloneLineup(boat)
	}
	return cloned
}

// swapSeats 交换阵容中的两个位置，返回新的阵容，不修改输入
func swapSeats(lineup []*domain.Athlete, i, j int) []*domain.Athlete {
	neighbor := cloneLineup(lineup)
	neighbor[i], neighbor[j] = neighbor[j], neighbor[i]
	return neighbor
}

// swapNeighbor 随机交换阵容中两个不同位置上的运动员
func swapNeighbor(lineup []*domain.Athlete, rng *rand.Rand) []*domain.Athlete {
	if len(lineup) < 2 {
		return cloneLineup(lineup)
	}
	i, j := twoDistinct(len(lineup), rng)
	return swapSeats(lineup, i, j)
}

// crossBoatNeighbor 随机选两条不同的艇，各取一个座位交换运动员
// 只有一条艇时退化为艇内交换
func crossBoatNeighbor(boats [][]*domain.Athlete, rng *rand.Rand) [][]*domain.Athlete {
	neighbor := cloneBoats(boats)

	if len(neighbor) < 2 {
		if len(neighbor) == 1 {
			neighbor[0] = swapNeighbor(neighbor[0], rng)
		}
		return neighbor
	}

	b1, b2 := twoDistinct(len(neighbor), rng)
	s1 := rng.Intn(len(neighbor[b1]))
	s2 := rng.Intn(len(neighbor[b2]))
	neighbor[b1][s1], neighbor[b2][s2] = neighbor[b2][s2], neighbor[b1][s1]

	return neighbor
}
