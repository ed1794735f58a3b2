package domain

import "time"

type LineupSeat struct {
	Position  int    `json:"position"`
	Side      Side   `json:"side"`
	AthleteID int64  `json:"athleteID"`
	Name      string `json:"name"`
}

type LineupBoat struct {
	Number int          `json:"number"` // 从 1 开始
	Seats  []LineupSeat `json:"seats"`
}

// Lineup 为一次自动排艇的结果
type Lineup struct {
	ID                   int64        `json:"id"`
	Name                 string       `json:"name"`
	BoatSize             int          `json:"boatSize"`
	MultiBoat            bool         `json:"multiBoat"`
	Cost                 float64      `json:"cost"`
	Runs                 int          `json:"runs"`
	Boats                []LineupBoat `json:"boats"`
	UnassignedAthleteIDs []int64      `json:"unassignedAthleteIDs"`
	CreatedBy            int64        `json:"createdBy"`
	Published            bool         `json:"published"`
	CreatedAt            time.Time    `json:"createdAt"`
	Version              int32        `json:"-"`
}

// BoatedAthleteIDs 返回所有在艇上的运动员
func (l *Lineup) BoatedAthleteIDs() []int64 {
	ids := make([]int64, 0, len(l.Boats)*l.BoatSize)
	for _, boat := range l.Boats {
		for _, seat := range boat.Seats {
			ids = append(ids, seat.AthleteID)
		}
	}
	return ids
}
