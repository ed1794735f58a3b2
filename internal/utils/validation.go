package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

// ValidateAthleteIDs 检查请求中的运动员 id 没有重复，且都存在于查询到的运动员中
func ValidateAthleteIDs(ids []int64, athletes []*domain.Athlete) error {
	found := make(map[int64]bool, len(athletes))
	for _, a := range athletes {
		found[a.ID] = true
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("运动员 %d 重复出现", id)
		}
		seen[id] = true

		if !found[id] {
			return fmt.Errorf("运动员 %d 不存在", id)
		}
	}

	return nil
}

// ValidateLineup 检查阵容：每条艇满员、座位号连续、舷侧正确，所有运动员都来自名单且只出现一次
func ValidateLineup(lineup *domain.Lineup, roster []*domain.Athlete) error {
	if !domain.ValidBoatSize(lineup.BoatSize) {
		return domain.ErrInvalidBoatSize
	}
	if len(lineup.Boats) == 0 {
		return errors.New("阵容中没有任何艇")
	}

	inRoster := make(map[int64]bool, len(roster))
	for _, a := range roster {
		inRoster[a.ID] = true
	}

	seen := make(map[int64]bool)
	use := func(id int64) error {
		if !inRoster[id] {
			return fmt.Errorf("运动员 %d 不在名单中", id)
		}
		if seen[id] {
			return fmt.Errorf("运动员 %d 在阵容中重复出现", id)
		}
		seen[id] = true
		return nil
	}

	for _, boat := range lineup.Boats {
		if len(boat.Seats) != lineup.BoatSize {
			return fmt.Errorf("第 %d 条艇需要 %d 人，实际为 %d 人", boat.Number, lineup.BoatSize, len(boat.Seats))
		}
		for i, seat := range boat.Seats {
			if seat.Position != i+1 {
				return fmt.Errorf("第 %d 条艇的座位号不连续", boat.Number)
			}
			if seat.Side != domain.SeatSide(seat.Position) {
				return fmt.Errorf("第 %d 条艇 %d 号座位的舷侧错误", boat.Number, seat.Position)
			}
			if err := use(seat.AthleteID); err != nil {
				return err
			}
		}
	}

	for _, id := range lineup.UnassignedAthleteIDs {
		if err := use(id); err != nil {
			return err
		}
	}

	return nil
}
