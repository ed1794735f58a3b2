package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBoatSize = errors.New("艇型必须为 4 或 8")

type Seat struct {
	Position int      `json:"position"` // 从艇首开始，1 起始
	Side     Side     `json:"side"`
	Athlete  *Athlete `json:"athlete"`
}

type Boat struct {
	Size  int     `json:"size"`
	Seats []*Seat `json:"seats"`
}

func ValidBoatSize(size int) bool {
	return size == 4 || size == 8
}

// SeatSide 返回某个座位的固定舷侧：奇数号为右舷，偶数号为左舷（四人艇与八人艇相同）
func SeatSide(position int) Side {
	if position%2 == 0 {
		return SidePort
	}
	return SideStarboard
}

func NewBoat(size int) (*Boat, error) {
	if !ValidBoatSize(size) {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidBoatSize, size)
	}

	b := &Boat{
		Size:  size,
		Seats: make([]*Seat, size),
	}
	for i := range b.Seats {
		b.Seats[i] = &Seat{Position: i + 1, Side: SeatSide(i + 1)}
	}

	return b, nil
}

// NewBoatWithLineup 按照从艇首到艇尾的顺序将运动员放入新建的艇中
func NewBoatWithLineup(lineup []*Athlete) (*Boat, error) {
	b, err := NewBoat(len(lineup))
	if err != nil {
		return nil, err
	}
	for i, a := range lineup {
		b.Seats[i].Athlete = a
	}
	return b, nil
}

func (b *Boat) AssignAthlete(position int, a *Athlete) error {
	if position < 1 || position > b.Size {
		return fmt.Errorf("座位号必须在 1 到 %d 之间 (got %d)", b.Size, position)
	}
	b.Seats[position-1].Athlete = a
	return nil
}

func (b *Boat) Athlete(position int) *Athlete {
	if position < 1 || position > b.Size {
		return nil
	}
	return b.Seats[position-1].Athlete
}

func (b *Boat) IsFull() bool {
	for _, seat := range b.Seats {
		if seat.Athlete == nil {
			return false
		}
	}
	return true
}

func (b *Boat) Lineup() []*Athlete {
	lineup := make([]*Athlete, len(b.Seats))
	for i, seat := range b.Seats {
		lineup[i] = seat.Athlete
	}
	return lineup
}

func (b *Boat) Clear() {
	for _, seat := range b.Seats {
		seat.Athlete = nil
	}
}

// SideMatches 统计舷侧偏好得到满足的座位数
func (b *Boat) SideMatches() int {
	matches := 0
	for _, seat := range b.Seats {
		if seat.Athlete == nil {
			continue
		}
		if seat.Athlete.SidePreference == SideBoth || seat.Athlete.SidePreference == seat.Side {
			matches++
		}
	}
	return matches
}

func (b *Boat) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Boat (%d):", b.Size)
	for _, seat := range b.Seats {
		name := "Empty"
		if seat.Athlete != nil {
			name = seat.Athlete.Name
		}
		fmt.Fprintf(&sb, "\n  Seat %d (%s): %s", seat.Position, seat.Side, name)
	}
	return sb.String()
}
