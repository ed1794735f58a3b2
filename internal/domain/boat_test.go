package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBoat(t *testing.T) {
	for _, size := range []int{4, 8} {
		b, err := NewBoat(size)
		require.NoError(t, err)
		require.Len(t, b.Seats, size)
		require.False(t, b.IsFull())

		for i, seat := range b.Seats {
			require.Equal(t, i+1, seat.Position)
			if seat.Position%2 == 1 {
				require.Equal(t, SideStarboard, seat.Side)
			} else {
				require.Equal(t, SidePort, seat.Side)
			}
		}
	}

	for _, size := range []int{0, 2, 5, 9} {
		_, err := NewBoat(size)
		require.ErrorIs(t, err, ErrInvalidBoatSize)
	}
}

func TestBoatAssignAndRender(t *testing.T) {
	b, err := NewBoat(4)
	require.NoError(t, err)

	a := &Athlete{Name: "Alice", SidePreference: SideStarboard}
	require.NoError(t, b.AssignAthlete(1, a))
	require.Error(t, b.AssignAthlete(0, a))
	require.Error(t, b.AssignAthlete(5, a))

	require.Equal(t, a, b.Athlete(1))
	require.Nil(t, b.Athlete(2))
	require.Nil(t, b.Athlete(9))
	require.Equal(t, 1, b.SideMatches())

	require.Equal(t, "Boat (4):\n  Seat 1 (starboard): Alice\n  Seat 2 (port): Empty\n  Seat 3 (starboard): Empty\n  Seat 4 (port): Empty", b.String())

	b.Clear()
	require.Nil(t, b.Athlete(1))
}

func TestNewBoatWithLineup(t *testing.T) {
	lineup := []*Athlete{
		{Name: "a", SidePreference: SidePort},
		{Name: "b", SidePreference: SidePort},
		{Name: "c", SidePreference: SideBoth},
		{Name: "d", SidePreference: SideStarboard},
	}

	b, err := NewBoatWithLineup(lineup)
	require.NoError(t, err)
	require.True(t, b.IsFull())
	require.Equal(t, lineup, b.Lineup())
	require.Equal(t, 2, b.SideMatches())

	_, err = NewBoatWithLineup(lineup[:3])
	require.ErrorIs(t, err, ErrInvalidBoatSize)
}
