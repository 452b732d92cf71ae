package allocation

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatten(a Allocation) []string {
	var out []string
	for _, rooms := range a {
		for _, seats := range rooms {
			out = append(out, seats...)
		}
	}
	return out
}

func TestAllocateLargestDepartmentFirst(t *testing.T) {
	got, err := Allocate(RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 5},
		[]Demand{{"IT", 2}, {"CSE(AI&ML)", 3}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CSE(AI&ML)", "CSE(AI&ML)", "CSE(AI&ML)", "IT", "IT"}, flatten(got))
}

func TestAllocateKeepsInitialOrderAfterDecrements(t *testing.T) {
	// ME starts ahead of IT and keeps its place even once IT has more remaining.
	got, err := Allocate(RoomGrid{Floors: 1, RoomsPerFloor: 2, SeatsPerRoom: 4},
		[]Demand{{"IT", 3}, {"ME", 4}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ME", "ME", "ME", "ME"},
		{"IT", "IT", "IT", ""},
	}, got[0])
}

func TestAllocateStableTies(t *testing.T) {
	got, err := Allocate(RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 4},
		[]Demand{{"EEE", 2}, {"Civil", 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"EEE", "EEE", "Civil", "Civil"}, flatten(got))
}

func TestAllocateCapacityExceeded(t *testing.T) {
	got, err := Allocate(RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 4}, []Demand{{"IT", 5}})
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
}

func TestAllocateEdgeCases(t *testing.T) {
	got, err := Allocate(RoomGrid{Floors: 2, RoomsPerFloor: 1, SeatsPerRoom: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", "", "", ""}, flatten(got))

	got, err = Allocate(RoomGrid{}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Allocate(RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 3}, []Demand{{"ECE", 0}, {"IT", 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"IT", "", ""}, flatten(got))
	assert.NotContains(t, flatten(got), "ECE")
}

func TestAllocateRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		grid   RoomGrid
		demand []Demand
	}{
		{"negative grid", RoomGrid{Floors: -1}, nil},
		{"oversized grid", RoomGrid{Floors: 1000, RoomsPerFloor: 1000, SeatsPerRoom: 1000}, nil},
		{"unknown department", RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 1}, []Demand{{"Law", 1}}},
		{"negative count", RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 1}, []Demand{{"IT", -1}}},
		{"duplicate", RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 2}, []Demand{{"IT", 1}, {"IT", 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Allocate(tc.grid, tc.demand)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAllocateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		grid := RoomGrid{Floors: rng.Intn(4), RoomsPerFloor: rng.Intn(4), SeatsPerRoom: rng.Intn(6)}
		var demand []Demand
		for _, d := range Departments {
			if rng.Intn(2) == 0 {
				demand = append(demand, Demand{Department: d, Students: rng.Intn(8)})
			}
		}

		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			got, err := Allocate(grid, demand)
			total := Total(demand)
			if total > grid.Capacity() {
				assert.ErrorIs(t, err, ErrCapacityExceeded)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, total, got.Assigned())
			assert.Len(t, flatten(got), grid.Capacity())

			counts := map[string]int{}
			got.Each(func(s Seat) { counts[s.Department]++ })
			for _, d := range demand {
				assert.Equal(t, d.Students, counts[d.Department], d.Department)
			}

			again, err := Allocate(grid, demand)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestAllocateDoesNotMutateDemand(t *testing.T) {
	demand := []Demand{{"IT", 1}, {"ME", 2}}
	_, err := Allocate(RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 3}, demand)
	require.NoError(t, err)
	assert.Equal(t, []Demand{{"IT", 1}, {"ME", 2}}, demand)
}

func TestSummary(t *testing.T) {
	got, err := Allocate(RoomGrid{Floors: 2, RoomsPerFloor: 2, SeatsPerRoom: 2},
		[]Demand{{"IT", 2}, {"CSE(AI&ML)", 3}})
	require.NoError(t, err)

	assert.Equal(t, []DepartmentSummary{
		{Department: "CSE(AI&ML)", Seats: 3, Rooms: []RoomRef{{1, 1}, {1, 2}}},
		{Department: "IT", Seats: 2, Rooms: []RoomRef{{1, 2}, {2, 1}}},
	}, got.Summary())
}
